package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artprint-backend/internal/config"
	"artprint-backend/internal/models"
)

func TestAdminRequiresAuth(t *testing.T) {
	e := setup(t, false)

	assert.Equal(t, http.StatusUnauthorized, e.do("GET", "/api/admin/orders", nil, nil).Code)
	w := e.do("GET", "/api/admin/orders", nil, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	disabled := setup(t, false, func(c *config.Config) { c.AdminToken = "" })
	assert.Equal(t, http.StatusServiceUnavailable, disabled.admin("GET", "/api/admin/orders", nil).Code)
}

func TestListOrders(t *testing.T) {
	e := setup(t, false)
	e.paidOrder(t, validShipping)
	e.paidOrder(t, validShipping)

	w := e.admin("GET", "/api/admin/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.OrderListResponse](t, w)
	assert.Len(t, list.Orders, 2)
	assert.Equal(t, 2, list.Pagination.Total)
	assert.Equal(t, 50, list.Pagination.Limit)

	w = e.admin("GET", "/api/admin/orders?status=paid&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[models.OrderListResponse](t, w)
	assert.Len(t, list.Orders, 1)
	assert.Equal(t, 2, list.Pagination.Total)

	w = e.admin("GET", "/api/admin/orders?status=SHIPPED", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.OrderListResponse](t, w).Orders)

	w = e.admin("GET", "/api/admin/orders?limit=5000", nil)
	assert.Equal(t, 200, decode[models.OrderListResponse](t, w).Pagination.Limit)

	w = e.admin("GET", "/api/admin/orders?status=LOST", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_status")
}

func TestGetOrder(t *testing.T) {
	e := setup(t, false)
	o := e.paidOrder(t, validShipping)

	w := e.admin("GET", "/api/admin/orders/"+o.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[models.OrderDetailResponse](t, w)
	assert.Equal(t, "PAID", detail.Order.Status)
	require.NotNil(t, detail.Artwork)
	require.NotNil(t, detail.ArtworkURL)
	assert.Equal(t, "https://art.example.com"+detail.Artwork.AssetPath, *detail.ArtworkURL)
	assert.Contains(t, string(detail.Order.Shipping), "Tokyo")

	assert.Equal(t, http.StatusNotFound, e.admin("GET", "/api/admin/orders/missing", nil).Code)
}

func TestUpdateOrder(t *testing.T) {
	e := setup(t, false)
	o := e.paidOrder(t, validShipping)
	path := "/api/admin/orders/" + o.ID

	w := e.admin("PATCH", path, []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_body")

	w = e.admin("PATCH", "/api/admin/orders/missing", []byte(`{"status":"FAILED"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.admin("PATCH", path, []byte(`{"status":"LOST"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_status")

	w = e.admin("PATCH", path, []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no_updates")

	w = e.admin("PATCH", path, []byte(`{"status":"failed","last_error":"manual hold"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.UpdateOrderResponse](t, w)
	assert.Equal(t, "PAID", updated.PreviousStatus)
	assert.Equal(t, "FAILED", updated.Order.Status)
	assert.Equal(t, "manual hold", updated.Order.LastError)
}

func TestUpdateOrderShipping(t *testing.T) {
	e := setup(t, false)

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantValid bool
	}{
		{"null clears", `{"shipping":null}`, http.StatusOK, false},
		{"empty string clears", `{"shipping":""}`, http.StatusOK, false},
		{"object replaces", `{"shipping":{"name":"Hanako","address":{"line1":"4-5","city":"Osaka","country":"JP"}}}`, http.StatusOK, true},
		{"number rejected", `{"shipping":123}`, http.StatusBadRequest, true},
		{"string rejected", `{"shipping":"abc"}`, http.StatusBadRequest, true},
		{"array rejected", `{"shipping":[]}`, http.StatusBadRequest, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := e.paidOrder(t, validShipping)

			w := e.admin("PATCH", "/api/admin/orders/"+o.ID, []byte(tt.body))
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode == http.StatusBadRequest {
				assert.Contains(t, w.Body.String(), "invalid_shipping")
			}

			got := e.order(t, o.ID)
			assert.Equal(t, tt.wantValid, got.ShippingJSON.Valid)
			if got.ShippingJSON.Valid {
				assert.True(t, json.Valid([]byte(got.ShippingJSON.String)))
				assert.Equal(t, byte('{'), got.ShippingJSON.String[0])
			}
		})
	}
}

func TestUpdateOrderShippingThenFulfill(t *testing.T) {
	e := setup(t, false)
	o := e.paidOrder(t, `{"name":"Taro","address":{"line1":"1-2-3","country":"JP"}}`)

	body := `{"shipping":{"name":"Taro","address":{"line1":"1-2-3","city":"Tokyo","country":"JP"}}}`
	require.Equal(t, http.StatusOK, e.admin("PATCH", "/api/admin/orders/"+o.ID, []byte(body)).Code)

	w := e.admin("POST", "/api/admin/orders/"+o.ID+"/fulfill", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SUBMITTED", decode[models.FulfillmentResponse](t, w).Status)
}

func TestStats(t *testing.T) {
	e := setup(t, false)
	e.paidOrder(t, validShipping)
	o := e.paidOrder(t, validShipping)
	require.Equal(t, http.StatusOK, e.admin("POST", "/api/admin/orders/"+o.ID+"/fulfill", nil).Code)

	w := e.admin("GET", "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.StatsResponse](t, w).Stats
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus["PAID"])
	assert.Equal(t, 1, stats.ByStatus["SUBMITTED"])
}

func TestFulfillOrder(t *testing.T) {
	e := setup(t, false)
	o := e.paidOrder(t, validShipping)
	path := "/api/admin/orders/" + o.ID + "/fulfill"

	e.provider.submitErr = errors.New("gelato unavailable")
	w := e.admin("POST", path, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	failed := decode[models.FulfillmentResponse](t, w)
	assert.False(t, failed.OK)
	assert.Equal(t, "FAILED", failed.Status)
	assert.Contains(t, failed.Error, "gelato unavailable")

	e.provider.submitErr = nil
	w = e.admin("POST", path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[models.FulfillmentResponse](t, w)
	assert.True(t, res.OK)
	assert.Equal(t, "gelato", res.Provider)
	assert.Equal(t, "ext-"+o.ID, res.ExternalOrderID)
	assert.Equal(t, "SUBMITTED", res.Status)

	w = e.admin("POST", path, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 2, e.provider.submitCount())
}

func TestFulfillOrderRejectsDraftAndBadShipping(t *testing.T) {
	e := setup(t, false)

	art, err := e.artworks.CreatePreview(context.Background(), "")
	require.NoError(t, err)
	draft, err := e.db.CreateOrder(context.Background(), "order-draft", art.ID)
	require.NoError(t, err)

	w := e.admin("POST", "/api/admin/orders/"+draft.ID+"/fulfill", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_status")

	noCity := e.paidOrder(t, `{"name":"Taro","address":{"line1":"1-2-3","country":"JP"}}`)
	w = e.admin("POST", "/api/admin/orders/"+noCity.ID+"/fulfill", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FAILED", decode[models.FulfillmentResponse](t, w).Status)
	assert.Equal(t, 0, e.provider.submitCount())

	assert.Equal(t, http.StatusNotFound, e.admin("POST", "/api/admin/orders/missing/fulfill", nil).Code)
}

func TestCancelOrder(t *testing.T) {
	e := setup(t, false)
	o := e.paidOrder(t, validShipping)
	require.Equal(t, http.StatusOK, e.admin("POST", "/api/admin/orders/"+o.ID+"/fulfill", nil).Code)

	w := e.admin("POST", "/api/admin/orders/"+o.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CANCELED", decode[models.OrderActionResponse](t, w).Order.Status)
	assert.Equal(t, 1, e.provider.cancels)

	w = e.admin("POST", "/api/admin/orders/"+o.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSyncOrder(t *testing.T) {
	e := setup(t, false)
	o := e.paidOrder(t, validShipping)

	w := e.admin("POST", "/api/admin/orders/"+o.ID+"/sync", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not_submitted")

	require.Equal(t, http.StatusOK, e.admin("POST", "/api/admin/orders/"+o.ID+"/fulfill", nil).Code)
	e.provider.status = "delivered"

	w = e.admin("POST", "/api/admin/orders/"+o.ID+"/sync", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[models.SyncResponse](t, w)
	assert.Equal(t, "delivered", res.NativeStatus)
	assert.Equal(t, "SHIPPED", res.Status)
	assert.True(t, res.Applied)
	assert.Equal(t, "SHIPPED", res.Order.Status)
}
