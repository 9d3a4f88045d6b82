package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"artprint-backend/internal/apperr"
	"artprint-backend/internal/config"
	"artprint-backend/internal/database"
	"artprint-backend/internal/models"
	"artprint-backend/internal/observability"
	"artprint-backend/internal/services"
)

const (
	defaultOrderLimit = 50
	maxOrderLimit     = 200
)

// OrdersHandler serves the admin order API.
type OrdersHandler struct {
	dbClient    *database.DatabaseClient
	fulfillment *services.FulfillmentService
	config      *config.Config
	logger      *zap.Logger
}

func NewOrdersHandler(dbClient *database.DatabaseClient, fulfillment *services.FulfillmentService, cfg *config.Config, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		dbClient:    dbClient,
		fulfillment: fulfillment,
		config:      cfg,
		logger:      logger,
	}
}

// ListOrders godoc
// @Summary     List orders
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       status query string false "DRAFT, PAID, SUBMITTED, SHIPPED, CANCELED or FAILED"
// @Param       limit  query int    false "Max results (default 50, max 200)"
// @Param       offset query int    false "Pagination offset"
// @Success     200 {object} models.OrderListResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /api/admin/orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	filter := models.OrderFilter{Limit: defaultOrderLimit}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, ok := models.ParseOrderStatus(strings.ToUpper(raw))
		if !ok {
			errorJSON(c, http.StatusBadRequest, "invalid_status", "unknown status: "+raw)
			return
		}
		filter.Status = &status
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		filter.Limit = min(n, maxOrderLimit)
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		filter.Offset = n
	}

	orders, total, err := h.dbClient.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, apperr.Internal("list_orders_failed", err))
		return
	}

	resp := models.OrderListResponse{
		OK:         true,
		Orders:     make([]models.OrderResponse, 0, len(orders)),
		Pagination: models.Pagination{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	}
	for i := range orders {
		resp.Orders = append(resp.Orders, models.NewOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetOrder godoc
// @Summary     Get an order with its artwork
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID"
// @Success     200 {object} models.OrderDetailResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/admin/orders/{id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	ctx := c.Request.Context()
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}

	resp := models.OrderDetailResponse{OK: true, Order: models.NewOrderResponse(order)}
	art, err := h.dbClient.GetArtwork(ctx, order.ArtworkID)
	switch {
	case err == nil:
		ar := models.NewArtworkResponse(art)
		url := h.config.AppBaseURL + ar.AssetPath
		resp.Artwork = &ar
		resp.ArtworkURL = &url
	case !errors.Is(err, database.ErrNotFound):
		respondError(c, h.logger, apperr.Internal("artwork_lookup_failed", err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateOrder godoc
// @Summary     Patch order fields
// @Description Manual corrections. Absent fields are untouched; an empty string clears a field. shipping must be an object, or null to clear it.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id      path string                     true "Order ID"
// @Param       request body models.UpdateOrderRequest  true "Fields to change"
// @Success     200 {object} models.UpdateOrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/admin/orders/{id} [patch]
func (h *OrdersHandler) UpdateOrder(c *gin.Context) {
	var req models.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	if _, ok := h.loadOrder(c); !ok {
		return
	}

	patch := models.OrderPatch{
		PODProvider:   req.PODProvider,
		PODOrderID:    req.PODOrderID,
		LastError:     req.LastError,
		CustomerEmail: req.CustomerEmail,
	}
	if req.Status != nil {
		status, ok := models.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		if !ok {
			errorJSON(c, http.StatusBadRequest, "invalid_status", "unknown status: "+*req.Status)
			return
		}
		patch.Status = &status
	}
	if req.Shipping.Set {
		shipping, ok := shippingPatch(req.Shipping.Value)
		if !ok {
			errorJSON(c, http.StatusBadRequest, "invalid_shipping", "shipping must be an object, null or an empty string")
			return
		}
		patch.ShippingJSON = &shipping
	}
	if patch.Empty() {
		errorJSON(c, http.StatusBadRequest, "no_updates", "No fields to update")
		return
	}

	order, previous, err := h.dbClient.PatchOrder(c.Request.Context(), c.Param("id"), patch)
	if errors.Is(err, database.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "not_found", "Order not found")
		return
	}
	if err != nil {
		respondError(c, h.logger, apperr.Internal("update_order_failed", err))
		return
	}

	observability.FromContext(c, h.logger).Info("order patched",
		zap.String("order_id", order.ID),
		zap.String("previous_status", string(previous)),
		zap.String("status", string(order.Status)))
	c.JSON(http.StatusOK, models.UpdateOrderResponse{
		OK:             true,
		Order:          models.NewOrderResponse(order),
		PreviousStatus: string(previous),
	})
}

// GetStats godoc
// @Summary     Order counts by status
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.StatsResponse
// @Router      /api/admin/stats [get]
func (h *OrdersHandler) GetStats(c *gin.Context) {
	counts, err := h.dbClient.CountOrdersByStatus(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, apperr.Internal("stats_failed", err))
		return
	}

	stats := models.Stats{ByStatus: make(map[string]int, len(counts))}
	for status, n := range counts {
		stats.ByStatus[string(status)] = n
		stats.Total += n
	}
	c.JSON(http.StatusOK, models.StatsResponse{OK: true, Stats: stats})
}

// FulfillOrder godoc
// @Summary     Retry fulfillment
// @Description Submits a PAID or FAILED order to the configured provider.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID"
// @Success     200 {object} models.FulfillmentResponse
// @Failure     400 {object} models.FulfillmentResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     502 {object} models.FulfillmentResponse
// @Router      /api/admin/orders/{id}/fulfill [post]
func (h *OrdersHandler) FulfillOrder(c *gin.Context) {
	ctx := c.Request.Context()
	order, ok := h.loadOrder(c)
	if !ok {
		return
	}
	if !order.Status.Retryable() {
		errorJSON(c, http.StatusConflict, "invalid_status",
			"order must be PAID or FAILED to fulfill, current status: "+string(order.Status))
		return
	}

	res, err := h.fulfillment.Fulfill(ctx, order.ID)
	if apperr.Is(err, apperr.KindConflict) || apperr.Is(err, apperr.KindNotFound) || apperr.Is(err, apperr.KindInternal) {
		respondError(c, h.logger, err)
		return
	}

	resp := models.FulfillmentResponse{
		OK:              err == nil && res.Success,
		Provider:        res.Provider,
		ExternalOrderID: res.ExternalOrderID,
		Error:           res.Error,
	}
	if current, gerr := h.dbClient.GetOrder(ctx, order.ID); gerr == nil {
		resp.Status = string(current.Status)
	}
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CancelOrder godoc
// @Summary     Cancel an order
// @Description Cancels at the provider when submitted, then in the ledger.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID"
// @Success     200 {object} models.OrderActionResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /api/admin/orders/{id}/cancel [post]
func (h *OrdersHandler) CancelOrder(c *gin.Context) {
	order, err := h.fulfillment.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.OrderActionResponse{OK: true, Order: models.NewOrderResponse(order)})
}

// SyncOrder godoc
// @Summary     Poll provider status
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       id path string true "Order ID"
// @Success     200 {object} models.SyncResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /api/admin/orders/{id}/sync [post]
func (h *OrdersHandler) SyncOrder(c *gin.Context) {
	res, err := h.fulfillment.Sync(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SyncResponse{
		OK:           true,
		NativeStatus: res.NativeStatus,
		Status:       string(res.Status),
		Applied:      res.Applied,
		Order:        models.NewOrderResponse(res.Order),
	})
}

// shippingPatch returns the column value for a PATCH shipping field. null and
// "" clear it; anything other than an object is rejected.
func shippingPatch(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(raw, []byte("null")), bytes.Equal(raw, []byte(`""`)):
		return "", true
	case len(raw) > 0 && raw[0] == '{' && json.Valid(raw):
		return string(raw), true
	}
	return "", false
}

func (h *OrdersHandler) loadOrder(c *gin.Context) (*models.Order, bool) {
	order, err := h.dbClient.GetOrder(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "not_found", "Order not found")
		return nil, false
	}
	if err != nil {
		respondError(c, h.logger, apperr.Internal("order_lookup_failed", err))
		return nil, false
	}
	return order, true
}
