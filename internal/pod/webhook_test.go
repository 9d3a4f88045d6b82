package pod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artprint-backend/internal/models"
)

func TestParseGelatoWebhookShipped(t *testing.T) {
	body := []byte(`{
		"event": "order.shipped",
		"data": {
			"orderId": "g-123",
			"orderReferenceId": "order-1",
			"status": "shipped",
			"shipment": {"trackingCode": "JP123", "trackingUrl": "https://t.example/JP123", "carrier": "Yamato"}
		}
	}`)

	ev, err := ParseWebhook(ProviderGelato, body)
	require.NoError(t, err)
	assert.Equal(t, "g-123", ev.ExternalOrderID)
	assert.Equal(t, "order-1", ev.OrderReference)
	assert.Equal(t, "shipped", ev.NativeStatus)
	require.NotNil(t, ev.Tracking)
	assert.Equal(t, "JP123", ev.Tracking.TrackingCode)
	assert.Equal(t, "Yamato", ev.Tracking.Carrier)
}

func TestParseGelatoWebhookStatusFromEvent(t *testing.T) {
	ev, err := ParseGelatoWebhook([]byte(`{"event":"order.cancelled","data":{"orderId":"g-1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "cancelled", ev.NativeStatus)
	assert.Nil(t, ev.Tracking)
}

func TestParsePrintfulWebhook(t *testing.T) {
	body := []byte(`{
		"type": "package_shipped",
		"data": {
			"order": {"id": 777, "external_id": "order-1", "status": "fulfilled"},
			"shipment": {"tracking_number": "1Z999", "tracking_url": "https://t.example/1Z999", "carrier": "UPS"}
		}
	}`)

	ev, err := ParseWebhook(ProviderPrintful, body)
	require.NoError(t, err)
	assert.Equal(t, "777", ev.ExternalOrderID)
	assert.Equal(t, "order-1", ev.OrderReference)
	assert.Equal(t, "fulfilled", ev.NativeStatus)
	require.NotNil(t, ev.Tracking)
	assert.Equal(t, "1Z999", ev.Tracking.TrackingCode)
}

func TestParsePrintfulWebhookStringIDAndDerivedStatus(t *testing.T) {
	ev, err := ParsePrintfulWebhook([]byte(`{"type":"order_canceled","data":{"order":{"id":"778"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "778", ev.ExternalOrderID)
	assert.Equal(t, "canceled", ev.NativeStatus)
}

func TestParseWebhookErrors(t *testing.T) {
	_, err := ParseWebhook(ProviderGelato, []byte(`not json`))
	assert.Error(t, err)

	_, err = ParseWebhook("prodigi", []byte(`{}`))
	assert.Error(t, err)
}

func TestNormalizeStatusByProvider(t *testing.T) {
	got, ok := NormalizeStatus(ProviderGelato, "delivered")
	assert.True(t, ok)
	assert.Equal(t, models.OrderStatusShipped, got)

	got, ok = NormalizeStatus(ProviderPrintful, "fulfilled")
	assert.True(t, ok)
	assert.Equal(t, models.OrderStatusShipped, got)

	_, ok = NormalizeStatus(ProviderManual, "shipped")
	assert.False(t, ok)
}
