package pod

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"artprint-backend/internal/models"
)

// WebhookEvent is a provider status notification in canonical form.
type WebhookEvent struct {
	Provider        string
	Event           string
	ExternalOrderID string
	// OrderReference is our order id as echoed back by the provider.
	OrderReference string
	NativeStatus   string
	Tracking       *models.Tracking
}

// ParseWebhook decodes a verified webhook body for the named provider.
func ParseWebhook(provider string, body []byte) (*WebhookEvent, error) {
	switch provider {
	case ProviderGelato:
		return ParseGelatoWebhook(body)
	case ProviderPrintful:
		return ParsePrintfulWebhook(body)
	default:
		return nil, fmt.Errorf("unknown pod provider %q", provider)
	}
}

// NormalizeStatus maps a native status reported by the named provider,
// independent of which adapter is configured for submissions.
func NormalizeStatus(provider, native string) (models.OrderStatus, bool) {
	switch provider {
	case ProviderGelato:
		return normalizeGelatoStatus(native)
	case ProviderPrintful:
		return normalizePrintfulStatus(native)
	}
	return "", false
}

type gelatoWebhook struct {
	Event string `json:"event"`
	Data  struct {
		OrderID          string `json:"orderId"`
		OrderReferenceID string `json:"orderReferenceId"`
		Status           string `json:"status"`
		Shipment         *struct {
			TrackingCode string `json:"trackingCode"`
			TrackingURL  string `json:"trackingUrl"`
			Carrier      string `json:"carrier"`
		} `json:"shipment"`
	} `json:"data"`
}

func ParseGelatoWebhook(body []byte) (*WebhookEvent, error) {
	var p gelatoWebhook
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode gelato webhook: %w", err)
	}

	status := p.Data.Status
	if status == "" {
		// order.shipped, order.cancelled, ...
		status = strings.TrimPrefix(p.Event, "order.")
	}

	ev := &WebhookEvent{
		Provider:        ProviderGelato,
		Event:           p.Event,
		ExternalOrderID: p.Data.OrderID,
		OrderReference:  p.Data.OrderReferenceID,
		NativeStatus:    status,
	}
	if s := p.Data.Shipment; s != nil {
		ev.Tracking = &models.Tracking{TrackingCode: s.TrackingCode, TrackingURL: s.TrackingURL, Carrier: s.Carrier}
	}
	return ev, nil
}

// flexibleID accepts a JSON number or string.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

type printfulWebhook struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			ID         flexibleID `json:"id"`
			ExternalID string     `json:"external_id"`
			Status     string     `json:"status"`
		} `json:"order"`
		Shipment *struct {
			TrackingNumber string `json:"tracking_number"`
			TrackingURL    string `json:"tracking_url"`
			Carrier        string `json:"carrier"`
		} `json:"shipment"`
	} `json:"data"`
}

func ParsePrintfulWebhook(body []byte) (*WebhookEvent, error) {
	var p printfulWebhook
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode printful webhook: %w", err)
	}

	status := p.Data.Order.Status
	if status == "" {
		switch p.Type {
		case "package_shipped":
			status = "fulfilled"
		case "order_canceled":
			status = "canceled"
		}
	}

	ev := &WebhookEvent{
		Provider:        ProviderPrintful,
		Event:           p.Type,
		ExternalOrderID: string(p.Data.Order.ID),
		OrderReference:  p.Data.Order.ExternalID,
		NativeStatus:    status,
	}
	if s := p.Data.Shipment; s != nil {
		ev.Tracking = &models.Tracking{TrackingCode: s.TrackingNumber, TrackingURL: s.TrackingURL, Carrier: s.Carrier}
	}
	return ev, nil
}
