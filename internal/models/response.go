package models

import (
	"encoding/json"
	"time"
)

type ArtworkResponse struct {
	ArtworkID  string    `json:"artworkId"`
	SnapshotID string    `json:"snapshotId"`
	Kind       string    `json:"kind"`
	AssetPath  string    `json:"assetPath"`
	Mime       string    `json:"mime"`
	CreatedAt  time.Time `json:"createdAt"`
	WidthMM    int       `json:"widthMm"`
	HeightMM   int       `json:"heightMm"`
}

type SampleResponse struct {
	OK     bool            `json:"ok"`
	Sample ArtworkResponse `json:"sample"`
}

type PreviewResponse struct {
	OK      bool            `json:"ok"`
	Preview ArtworkResponse `json:"preview"`
}

type CheckoutResponse struct {
	OK          bool   `json:"ok"`
	OrderID     string `json:"orderId"`
	CheckoutURL string `json:"checkoutUrl"`
}

type OrderResponse struct {
	ID               string          `json:"id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Status           string          `json:"status"`
	ArtworkID        string          `json:"artwork_id"`
	PaymentSessionID string          `json:"payment_session_id,omitempty"`
	CustomerEmail    string          `json:"customer_email,omitempty"`
	Shipping         json.RawMessage `json:"shipping,omitempty"`
	PODProvider      string          `json:"pod_provider,omitempty"`
	PODOrderID       string          `json:"pod_order_id,omitempty"`
	Tracking         json.RawMessage `json:"tracking,omitempty"`
	LastError        string          `json:"last_error,omitempty"`
}

type OrderListResponse struct {
	OK         bool            `json:"ok"`
	Orders     []OrderResponse `json:"orders"`
	Pagination Pagination      `json:"pagination"`
}

type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type OrderDetailResponse struct {
	OK         bool             `json:"ok"`
	Order      OrderResponse    `json:"order"`
	Artwork    *ArtworkResponse `json:"artwork"`
	ArtworkURL *string          `json:"artworkUrl"`
}

type UpdateOrderResponse struct {
	OK             bool          `json:"ok"`
	Order          OrderResponse `json:"order"`
	PreviousStatus string        `json:"previousStatus"`
}

type FulfillmentResponse struct {
	OK              bool   `json:"ok"`
	Provider        string `json:"provider"`
	ExternalOrderID string `json:"externalOrderId,omitempty"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
}

type StatsResponse struct {
	OK    bool  `json:"ok"`
	Stats Stats `json:"stats"`
}

type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Now    string `json:"now,omitempty"`
}

func NewOrderResponse(o *Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		Status:           string(o.Status),
		ArtworkID:        o.ArtworkID,
		PaymentSessionID: o.PaymentSessionID.String,
		CustomerEmail:    o.CustomerEmail.String,
		PODProvider:      o.PODProvider.String,
		PODOrderID:       o.PODOrderID.String,
		LastError:        o.LastError.String,
	}
	if o.ShippingJSON.Valid && json.Valid([]byte(o.ShippingJSON.String)) {
		resp.Shipping = json.RawMessage(o.ShippingJSON.String)
	}
	if o.TrackingJSON.Valid && json.Valid([]byte(o.TrackingJSON.String)) {
		resp.Tracking = json.RawMessage(o.TrackingJSON.String)
	}
	return resp
}

func NewArtworkResponse(a *Artwork) ArtworkResponse {
	return ArtworkResponse{
		ArtworkID:  a.ID,
		SnapshotID: a.SnapshotID,
		Kind:       string(a.Kind),
		AssetPath:  "/art/" + a.StorageKey,
		Mime:       a.Mime,
		CreatedAt:  a.CreatedAt,
		WidthMM:    a.WidthMM,
		HeightMM:   a.HeightMM,
	}
}

type OrderActionResponse struct {
	OK    bool          `json:"ok"`
	Order OrderResponse `json:"order"`
}

type SyncResponse struct {
	OK           bool          `json:"ok"`
	NativeStatus string        `json:"nativeStatus"`
	Status       string        `json:"status,omitempty"`
	Applied      bool          `json:"applied"`
	Order        OrderResponse `json:"order"`
}

type WebhookAck struct {
	OK      bool  `json:"ok"`
	Updated int64 `json:"updated,omitempty"`
}
