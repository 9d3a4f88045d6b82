package models

import (
	"database/sql"
	"time"
)

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// OrderStatuses lists every ledger status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusPaid,
	OrderStatusSubmitted,
	OrderStatusShipped,
	OrderStatusCanceled,
	OrderStatusFailed,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Retryable reports whether a fulfillment attempt may start from this status.
func (s OrderStatus) Retryable() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

type Order struct {
	ID               string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Status           OrderStatus
	ArtworkID        string
	PaymentSessionID sql.NullString
	CustomerEmail    sql.NullString
	ShippingJSON     sql.NullString
	PODProvider      sql.NullString
	PODOrderID       sql.NullString
	TrackingJSON     sql.NullString
	LastError        sql.NullString
}

// ShippingAddress is the shipping payload captured from the payment provider.
type ShippingAddress struct {
	Name    string          `json:"name,omitempty"`
	Phone   string          `json:"phone,omitempty"`
	Address ShippingDetails `json:"address"`
}

type ShippingDetails struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Tracking is the shipment information reported by a POD provider.
type Tracking struct {
	TrackingCode string `json:"trackingCode,omitempty"`
	TrackingURL  string `json:"trackingUrl,omitempty"`
	Carrier      string `json:"carrier,omitempty"`
}

// OrderPatch carries admin edits. Nil fields are left untouched; an empty
// string clears the column.
type OrderPatch struct {
	Status        *OrderStatus
	PODProvider   *string
	PODOrderID    *string
	LastError     *string
	CustomerEmail *string
	ShippingJSON  *string
}

func (p OrderPatch) Empty() bool {
	return p.Status == nil && p.PODProvider == nil && p.PODOrderID == nil &&
		p.LastError == nil && p.CustomerEmail == nil && p.ShippingJSON == nil
}

type OrderFilter struct {
	Status *OrderStatus
	Limit  int
	Offset int
}
