package models

import "encoding/json"

type CheckoutRequest struct {
	ArtworkID string `json:"artworkId"`
}

type PreviewRequest struct {
	// Optional seed; a fresh one is generated when empty.
	Seed string `json:"seed,omitempty"`
}

// OptionalJSON records whether a field was present in the body at all, so an
// explicit null can be told apart from an absent field.
type OptionalJSON struct {
	Set   bool
	Value json.RawMessage
}

func (o *OptionalJSON) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = append(json.RawMessage(nil), b...)
	return nil
}

// UpdateOrderRequest is the admin PATCH body. Absent fields are untouched and
// an empty string clears the column. shipping takes an object; null or ""
// clears it.
type UpdateOrderRequest struct {
	Status        *string      `json:"status,omitempty"`
	PODProvider   *string      `json:"pod_provider,omitempty"`
	PODOrderID    *string      `json:"pod_order_id,omitempty"`
	LastError     *string      `json:"last_error,omitempty"`
	CustomerEmail *string      `json:"customer_email,omitempty"`
	Shipping      OptionalJSON `json:"shipping"`
}

type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
