package payments

import (
	"encoding/json"
	"fmt"

	"artprint-backend/internal/models"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

// Event is the subset of the Stripe event envelope this service reads.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type stripeShipping struct {
	Name    string         `json:"name"`
	Phone   string         `json:"phone"`
	Address *stripeAddress `json:"address"`
}

type checkoutSessionObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
	CustomerDetails   *struct {
		Email   string         `json:"email"`
		Phone   string         `json:"phone"`
		Name    string         `json:"name"`
		Address *stripeAddress `json:"address"`
	} `json:"customer_details"`
	ShippingDetails      *stripeShipping `json:"shipping_details"`
	CollectedInformation *struct {
		ShippingDetails *stripeShipping `json:"shipping_details"`
	} `json:"collected_information"`
}

// CompletedCheckout is a paid checkout session reduced to what the ledger
// records.
type CompletedCheckout struct {
	SessionID     string
	OrderID       string
	CustomerEmail string
	Shipping      *models.ShippingAddress
}

func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode stripe event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("stripe event has no type")
	}
	return &ev, nil
}

// ParseCompletedCheckout extracts buyer details from a
// checkout.session.completed payload. Shipping is read from shipping_details
// or, on newer API versions, collected_information.shipping_details.
func ParseCompletedCheckout(ev *Event) (*CompletedCheckout, error) {
	var s checkoutSessionObject
	if err := json.Unmarshal(ev.Data.Object, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	out := &CompletedCheckout{
		SessionID: s.ID,
		OrderID:   s.Metadata["orderId"],
	}
	if out.OrderID == "" {
		out.OrderID = s.ClientReferenceID
	}

	shipping := s.ShippingDetails
	if shipping == nil && s.CollectedInformation != nil {
		shipping = s.CollectedInformation.ShippingDetails
	}

	var phone string
	if cd := s.CustomerDetails; cd != nil {
		out.CustomerEmail = cd.Email
		phone = cd.Phone
	}

	if shipping != nil {
		addr := models.ShippingAddress{Name: shipping.Name, Phone: shipping.Phone}
		if addr.Phone == "" {
			addr.Phone = phone
		}
		if a := shipping.Address; a != nil {
			addr.Address = models.ShippingDetails{
				Line1:      a.Line1,
				Line2:      a.Line2,
				City:       a.City,
				State:      a.State,
				PostalCode: a.PostalCode,
				Country:    a.Country,
			}
		}
		out.Shipping = &addr
	}
	return out, nil
}
