// Package payments creates hosted checkout sessions and decodes payment
// events.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// ErrNotConfigured is returned when no Stripe secret key is set.
var ErrNotConfigured = errors.New("stripe: not configured")

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type CheckoutSessionRequest struct {
	OrderID          string
	ArtworkID        string
	Amount           int64
	Currency         string
	ProductName      string
	SuccessURL       string
	CancelURL        string
	AllowedCountries []string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type StripeProviderConfig struct {
	APIKey   string
	Backends *stripe.Backends
	// Sessions overrides the session API. Tests inject a fake.
	Sessions stripeSessionAPI
}

type StripeProvider struct {
	sessions stripeSessionAPI
}

func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	if cfg.Sessions != nil {
		return &StripeProvider{sessions: cfg.Sessions}, nil
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	sc := client.New(apiKey, cfg.Backends)
	return &StripeProvider{sessions: sc.CheckoutSessions}, nil
}

// CreateCheckoutSession opens a one-item payment session that collects a
// shipping address. The order id travels in metadata and as the client
// reference so the completion webhook can find the order.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		Metadata: map[string]string{
			"orderId":   req.OrderID,
			"artworkId": req.ArtworkID,
		},
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(req.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ProductName),
				},
			},
		}},
	}
	params.Context = ctx
	params.SetIdempotencyKey("checkout-" + req.OrderID)

	if len(req.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		}
	}
	params.PhoneNumberCollection = &stripe.CheckoutSessionPhoneNumberCollectionParams{
		Enabled: stripe.Bool(true),
	}

	session, err := p.sessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	if session.URL == "" {
		return CheckoutSession{}, errors.New("stripe: checkout session has no url")
	}
	return CheckoutSession{ID: session.ID, URL: session.URL}, nil
}
