// Package pod submits paid orders to print-on-demand providers and decodes
// their status webhooks.
package pod

import (
	"context"
	"fmt"
	"strings"

	"artprint-backend/internal/config"
	"artprint-backend/internal/models"
)

const (
	ProviderManual   = "manual"
	ProviderGelato   = "gelato"
	ProviderPrintful = "printful"
)

type Recipient struct {
	Name       string
	Email      string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// SubmitRequest is the provider-neutral order handed to an adapter.
type SubmitRequest struct {
	OrderID    string
	ArtworkURL string
	ProductID  string
	Quantity   int
	Currency   string
	Recipient  Recipient
}

type SubmitResult struct {
	ExternalOrderID string
	Status          string
}

type Provider interface {
	Name() string
	SubmitOrder(ctx context.Context, req SubmitRequest) (SubmitResult, error)
	GetOrderStatus(ctx context.Context, externalID string) (string, error)
	CancelOrder(ctx context.Context, externalID string) error
	// NormalizeStatus maps a provider status to a ledger status. Unknown
	// statuses return false and must be ignored by callers.
	NormalizeStatus(native string) (models.OrderStatus, bool)
}

// ProviderError is a non-2xx answer from a provider API.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s api error: status %d, body: %s", e.Provider, e.Status, e.Body)
}

// New returns the adapter selected by POD_PROVIDER.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.PODProvider {
	case "", ProviderManual:
		return NewManual(), nil
	case ProviderGelato:
		return NewGelatoClient(cfg.PODAPIBaseURL, cfg.PODAPIKey), nil
	case ProviderPrintful:
		return NewPrintfulClient(cfg.PODAPIBaseURL, cfg.PODAPIKey, cfg.PODStoreID), nil
	default:
		return nil, fmt.Errorf("unknown pod provider %q", cfg.PODProvider)
	}
}

// DefaultProductID is the product ordered when POD_PRODUCT_ID is unset.
// Printful has no portable default; its variant ids are store specific.
func DefaultProductID(provider string) string {
	if provider == ProviderGelato {
		return gelatoDefaultProduct
	}
	return ""
}

// SplitName splits a single full-name field into first and last names at the
// first space. A single token is used for both. This is an approximation;
// the payment provider collects one free-form name.
func SplitName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "Customer", "Customer"
	case 1:
		return fields[0], fields[0]
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
