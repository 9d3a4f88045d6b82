package pod

import (
	"context"
	"errors"

	"artprint-backend/internal/models"
)

// ErrManualProvider is returned for operations that need a real provider.
var ErrManualProvider = errors.New("manual provider has no remote orders")

// Manual leaves fulfillment to an operator. Submissions succeed without an
// external order.
type Manual struct{}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Name() string { return ProviderManual }

func (m *Manual) SubmitOrder(_ context.Context, _ SubmitRequest) (SubmitResult, error) {
	return SubmitResult{}, nil
}

func (m *Manual) GetOrderStatus(_ context.Context, _ string) (string, error) {
	return "", ErrManualProvider
}

func (m *Manual) CancelOrder(_ context.Context, _ string) error {
	return nil
}

func (m *Manual) NormalizeStatus(_ string) (models.OrderStatus, bool) {
	return "", false
}
