package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"artprint-backend/internal/blob"
	"artprint-backend/internal/config"
	"artprint-backend/internal/database"
	"artprint-backend/internal/models"
	"artprint-backend/internal/payments"
	"artprint-backend/internal/pod"
	"artprint-backend/internal/testutil"
)

type fakeProvider struct {
	mu         sync.Mutex
	name       string
	submitErr  error
	externalID string
	status     string
	submits    []pod.SubmitRequest
	cancels    []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) SubmitOrder(_ context.Context, req pod.SubmitRequest) (pod.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, req)
	if f.submitErr != nil {
		return pod.SubmitResult{}, f.submitErr
	}
	return pod.SubmitResult{ExternalOrderID: f.externalID, Status: "created"}, nil
}

func (f *fakeProvider) GetOrderStatus(_ context.Context, _ string) (string, error) {
	return f.status, nil
}

func (f *fakeProvider) CancelOrder(_ context.Context, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, externalID)
	return nil
}

func (f *fakeProvider) NormalizeStatus(native string) (models.OrderStatus, bool) {
	return pod.NormalizeStatus(f.name, native)
}

func (f *fakeProvider) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

type fakeSessions struct {
	requests []payments.CheckoutSessionRequest
	err      error
}

func (f *fakeSessions) CreateCheckoutSession(_ context.Context, req payments.CheckoutSessionRequest) (payments.CheckoutSession, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return payments.CheckoutSession{}, f.err
	}
	return payments.CheckoutSession{ID: "cs_" + req.OrderID, URL: "https://checkout.example/" + req.OrderID}, nil
}

type fixture struct {
	db          *database.DatabaseClient
	blobs       *blob.BoltStore
	cfg         *config.Config
	provider    *fakeProvider
	artworks    *ArtworkService
	fulfillment *FulfillmentService
}

func testConfig() *config.Config {
	return &config.Config{
		AppBaseURL:               "https://art.example.com",
		CheckoutPriceAmount:      15000,
		CheckoutCurrency:         "jpy",
		CheckoutProductName:      "Framed art print",
		CheckoutAllowedCountries: []string{"JP"},
		PODCurrency:              "JPY",
		FulfillmentLease:         2 * time.Minute,
	}
}

func newFixture(t *testing.T, providerName string) *fixture {
	t.Helper()

	db := testutil.SetupDatabaseClient(t)
	blobs, err := blob.NewBoltStore(filepath.Join(t.TempDir(), "blobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { blobs.Close() })

	cfg := testConfig()
	provider := &fakeProvider{name: providerName, externalID: "ext-1"}
	logger := zap.NewNop()
	return &fixture{
		db:          db,
		blobs:       blobs,
		cfg:         cfg,
		provider:    provider,
		artworks:    NewArtworkService(db, blobs, logger),
		fulfillment: NewFulfillmentService(db, provider, cfg, logger),
	}
}

const validShipping = `{"name":"Taro Yamada","phone":"+81-90","address":{"line1":"1-2-3 Shibuya","city":"Tokyo","postal_code":"150-0002","country":"JP"}}`

// paidOrder creates an order for a fresh preview and marks it paid.
func (f *fixture) paidOrder(t *testing.T, shipping string) *models.Order {
	t.Helper()
	ctx := context.Background()

	art, err := f.artworks.CreatePreview(ctx, "")
	require.NoError(t, err)
	o, err := f.db.CreateOrder(ctx, "order-"+art.ID, art.ID)
	require.NoError(t, err)
	ok, err := f.db.MarkPaid(ctx, o.ID, "buyer@example.com", shipping, "cs_1")
	require.NoError(t, err)
	require.True(t, ok)

	o, err = f.db.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	return o
}

func (f *fixture) reload(t *testing.T, id string) *models.Order {
	t.Helper()
	o, err := f.db.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return o
}
