package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"artprint-backend/internal/blob"
	"artprint-backend/internal/config"
	"artprint-backend/internal/database"
	"artprint-backend/internal/handlers"
	"artprint-backend/internal/models"
	"artprint-backend/internal/payments"
	"artprint-backend/internal/pod"
	"artprint-backend/internal/services"
	"artprint-backend/internal/testutil"
)

const adminToken = "admin-token"

type fakeProvider struct {
	mu        sync.Mutex
	name      string
	submitErr error
	status    string
	submits   int
	cancels   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) SubmitOrder(_ context.Context, req pod.SubmitRequest) (pod.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.submitErr != nil {
		return pod.SubmitResult{}, f.submitErr
	}
	return pod.SubmitResult{ExternalOrderID: "ext-" + req.OrderID}, nil
}

func (f *fakeProvider) GetOrderStatus(_ context.Context, _ string) (string, error) {
	return f.status, nil
}

func (f *fakeProvider) CancelOrder(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return nil
}

func (f *fakeProvider) NormalizeStatus(native string) (models.OrderStatus, bool) {
	return pod.NormalizeStatus(f.name, native)
}

func (f *fakeProvider) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

type fakeSessions struct{}

func (fakeSessions) CreateCheckoutSession(_ context.Context, req payments.CheckoutSessionRequest) (payments.CheckoutSession, error) {
	return payments.CheckoutSession{ID: "cs_" + req.OrderID, URL: "https://checkout.example/" + req.OrderID}, nil
}

type testEnv struct {
	router   *gin.Engine
	db       *database.DatabaseClient
	cfg      *config.Config
	provider *fakeProvider
	artworks *services.ArtworkService
}

type envOption func(*config.Config)

func setup(t *testing.T, withPayments bool, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AppBaseURL:               "https://art.example.com",
		StripeWebhookSecret:      "whsec_test",
		CheckoutPriceAmount:      15000,
		CheckoutCurrency:         "jpy",
		CheckoutProductName:      "Framed art print",
		CheckoutAllowedCountries: []string{"JP"},
		PODProvider:              pod.ProviderGelato,
		PODCurrency:              "JPY",
		AdminToken:               adminToken,
		FulfillmentLease:         2 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db := testutil.SetupDatabaseClient(t)
	blobs, err := blob.NewBoltStore(filepath.Join(t.TempDir(), "blobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { blobs.Close() })

	logger := zap.NewNop()
	provider := &fakeProvider{name: cfg.PODProvider}
	artworks := services.NewArtworkService(db, blobs, logger)
	fulfillment := services.NewFulfillmentService(db, provider, cfg, logger)
	var sessions services.CheckoutSessionCreator
	if withPayments {
		sessions = fakeSessions{}
	}
	checkout := services.NewCheckoutService(db, sessions, fulfillment, cfg, logger)

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Artworks:    artworks,
		Checkout:    checkout,
		Fulfillment: fulfillment,
	})
	return &testEnv{router: router, db: db, cfg: cfg, provider: provider, artworks: artworks}
}

func (e *testEnv) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) admin(method, path string, body []byte) *httptest.ResponseRecorder {
	return e.do(method, path, body, map[string]string{"Authorization": "Bearer " + adminToken})
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// paidOrder creates an order on a fresh preview and marks it paid with the
// given shipping payload.
func (e *testEnv) paidOrder(t *testing.T, shipping string) *models.Order {
	t.Helper()
	ctx := context.Background()

	art, err := e.artworks.CreatePreview(ctx, "")
	require.NoError(t, err)
	o, err := e.db.CreateOrder(ctx, "order-"+art.ID[:8], art.ID)
	require.NoError(t, err)
	ok, err := e.db.MarkPaid(ctx, o.ID, "buyer@example.com", shipping, "cs_x")
	require.NoError(t, err)
	require.True(t, ok)
	return o
}

func (e *testEnv) order(t *testing.T, id string) *models.Order {
	t.Helper()
	o, err := e.db.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return o
}

const validShipping = `{"name":"Taro Yamada","address":{"line1":"1-2-3","city":"Tokyo","postal_code":"150","country":"JP"}}`
