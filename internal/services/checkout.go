package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"artprint-backend/internal/apperr"
	"artprint-backend/internal/config"
	"artprint-backend/internal/database"
	"artprint-backend/internal/models"
	"artprint-backend/internal/payments"
)

// CheckoutSessionCreator opens hosted payment sessions.
type CheckoutSessionCreator interface {
	CreateCheckoutSession(ctx context.Context, req payments.CheckoutSessionRequest) (payments.CheckoutSession, error)
}

type CheckoutService struct {
	db          *database.DatabaseClient
	sessions    CheckoutSessionCreator
	fulfillment *FulfillmentService
	cfg         *config.Config
	logger      *zap.Logger
}

// NewCheckoutService wires checkout. sessions may be nil when payments are
// not configured; CreateCheckout then fails with a validation error.
func NewCheckoutService(db *database.DatabaseClient, sessions CheckoutSessionCreator, fulfillment *FulfillmentService, cfg *config.Config, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		db:          db,
		sessions:    sessions,
		fulfillment: fulfillment,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *CheckoutService) Enabled() bool {
	return s.sessions != nil
}

// CreateCheckout opens a DRAFT order for the artwork and a payment session
// for it.
func (s *CheckoutService) CreateCheckout(ctx context.Context, artworkID string) (*models.Order, string, error) {
	if !s.Enabled() {
		return nil, "", apperr.Validation("stripe_not_configured", "payments are not configured")
	}
	artworkID = strings.TrimSpace(artworkID)
	if artworkID == "" {
		return nil, "", apperr.Validation("missing_artworkId", "artworkId is required")
	}

	if _, err := s.db.GetArtwork(ctx, artworkID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, "", apperr.NotFound("artwork_not_found", "artwork not found")
		}
		return nil, "", apperr.Internal("artwork_lookup_failed", err)
	}

	order, err := s.db.CreateOrder(ctx, uuid.NewString(), artworkID)
	if err != nil {
		return nil, "", apperr.Internal("order_create_failed", err)
	}

	session, err := s.sessions.CreateCheckoutSession(ctx, payments.CheckoutSessionRequest{
		OrderID:          order.ID,
		ArtworkID:        artworkID,
		Amount:           s.cfg.CheckoutPriceAmount,
		Currency:         s.cfg.CheckoutCurrency,
		ProductName:      s.cfg.CheckoutProductName,
		SuccessURL:       s.cfg.AppBaseURL + "/success.html?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        s.cfg.AppBaseURL + "/cancel.html",
		AllowedCountries: s.cfg.CheckoutAllowedCountries,
	})
	if err != nil {
		return nil, "", apperr.Provider("stripe_error", err)
	}

	if err := s.db.SetPaymentSession(ctx, order.ID, session.ID); err != nil {
		return nil, "", apperr.Internal("order_update_failed", err)
	}
	order.PaymentSessionID.String, order.PaymentSessionID.Valid = session.ID, true

	s.logger.Info("checkout session created",
		zap.String("order_id", order.ID), zap.String("artwork_id", artworkID))
	return order, session.URL, nil
}

// HandleCheckoutCompleted records payment and starts fulfillment. Duplicate
// or late deliveries change nothing and do not trigger fulfillment. The
// returned bool reports whether the order moved to PAID.
func (s *CheckoutService) HandleCheckoutCompleted(ctx context.Context, c *payments.CompletedCheckout) (bool, error) {
	logger := s.logger.With(zap.String("order_id", c.OrderID), zap.String("session_id", c.SessionID))
	if c.OrderID == "" {
		logger.Warn("checkout session has no order id, ignoring")
		return false, nil
	}

	var shipping string
	if c.Shipping != nil {
		b, err := json.Marshal(c.Shipping)
		if err != nil {
			return false, apperr.Internal("shipping_encode_failed", err)
		}
		shipping = string(b)
	}

	paid, err := s.db.MarkPaid(ctx, c.OrderID, c.CustomerEmail, shipping, c.SessionID)
	if err != nil {
		return false, apperr.Internal("mark_paid_failed", err)
	}
	if !paid {
		logger.Info("order not in DRAFT, ignoring duplicate payment event")
		return false, nil
	}
	logger.Info("order paid")

	res, err := s.fulfillment.Fulfill(ctx, c.OrderID)
	switch {
	case apperr.Is(err, apperr.KindConflict):
		logger.Info("fulfillment already in progress")
	case err != nil:
		logger.Warn("fulfillment failed", zap.Error(err), zap.String("provider", res.Provider))
	}
	return true, nil
}
