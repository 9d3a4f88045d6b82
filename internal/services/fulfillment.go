package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"artprint-backend/internal/apperr"
	"artprint-backend/internal/config"
	"artprint-backend/internal/database"
	"artprint-backend/internal/models"
	"artprint-backend/internal/pod"
)

// Result reports the outcome of one fulfillment attempt.
type Result struct {
	Success         bool
	Provider        string
	ExternalOrderID string
	Error           string
}

// SyncResult reports what a provider said about an order and what changed.
type SyncResult struct {
	NativeStatus string
	Status       models.OrderStatus
	Applied      bool
	Order        *models.Order
}

type FulfillmentService struct {
	db       *database.DatabaseClient
	provider pod.Provider
	cfg      *config.Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewFulfillmentService(db *database.DatabaseClient, provider pod.Provider, cfg *config.Config, logger *zap.Logger) *FulfillmentService {
	return &FulfillmentService{
		db:       db,
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *FulfillmentService) ProviderName() string {
	return s.provider.Name()
}

// Fulfill submits a PAID or FAILED order to the configured provider. Only one
// attempt per order runs at a time; a concurrent caller gets a Conflict error.
func (s *FulfillmentService) Fulfill(ctx context.Context, orderID string) (Result, error) {
	providerName := s.provider.Name()
	logger := s.logger.With(zap.String("order_id", orderID), zap.String("provider", providerName))

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return Result{Provider: providerName, Error: apperr.PublicMessage(err)}, err
	}
	art, err := s.db.GetArtwork(ctx, order.ArtworkID)
	if errors.Is(err, database.ErrNotFound) {
		err = apperr.NotFound("artwork_not_found", "artwork not found")
		return Result{Provider: providerName, Error: "artwork not found"}, err
	}
	if err != nil {
		return Result{Provider: providerName}, apperr.Internal("artwork_lookup_failed", err)
	}

	token := uuid.NewString()
	staleBefore := s.now().Add(-s.cfg.FulfillmentLease)
	claimed, err := s.db.ClaimFulfillment(ctx, orderID, token, staleBefore)
	if err != nil {
		return Result{Provider: providerName}, apperr.Internal("claim_failed", err)
	}
	if !claimed {
		msg := fmt.Sprintf("order %s is %s or already being fulfilled", orderID, order.Status)
		return Result{Provider: providerName, Error: msg}, apperr.Conflict("fulfillment_in_progress", msg)
	}

	if providerName == pod.ProviderManual {
		if _, err := s.db.ReleaseClaim(ctx, orderID, token, providerName); err != nil {
			return Result{Provider: providerName}, apperr.Internal("release_claim_failed", err)
		}
		logger.Info("manual provider, leaving order for an operator")
		return Result{Success: true, Provider: providerName}, nil
	}

	req, err := s.buildSubmitRequest(order, art)
	if err != nil {
		if _, ferr := s.db.FailSubmission(ctx, orderID, token, providerName, err.Error()); ferr != nil {
			logger.Error("failed to record invalid shipping", zap.Error(ferr))
		}
		logger.Warn("order has no usable shipping address", zap.Error(err))
		return Result{Provider: providerName, Error: err.Error()},
			apperr.Validation("invalid_shipping_address", err.Error())
	}

	submitted, err := s.provider.SubmitOrder(ctx, req)
	if err != nil {
		ok, ferr := s.db.FailSubmission(ctx, orderID, token, providerName, err.Error())
		if ferr != nil {
			logger.Error("failed to record submission failure", zap.Error(ferr))
		} else if !ok {
			logger.Warn("order changed during submission, failure not recorded")
		}
		logger.Error("provider rejected order", zap.Error(err))
		return Result{Provider: providerName, Error: err.Error()}, apperr.Provider("provider_error", err)
	}

	ok, err := s.db.CompleteSubmission(ctx, orderID, token, providerName, submitted.ExternalOrderID)
	if err != nil {
		return Result{Provider: providerName, ExternalOrderID: submitted.ExternalOrderID},
			apperr.Internal("complete_submission_failed", err)
	}
	if !ok {
		logger.Warn("order changed during submission, abandoning write",
			zap.String("external_order_id", submitted.ExternalOrderID))
	} else {
		logger.Info("order submitted", zap.String("external_order_id", submitted.ExternalOrderID))
	}
	return Result{Success: true, Provider: providerName, ExternalOrderID: submitted.ExternalOrderID}, nil
}

func (s *FulfillmentService) buildSubmitRequest(order *models.Order, art *models.Artwork) (pod.SubmitRequest, error) {
	var ship models.ShippingAddress
	if order.ShippingJSON.Valid && order.ShippingJSON.String != "" {
		if err := json.Unmarshal([]byte(order.ShippingJSON.String), &ship); err != nil {
			return pod.SubmitRequest{}, fmt.Errorf("invalid shipping data: %w", err)
		}
	}
	a := ship.Address
	if a.Line1 == "" || a.City == "" || a.Country == "" {
		return pod.SubmitRequest{}, errors.New("incomplete shipping address: line1, city and country are required")
	}

	productID := s.cfg.PODProductID
	if productID == "" {
		productID = pod.DefaultProductID(s.provider.Name())
	}

	return pod.SubmitRequest{
		OrderID:    order.ID,
		ArtworkURL: s.cfg.AppBaseURL + "/art/" + art.StorageKey,
		ProductID:  productID,
		Quantity:   1,
		Currency:   s.cfg.PODCurrency,
		Recipient: pod.Recipient{
			Name:       ship.Name,
			Email:      order.CustomerEmail.String,
			Phone:      ship.Phone,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		},
	}, nil
}

// Cancel cancels a PAID or SUBMITTED order, first at the provider when it
// has already been submitted there.
func (s *FulfillmentService) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPaid && order.Status != models.OrderStatusSubmitted {
		return nil, apperr.Conflict("invalid_status",
			fmt.Sprintf("order in status %s cannot be canceled", order.Status))
	}

	if order.PODOrderID.Valid && order.PODOrderID.String != "" {
		if err := s.checkProvider(order); err != nil {
			return nil, err
		}
		if err := s.provider.CancelOrder(ctx, order.PODOrderID.String); err != nil {
			return nil, apperr.Provider("provider_error", err)
		}
	}

	ok, err := s.db.CancelOrder(ctx, orderID, s.now().Add(-s.cfg.FulfillmentLease))
	if err != nil {
		return nil, apperr.Internal("cancel_failed", err)
	}
	if !ok {
		current, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		// Still PAID after a failed swap means a live claim holds the order.
		if current.Status == models.OrderStatusPaid {
			return nil, apperr.Conflict("fulfillment_in_progress",
				"order is being submitted to the provider; retry the cancel once it settles")
		}
		return nil, apperr.Conflict("invalid_status", "order status changed before cancel")
	}
	s.logger.Info("order canceled", zap.String("order_id", orderID))
	return s.loadOrder(ctx, orderID)
}

// Sync polls the provider for the order's status and applies it.
func (s *FulfillmentService) Sync(ctx context.Context, orderID string) (SyncResult, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return SyncResult{}, err
	}
	if !order.PODOrderID.Valid || order.PODOrderID.String == "" {
		return SyncResult{}, apperr.Validation("not_submitted", "order has no provider order id")
	}
	if err := s.checkProvider(order); err != nil {
		return SyncResult{}, err
	}

	native, err := s.provider.GetOrderStatus(ctx, order.PODOrderID.String)
	if errors.Is(err, pod.ErrManualProvider) {
		return SyncResult{}, apperr.Validation("manual_provider", err.Error())
	}
	if err != nil {
		return SyncResult{}, apperr.Provider("provider_error", err)
	}

	res := SyncResult{NativeStatus: native, Order: order}
	status, ok := s.provider.NormalizeStatus(native)
	if !ok {
		s.logger.Info("ignoring unknown provider status",
			zap.String("order_id", orderID), zap.String("status", native))
		return res, nil
	}
	res.Status = status

	n, err := s.db.ApplyProviderStatus(ctx, order.PODProvider.String, order.PODOrderID.String, status, "")
	if err != nil {
		return res, apperr.Internal("apply_status_failed", err)
	}
	res.Applied = n > 0
	if res.Order, err = s.loadOrder(ctx, orderID); err != nil {
		return res, err
	}
	return res, nil
}

// ApplyWebhookEvent applies a verified provider webhook. Unknown statuses and
// unknown orders are ignored.
func (s *FulfillmentService) ApplyWebhookEvent(ctx context.Context, ev *pod.WebhookEvent) (int64, error) {
	logger := s.logger.With(zap.String("provider", ev.Provider),
		zap.String("event", ev.Event), zap.String("external_order_id", ev.ExternalOrderID))

	if ev.ExternalOrderID == "" {
		logger.Info("webhook carries no order id, ignoring")
		return 0, nil
	}
	status, ok := pod.NormalizeStatus(ev.Provider, ev.NativeStatus)
	if !ok {
		logger.Info("ignoring unknown provider status", zap.String("status", ev.NativeStatus))
		return 0, nil
	}

	var tracking string
	if ev.Tracking != nil {
		b, err := json.Marshal(ev.Tracking)
		if err != nil {
			return 0, apperr.Internal("tracking_encode_failed", err)
		}
		tracking = string(b)
	}

	n, err := s.db.ApplyProviderStatus(ctx, ev.Provider, ev.ExternalOrderID, status, tracking)
	if err != nil {
		return 0, apperr.Internal("apply_status_failed", err)
	}
	if n == 0 {
		logger.Info("no order moved by provider status", zap.String("status", string(status)))
	} else {
		logger.Info("provider status applied", zap.String("status", string(status)))
	}
	return n, nil
}

func (s *FulfillmentService) checkProvider(order *models.Order) error {
	recorded := order.PODProvider.String
	if recorded != "" && !strings.EqualFold(recorded, s.provider.Name()) {
		return apperr.Conflict("provider_mismatch",
			fmt.Sprintf("order was submitted to %s but %s is configured", recorded, s.provider.Name()))
	}
	return nil
}

func (s *FulfillmentService) loadOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.db.GetOrder(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("not_found", "order not found")
	}
	if err != nil {
		return nil, apperr.Internal("order_lookup_failed", err)
	}
	return order, nil
}
