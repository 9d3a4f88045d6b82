package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"artprint-backend/internal/config"
	"artprint-backend/internal/models"
	"artprint-backend/internal/observability"
	"artprint-backend/internal/payments"
	"artprint-backend/internal/pod"
	"artprint-backend/internal/services"
	"artprint-backend/internal/webhook"
)

// maxWebhookBody caps inbound webhook payloads.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	config      *config.Config
	checkout    *services.CheckoutService
	fulfillment *services.FulfillmentService
	logger      *zap.Logger
	now         func() time.Time
}

func NewWebhookHandler(cfg *config.Config, checkout *services.CheckoutService, fulfillment *services.FulfillmentService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		config:      cfg,
		checkout:    checkout,
		fulfillment: fulfillment,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleStripe godoc
// @Summary     Stripe webhook endpoint
// @Description Receives payment events. The raw body is verified against the Stripe-Signature header before parsing.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Stripe-Signature header string true "t=<unix>,v1=<hex>"
// @Success     200 {object} models.WebhookAck
// @Failure     400 {object} models.ErrorResponse
// @Failure     501 {object} models.ErrorResponse
// @Router      /api/webhook/stripe [post]
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	logger := observability.FromContext(c, h.logger)
	if h.config.StripeWebhookSecret == "" {
		errorJSON(c, http.StatusNotImplemented, "webhook_not_configured", "Webhook secret not configured")
		return
	}

	body, ok := readBody(c)
	if !ok {
		return
	}

	err := webhook.VerifyStripeSignature(body, c.GetHeader(webhook.StripeSignatureHeader),
		h.config.StripeWebhookSecret, h.config.StripeWebhookTolerance, h.now())
	if err != nil {
		logger.Warn("rejected stripe webhook", zap.Error(err))
		errorJSON(c, http.StatusBadRequest, "invalid_signature", "Invalid signature")
		return
	}

	ev, err := payments.ParseEvent(body)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}
	logger = logger.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	switch ev.Type {
	case payments.EventCheckoutSessionCompleted:
		completed, err := payments.ParseCompletedCheckout(ev)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid_json", "Invalid checkout session")
			return
		}
		// Store failures are returned so the provider retries; the ledger
		// transitions make redelivery harmless.
		if _, err := h.checkout.HandleCheckoutCompleted(c.Request.Context(), completed); err != nil {
			respondError(c, logger, err)
			return
		}
	default:
		logger.Info("ignoring stripe event")
	}

	c.JSON(http.StatusOK, models.WebhookAck{OK: true})
}

// HandlePOD godoc
// @Summary     Print-on-demand webhook endpoint
// @Description Receives order status updates from gelato or printful. Verified by HMAC when a secret is configured.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       provider path string true "gelato or printful"
// @Success     200 {object} models.WebhookAck
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/webhook/{provider} [post]
func (h *WebhookHandler) HandlePOD(c *gin.Context) {
	logger := observability.FromContext(c, h.logger)

	provider := c.Param("provider")
	var header string
	switch provider {
	case pod.ProviderGelato:
		header = webhook.GelatoSignatureHeader
	case pod.ProviderPrintful:
		header = webhook.PrintfulSignatureHeader
	default:
		errorJSON(c, http.StatusNotFound, "unknown_provider", "unknown webhook provider")
		return
	}

	body, ok := readBody(c)
	if !ok {
		return
	}

	if err := webhook.VerifyPODSignature(body, c.GetHeader(header), h.config.PODWebhookSecret(provider)); err != nil {
		logger.Warn("rejected pod webhook", zap.String("provider", provider), zap.Error(err))
		errorJSON(c, http.StatusBadRequest, "invalid_signature", "Invalid signature")
		return
	}

	ev, err := pod.ParseWebhook(provider, body)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	n, err := h.fulfillment.ApplyWebhookEvent(c.Request.Context(), ev)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, models.WebhookAck{OK: true, Updated: n})
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return nil, false
	}
	return body, true
}
