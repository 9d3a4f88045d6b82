package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"artprint-backend/internal/models"
	"artprint-backend/internal/services"
)

type CheckoutHandler struct {
	checkout *services.CheckoutService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *services.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

// CreateCheckout godoc
// @Summary     Start checkout for an artwork
// @Description Creates a DRAFT order and a hosted payment session.
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Param       request body models.CheckoutRequest true "Artwork to buy"
// @Success     200 {object} models.CheckoutResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     501 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /api/checkout [post]
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	if !h.checkout.Enabled() {
		errorJSON(c, http.StatusNotImplemented, "stripe_not_configured", "payments are not configured")
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ArtworkID == "" {
		errorJSON(c, http.StatusBadRequest, "missing_artworkId", "artworkId is required")
		return
	}

	order, url, err := h.checkout.CreateCheckout(c.Request.Context(), req.ArtworkID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.CheckoutResponse{OK: true, OrderID: order.ID, CheckoutURL: url})
}
