package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/coursehub-api/internal/models"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/i18n"
	"github.com/noah-isme/coursehub-api/pkg/response"
)

type paymentService interface {
	CreatePaymentIntent(ctx context.Context, caller *models.JWTClaims, req models.CreatePaymentIntentRequest) (*models.PaymentIntentResult, error)
	ConfirmPayment(ctx context.Context, caller *models.JWTClaims, intentID string) (*models.PaymentStatusResult, error)
	RefundPayment(ctx context.Context, intentID string) (*models.RefundResult, error)
}

// PaymentHandler exposes checkout endpoints.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(service paymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// CreateIntent godoc
// @Summary Start checkout for a course
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body models.CreatePaymentIntentRequest true "Checkout payload"
// @Success 201 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /payments/intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req models.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, ""))
		return
	}
	result, err := h.service.CreatePaymentIntent(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result, i18n.Message(i18n.MsgPaymentInitiated))
}

// Status godoc
// @Summary Get payment status
// @Tags Payments
// @Produce json
// @Param intentId path string true "Payment intent ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{intentId}/status [get]
func (h *PaymentHandler) Status(c *gin.Context) {
	result, err := h.service.ConfirmPayment(c.Request.Context(), claimsFromContext(c), c.Param("intentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Refund godoc
// @Summary Refund a payment in full
// @Tags Admin
// @Produce json
// @Param intentId path string true "Payment intent ID"
// @Success 200 {object} response.Envelope
// @Router /admin/payments/{intentId}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	result, err := h.service.RefundPayment(c.Request.Context(), c.Param("intentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithMessage(c, http.StatusOK, result, i18n.Message(i18n.MsgRefundRequested))
}
