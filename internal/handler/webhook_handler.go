package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/service"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/logger"
	"github.com/noah-isme/coursehub-api/pkg/payment"
	"github.com/noah-isme/coursehub-api/pkg/response"
)

// SignatureHeader carries the provider's payload signature.
const SignatureHeader = "Stripe-Signature"

const maxWebhookBody = 65536

type webhookProcessor interface {
	Process(ctx context.Context, event *payment.Event) (string, error)
}

// WebhookHandler receives signed payment provider events.
type WebhookHandler struct {
	verifier  payment.Verifier
	processor webhookProcessor
	metrics   *service.MetricsService
	logger    *zap.Logger
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(verifier payment.Verifier, processor webhookProcessor, metrics *service.MetricsService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if verifier == nil {
		verifier = payment.DisabledVerifier()
	}
	return &WebhookHandler{verifier: verifier, processor: processor, metrics: metrics, logger: logger}
}

// Stripe godoc
// @Summary Receive Stripe webhook events
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	log := logger.ForRequest(h.logger, c)
	signature := c.GetHeader(SignatureHeader)
	if signature == "" {
		h.reject(c, log, fmt.Errorf("missing %s header", SignatureHeader))
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		h.reject(c, log, fmt.Errorf("read body: %w", err))
		return
	}

	event, err := h.verifier.ConstructEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			h.reject(c, log, err)
			return
		}
		log.Error("verified webhook payload could not be decoded", zap.Error(err))
		h.metrics.RecordWebhookEvent("", "error")
		response.Error(c, appErrors.WrapInternal(err))
		return
	}

	// Outcomes of verified events are counted by the processor.

	defer func() {
		if r := recover(); r != nil {
			log.Error("webhook processing panicked",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.Type),
				zap.Any("panic", r),
			)
			response.Error(c, appErrors.Clone(appErrors.ErrInternal, ""))
		}
	}()

	outcome, err := h.processor.Process(c.Request.Context(), event)
	if err != nil {
		log.Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		response.Error(c, appErrors.WrapInternal(err))
		return
	}

	log.Debug("webhook handled", zap.String("event_id", event.ID), zap.String("outcome", outcome))
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) reject(c *gin.Context, log *zap.Logger, err error) {
	log.Warn("webhook rejected", zap.Error(err), zap.String("client_ip", c.ClientIP()))
	h.metrics.RecordWebhookEvent("", "rejected")
	response.Error(c, appErrors.Clone(appErrors.ErrInvalidSignature, ""))
}
