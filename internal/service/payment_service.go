package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/models"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/i18n"
	"github.com/noah-isme/coursehub-api/pkg/payment"
)

// Metadata keys attached to every payment intent. The webhook pipeline reads
// them back to reconcile the payment with a user and course.
const (
	metaCourseID    = "course_id"
	metaScheduleID  = "schedule_id"
	metaUserID      = "user_id"
	metaCourseTitle = "course_title"
	metaUserEmail   = "user_email"
	metaUserName    = "user_name"
)

type paymentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type paymentProfileReader interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

// PaymentService starts checkouts and queries the provider. It never writes
// payment rows; those come from verified webhooks only.
type PaymentService struct {
	gateway         payment.Gateway
	courses         paymentCourseReader
	profiles        paymentProfileReader
	validator       *validator.Validate
	metrics         *MetricsService
	logger          *zap.Logger
	defaultCurrency string
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(gateway payment.Gateway, courses paymentCourseReader, profiles paymentProfileReader, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, defaultCurrency string) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if gateway == nil {
		gateway = payment.DisabledGateway()
	}
	if defaultCurrency == "" {
		defaultCurrency = "eur"
	}
	return &PaymentService{
		gateway:         gateway,
		courses:         courses,
		profiles:        profiles,
		validator:       validate,
		metrics:         metrics,
		logger:          logger,
		defaultCurrency: strings.ToLower(defaultCurrency),
	}
}

// CreatePaymentIntent opens a payment intent for the caller. Amount is in
// major units and converted to minor units by rounding.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, caller *models.JWTClaims, req models.CreatePaymentIntentRequest) (*models.PaymentIntentResult, error) {
	if caller == nil || caller.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	minor := ToMinorUnits(req.Amount)
	if minor <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "")
	}

	metadata := map[string]string{
		metaCourseID:   req.CourseID,
		metaScheduleID: req.ScheduleID,
		metaUserID:     caller.UserID,
		metaUserEmail:  caller.Email,
		metaUserName:   caller.FullName,
	}
	currency := s.defaultCurrency
	description := ""

	if s.courses != nil {
		if course, err := s.courses.FindByID(ctx, req.CourseID); err == nil {
			metadata[metaCourseTitle] = course.Title
			description = course.Title
			if course.Currency != "" {
				currency = strings.ToLower(course.Currency)
			}
		} else {
			s.logger.Debug("course lookup for payment metadata failed", zap.String("course_id", req.CourseID), zap.Error(err))
		}
	}
	if s.profiles != nil {
		if profile, err := s.profiles.FindByID(ctx, caller.UserID); err == nil {
			metadata[metaUserEmail] = profile.Email
			metadata[metaUserName] = profile.FullName
		} else {
			s.logger.Debug("profile lookup for payment metadata failed", zap.String("user_id", caller.UserID), zap.Error(err))
		}
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.CreateIntentParams{
		Amount:      minor,
		Currency:    currency,
		Description: description,
		Metadata:    metadata,
	})
	if err != nil {
		s.metrics.RecordPaymentIntent("failed")
		return nil, s.providerError("create payment intent", err)
	}

	s.metrics.RecordPaymentIntent("created")
	s.logger.Info("payment intent created",
		zap.String("payment_intent_id", intent.ID),
		zap.String("user_id", caller.UserID),
		zap.String("course_id", req.CourseID),
		zap.Int64("amount", minor),
	)
	return &models.PaymentIntentResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// ConfirmPayment reads the provider's current status for an intent. Callers
// only see their own intents unless they are admins.
func (s *PaymentService) ConfirmPayment(ctx context.Context, caller *models.JWTClaims, intentID string) (*models.PaymentStatusResult, error) {
	if caller == nil || caller.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "")
	}
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "")
	}

	intent, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, s.providerError("get payment intent", err)
	}
	if owner := intent.Metadata[metaUserID]; owner != "" && owner != caller.UserID && caller.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "")
	}

	return &models.PaymentStatusResult{
		ID:       intent.ID,
		Status:   intent.Status,
		Amount:   FromMinorUnits(intent.Amount),
		Currency: intent.Currency,
	}, nil
}

// RefundPayment requests a full refund. Local state changes when the
// provider's charge.refunded webhook arrives.
func (s *PaymentService) RefundPayment(ctx context.Context, intentID string) (*models.RefundResult, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "")
	}
	refund, err := s.gateway.Refund(ctx, intentID)
	if err != nil {
		return nil, s.providerError("refund payment", err)
	}
	s.logger.Info("refund requested", zap.String("payment_intent_id", intentID), zap.String("refund_id", refund.ID))
	return &models.RefundResult{
		RefundID:        refund.ID,
		PaymentIntentID: intentID,
		Status:          refund.Status,
		Amount:          FromMinorUnits(refund.Amount),
	}, nil
}

// providerError logs the provider detail and returns the client-safe error.
func (s *PaymentService) providerError(op string, err error) error {
	if errors.Is(err, payment.ErrDisabled) {
		return appErrors.Wrap(err, appErrors.ErrPaymentUnavailable.Code, appErrors.ErrPaymentUnavailable.Status, appErrors.ErrPaymentUnavailable.Message)
	}
	var perr *payment.ProviderError
	if errors.As(err, &perr) {
		s.logger.Warn("payment provider rejected request",
			zap.String("op", op),
			zap.String("code", perr.Code),
			zap.Int("http_status", perr.HTTPStatus),
			zap.String("detail", perr.Message),
		)
		if perr.HTTPStatus == http.StatusNotFound {
			return appErrors.Clone(appErrors.ErrNotFound, "")
		}
		// Known decline codes get their own wording; the code stays PAYMENT_FAILED.
		if msg, ok := i18n.Lookup(perr.Code); ok && perr.Code != "" {
			return appErrors.Wrap(fmt.Errorf("%s: %w", op, err), appErrors.ErrPaymentFailed.Code, appErrors.ErrPaymentFailed.Status, msg)
		}
	} else {
		s.logger.Error("payment provider call failed", zap.String("op", op), zap.Error(err))
	}
	return appErrors.Wrap(fmt.Errorf("%s: %w", op, err), appErrors.ErrPaymentFailed.Code, appErrors.ErrPaymentFailed.Status, appErrors.ErrPaymentFailed.Message)
}

// ToMinorUnits converts a major-unit amount to cents.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts cents back to major units.
func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
