package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/pkg/i18n"
	"github.com/noah-isme/coursehub-api/pkg/mailer"
	"github.com/noah-isme/coursehub-api/pkg/payment"
)

// Outcomes reported by WebhookService.Process.
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
)

var paymentMethodNames = map[string]string{
	"card":       "Kreditkarte",
	"sepa_debit": "SEPA-Lastschrift",
	"paypal":     "PayPal",
	"klarna":     "Klarna",
	"giropay":    "Giropay",
}

// PaymentMethodName returns the display name for a provider payment method type.
func PaymentMethodName(methodType string) string {
	if name, ok := paymentMethodNames[methodType]; ok {
		return name
	}
	return methodType
}

type webhookEventStore interface {
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type webhookPaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	MarkRefunded(ctx context.Context, intentID string) (*models.Payment, error)
}

type webhookEnrollmentRepository interface {
	FindOpenByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	CancelByUserAndCourse(ctx context.Context, userID, courseID string) (int64, error)
}

type webhookProfileReader interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type webhookCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindSchedule(ctx context.Context, id string) (*models.CourseSchedule, error)
}

type receiptIssuer interface {
	Issue(ctx context.Context, in ReceiptInput) (*IssuedReceipt, error)
}

type receiptNotifier interface {
	SendPaymentReceipt(ctx context.Context, data ReceiptEmail) error
}

// WebhookDeps bundles the collaborators of the webhook pipeline. Receipts and
// Notifier are optional.
type WebhookDeps struct {
	Events      webhookEventStore
	Payments    webhookPaymentRepository
	Enrollments webhookEnrollmentRepository
	Profiles    webhookProfileReader
	Courses     webhookCourseReader
	Receipts    receiptIssuer
	Notifier    receiptNotifier
}

// WebhookService reconciles payment and enrollment state from verified
// provider events. Every event id is applied at most once.
type WebhookService struct {
	deps    WebhookDeps
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewWebhookService constructs a WebhookService.
func NewWebhookService(deps WebhookDeps, metrics *MetricsService, logger *zap.Logger) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{deps: deps, metrics: metrics, logger: logger, now: time.Now}
}

// Process applies event. Side effect failures are logged and do not fail the
// call; an error is returned only when the deduplication store is unreachable.
// If processing panics the event id is released before the panic continues.
func (s *WebhookService) Process(ctx context.Context, event *payment.Event) (outcome string, err error) {
	if event == nil || event.ID == "" {
		return WebhookIgnored, nil
	}
	logger := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	fresh, err := s.deps.Events.MarkProcessed(ctx, event.ID, event.Type)
	if err != nil {
		s.metrics.RecordWebhookEvent(event.Type, "failed")
		return "", fmt.Errorf("record webhook event: %w", err)
	}
	if !fresh {
		logger.Info("duplicate webhook event skipped")
		s.metrics.RecordWebhookEvent(event.Type, WebhookDuplicate)
		return WebhookDuplicate, nil
	}

	defer func() {
		if r := recover(); r != nil {
			s.forget(context.WithoutCancel(ctx), event.ID, logger)
			s.metrics.RecordWebhookEvent(event.Type, "panic")
			panic(r)
		}
	}()

	var persisted bool
	switch event.Type {
	case payment.EventIntentSucceeded:
		persisted = s.handleSucceeded(ctx, event.Intent, logger)
	case payment.EventIntentFailed:
		persisted = s.handleFailed(ctx, event.Intent, logger)
	case payment.EventChargeRefunded:
		persisted = s.handleRefunded(ctx, event.Charge, logger)
	default:
		logger.Info("unhandled webhook event type ignored")
		s.metrics.RecordWebhookEvent(event.Type, WebhookIgnored)
		return WebhookIgnored, nil
	}

	if !persisted {
		// Release the id so a manual replay from the provider dashboard can succeed.
		s.forget(ctx, event.ID, logger)
		s.metrics.RecordWebhookEvent(event.Type, "failed")
		return WebhookProcessed, nil
	}
	s.metrics.RecordWebhookEvent(event.Type, WebhookProcessed)
	return WebhookProcessed, nil
}

func (s *WebhookService) handleSucceeded(ctx context.Context, intent *payment.Intent, logger *zap.Logger) bool {
	p, ok := s.paymentFromIntent(intent, models.PaymentStatusCompleted, logger)
	if !ok {
		return true
	}
	now := s.now().UTC()
	p.PaidAt = &now

	if enrollment, err := s.deps.Enrollments.FindOpenByUserAndCourse(ctx, p.UserID, p.CourseID); err == nil {
		p.EnrollmentID = &enrollment.ID
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.Warn("enrollment lookup for payment failed", zap.Error(err))
	}

	if err := s.deps.Payments.Create(ctx, p); err != nil {
		// No receipt: a replay of the released event issues it once the payment is stored.
		logger.Error("failed to record completed payment", zap.String("payment_intent_id", p.StripePaymentIntentID), zap.Error(err))
		return false
	}
	logger.Info("payment completed", zap.String("payment_id", p.ID), zap.String("payment_intent_id", p.StripePaymentIntentID))

	s.sendReceipt(ctx, p, intent.Metadata, logger)
	return true
}

func (s *WebhookService) handleFailed(ctx context.Context, intent *payment.Intent, logger *zap.Logger) bool {
	p, ok := s.paymentFromIntent(intent, models.PaymentStatusFailed, logger)
	if !ok {
		return true
	}
	if err := s.deps.Payments.Create(ctx, p); err != nil {
		logger.Error("failed to record failed payment", zap.String("payment_intent_id", p.StripePaymentIntentID), zap.Error(err))
		return false
	}
	logger.Info("payment failed",
		zap.String("payment_intent_id", p.StripePaymentIntentID),
		zap.String("failure_code", intent.FailureCode),
		zap.String("failure_reason", i18n.Translate(intent.FailureCode)),
	)
	return true
}

func (s *WebhookService) handleRefunded(ctx context.Context, charge *payment.Charge, logger *zap.Logger) bool {
	if charge == nil || charge.PaymentIntentID == "" {
		logger.Warn("refund event without payment intent")
		return true
	}
	if !charge.Refunded {
		logger.Info("partial refund ignored", zap.String("payment_intent_id", charge.PaymentIntentID), zap.Int64("amount_refunded", charge.AmountRefunded))
		return true
	}

	p, err := s.deps.Payments.MarkRefunded(ctx, charge.PaymentIntentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Warn("no completed payment to refund", zap.String("payment_intent_id", charge.PaymentIntentID))
			return true
		}
		logger.Error("failed to mark payment refunded", zap.String("payment_intent_id", charge.PaymentIntentID), zap.Error(err))
		return false
	}

	cancelled, err := s.deps.Enrollments.CancelByUserAndCourse(ctx, p.UserID, p.CourseID)
	if err != nil {
		logger.Error("failed to cancel enrollment after refund", zap.String("payment_id", p.ID), zap.Error(err))
		return true
	}
	logger.Info("payment refunded", zap.String("payment_id", p.ID), zap.Int64("enrollments_cancelled", cancelled))
	return true
}

func (s *WebhookService) paymentFromIntent(intent *payment.Intent, status models.PaymentStatus, logger *zap.Logger) (*models.Payment, bool) {
	if intent == nil {
		logger.Warn("payment intent event without intent payload")
		return nil, false
	}
	userID := intent.Metadata[metaUserID]
	courseID := intent.Metadata[metaCourseID]
	if userID == "" || courseID == "" {
		logger.Warn("payment intent without user or course metadata", zap.String("payment_intent_id", intent.ID))
		return nil, false
	}
	method := ""
	if len(intent.PaymentMethodTypes) > 0 {
		method = PaymentMethodName(intent.PaymentMethodTypes[0])
	}
	return &models.Payment{
		UserID:                userID,
		CourseID:              courseID,
		StripePaymentIntentID: intent.ID,
		Amount:                FromMinorUnits(intent.Amount),
		Currency:              strings.ToUpper(intent.Currency),
		Status:                status,
		PaymentMethod:         method,
		CreatedAt:             s.now().UTC(),
	}, true
}

// sendReceipt is best-effort; a missing profile or course skips the email.
func (s *WebhookService) sendReceipt(ctx context.Context, p *models.Payment, metadata map[string]string, logger *zap.Logger) {
	if s.deps.Notifier == nil {
		return
	}
	profile, err := s.deps.Profiles.FindByID(ctx, p.UserID)
	if err != nil {
		logger.Warn("receipt skipped: profile unavailable", zap.String("user_id", p.UserID), zap.Error(err))
		return
	}
	course, err := s.deps.Courses.FindByID(ctx, p.CourseID)
	if err != nil {
		logger.Warn("receipt skipped: course unavailable", zap.String("course_id", p.CourseID), zap.Error(err))
		return
	}

	scheduleText := ""
	if id := metadata[metaScheduleID]; id != "" {
		if schedule, err := s.deps.Courses.FindSchedule(ctx, id); err == nil {
			scheduleText = scheduleLabel(schedule.StartDate, schedule.EndDate)
		}
	}

	paidAt := p.CreatedAt
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}
	data := ReceiptEmail{
		To:            mailerAddress(profile.FullName, profile.Email),
		Name:          profile.FullName,
		CourseTitle:   course.Title,
		Amount:        i18n.FormatPrice(p.Amount, p.Currency),
		PaymentMethod: p.PaymentMethod,
		PaidAt:        i18n.FormatDate(paidAt),
	}

	if s.deps.Receipts != nil {
		issued, err := s.deps.Receipts.Issue(ctx, ReceiptInput{Payment: p, Profile: profile, Course: course, Schedule: scheduleText})
		if err != nil {
			logger.Warn("receipt pdf not generated", zap.String("payment_id", p.ID), zap.Error(err))
		} else {
			data.ReceiptNumber = issued.Number
			data.DownloadURL = issued.DownloadURL
			data.Attachment = &mailer.Attachment{Filename: issued.Filename, ContentType: "application/pdf", Content: issued.PDF}
		}
	}

	if err := s.deps.Notifier.SendPaymentReceipt(ctx, data); err != nil {
		logger.Warn("payment receipt not sent", zap.String("payment_id", p.ID), zap.Error(err))
	}
}

func (s *WebhookService) forget(ctx context.Context, eventID string, logger *zap.Logger) {
	if err := s.deps.Events.Forget(ctx, eventID); err != nil {
		logger.Error("failed to release webhook event", zap.Error(err))
	}
}
