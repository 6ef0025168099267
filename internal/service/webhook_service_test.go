package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/pkg/payment"
)

type fakeReceipts struct {
	inputs []ReceiptInput
	err    error
}

func (f *fakeReceipts) Issue(ctx context.Context, in ReceiptInput) (*IssuedReceipt, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &IssuedReceipt{Number: "RE-1", Filename: "RE-1.pdf", PDF: []byte("%PDF"), DownloadURL: "https://shop.example/api/v1/receipts/download?token=t"}, nil
}

type panickingPayments struct{ fakePaymentRepo }

func (p *panickingPayments) Create(ctx context.Context, payment *models.Payment) error {
	panic("boom")
}

type webhookFixture struct {
	svc         *WebhookService
	events      *fakeEventStore
	payments    *fakePaymentRepo
	enrollments *fakeEnrollmentRepo
	notifier    *fakeNotifier
	receipts    *fakeReceipts
}

func newWebhookFixture() *webhookFixture {
	f := &webhookFixture{
		events:      newFakeEventStore(),
		payments:    &fakePaymentRepo{},
		enrollments: newFakeEnrollmentRepo(models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Status: models.EnrollmentStatusActive}),
		notifier:    &fakeNotifier{},
		receipts:    &fakeReceipts{},
	}
	courses := newFakeCourseRepo(models.Course{ID: "c1", Title: "Go Grundlagen", IsPublished: true})
	profiles := newFakeProfileRepo(models.Profile{ID: "u1", Email: "max@example.com", FullName: "Max Mustermann"})
	f.svc = NewWebhookService(WebhookDeps{
		Events:      f.events,
		Payments:    f.payments,
		Enrollments: f.enrollments,
		Profiles:    profiles,
		Courses:     courses,
		Receipts:    f.receipts,
		Notifier:    f.notifier,
	}, NewMetricsService(), zap.NewNop())
	f.svc.now = func() time.Time { return time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC) }
	return f
}

func succeededEvent(id string, methods ...string) *payment.Event {
	return &payment.Event{
		ID:   id,
		Type: payment.EventIntentSucceeded,
		Intent: &payment.Intent{
			ID:                 "pi_1",
			Status:             "succeeded",
			Amount:             129900,
			Currency:           "eur",
			PaymentMethodTypes: methods,
			Metadata:           map[string]string{"user_id": "u1", "course_id": "c1"},
		},
	}
}

func TestPaymentMethodName(t *testing.T) {
	cases := map[string]string{
		"card":       "Kreditkarte",
		"sepa_debit": "SEPA-Lastschrift",
		"paypal":     "PayPal",
		"klarna":     "Klarna",
		"giropay":    "Giropay",
		"sofort":     "sofort",
	}
	for in, want := range cases {
		assert.Equal(t, want, PaymentMethodName(in))
	}
}

func TestWebhookPaymentSucceeded(t *testing.T) {
	f := newWebhookFixture()

	outcome, err := f.svc.Process(context.Background(), succeededEvent("evt_1", "card"))
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, outcome)

	require.Len(t, f.payments.payments, 1)
	p := f.payments.payments[0]
	assert.Equal(t, models.PaymentStatusCompleted, p.Status)
	assert.Equal(t, 1299.0, p.Amount)
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, "Kreditkarte", p.PaymentMethod)
	assert.Equal(t, "pi_1", p.StripePaymentIntentID)
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, f.svc.now().UTC(), *p.PaidAt)
	require.NotNil(t, p.EnrollmentID)
	assert.Equal(t, "e1", *p.EnrollmentID)

	require.Len(t, f.notifier.receipts, 1)
	receipt := f.notifier.receipts[0]
	assert.Equal(t, "max@example.com", receipt.To.Email)
	assert.Equal(t, "Go Grundlagen", receipt.CourseTitle)
	assert.Contains(t, receipt.Amount, "1.299")
	assert.Equal(t, "15. Oktober 2026", receipt.PaidAt)
	assert.Equal(t, "RE-1", receipt.ReceiptNumber)
	require.NotNil(t, receipt.Attachment)
	assert.Equal(t, "application/pdf", receipt.Attachment.ContentType)
}

func TestWebhookDuplicateEventHasNoSideEffects(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()

	_, err := f.svc.Process(ctx, succeededEvent("evt_1", "card"))
	require.NoError(t, err)
	outcome, err := f.svc.Process(ctx, succeededEvent("evt_1", "card"))
	require.NoError(t, err)

	assert.Equal(t, WebhookDuplicate, outcome)
	assert.Len(t, f.payments.payments, 1)
	assert.Len(t, f.notifier.receipts, 1)
}

func TestWebhookSucceededWithoutEnrollmentOrMethod(t *testing.T) {
	f := newWebhookFixture()
	f.enrollments.enrollments = map[string]models.Enrollment{}

	_, err := f.svc.Process(context.Background(), succeededEvent("evt_2"))
	require.NoError(t, err)
	require.Len(t, f.payments.payments, 1)
	assert.Nil(t, f.payments.payments[0].EnrollmentID)
	assert.Empty(t, f.payments.payments[0].PaymentMethod)
}

func TestWebhookReceiptFailuresAreIndependent(t *testing.T) {
	f := newWebhookFixture()
	f.receipts.err = errors.New("disk full")
	f.notifier.err = errors.New("provider down")

	outcome, err := f.svc.Process(context.Background(), succeededEvent("evt_3", "paypal"))
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, outcome)
	assert.Len(t, f.payments.payments, 1)
	require.Len(t, f.notifier.receipts, 1)
	assert.Nil(t, f.notifier.receipts[0].Attachment)
}

func TestWebhookReceiptSkippedWithoutProfile(t *testing.T) {
	f := newWebhookFixture()
	event := succeededEvent("evt_4", "card")
	event.Intent.Metadata["user_id"] = "unknown"

	_, err := f.svc.Process(context.Background(), event)
	require.NoError(t, err)
	assert.Len(t, f.payments.payments, 1)
	assert.Empty(t, f.notifier.receipts)
	assert.Empty(t, f.receipts.inputs)
}

func TestWebhookPaymentStoreFailureReleasesEvent(t *testing.T) {
	f := newWebhookFixture()
	f.payments.createErr = errors.New("db down")

	outcome, err := f.svc.Process(context.Background(), succeededEvent("evt_5", "card"))
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, outcome)
	assert.Equal(t, []string{"evt_5"}, f.events.forgotten)
	assert.Empty(t, f.receipts.inputs)
	assert.Empty(t, f.notifier.receipts)

	f.payments.createErr = nil
	_, err = f.svc.Process(context.Background(), succeededEvent("evt_5", "card"))
	require.NoError(t, err)
	assert.Len(t, f.payments.payments, 1)
	assert.Len(t, f.notifier.receipts, 1)
}

func TestWebhookPaymentFailed(t *testing.T) {
	f := newWebhookFixture()
	event := succeededEvent("evt_6", "sepa_debit")
	event.Type = payment.EventIntentFailed

	_, err := f.svc.Process(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, f.payments.payments, 1)
	p := f.payments.payments[0]
	assert.Equal(t, models.PaymentStatusFailed, p.Status)
	assert.Equal(t, "SEPA-Lastschrift", p.PaymentMethod)
	assert.Nil(t, p.PaidAt)
	assert.Empty(t, f.notifier.receipts)
}

func TestWebhookChargeRefunded(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()
	_, err := f.svc.Process(ctx, succeededEvent("evt_7", "card"))
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, &payment.Event{
		ID:     "evt_8",
		Type:   payment.EventChargeRefunded,
		Charge: &payment.Charge{ID: "ch_1", PaymentIntentID: "pi_1", Amount: 129900, AmountRefunded: 129900, Refunded: true},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusRefunded, f.payments.payments[0].Status)
	assert.Equal(t, models.EnrollmentStatusCancelled, f.enrollments.enrollments["e1"].Status)
}

func TestWebhookRefundWithoutPayment(t *testing.T) {
	f := newWebhookFixture()

	outcome, err := f.svc.Process(context.Background(), &payment.Event{
		ID:     "evt_9",
		Type:   payment.EventChargeRefunded,
		Charge: &payment.Charge{PaymentIntentID: "pi_unknown", Refunded: true},
	})
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, outcome)
	assert.Equal(t, models.EnrollmentStatusActive, f.enrollments.enrollments["e1"].Status)
}

func TestWebhookPartialRefundIgnored(t *testing.T) {
	f := newWebhookFixture()
	ctx := context.Background()
	_, err := f.svc.Process(ctx, succeededEvent("evt_10", "card"))
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, &payment.Event{
		ID:     "evt_11",
		Type:   payment.EventChargeRefunded,
		Charge: &payment.Charge{PaymentIntentID: "pi_1", Amount: 129900, AmountRefunded: 1000},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, f.payments.payments[0].Status)
	assert.Equal(t, models.EnrollmentStatusActive, f.enrollments.enrollments["e1"].Status)
}

func TestWebhookUnknownTypeIgnored(t *testing.T) {
	f := newWebhookFixture()

	outcome, err := f.svc.Process(context.Background(), &payment.Event{ID: "evt_12", Type: "customer.created"})
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, outcome)
	assert.Empty(t, f.payments.payments)
}

func TestWebhookDedupStoreFailure(t *testing.T) {
	f := newWebhookFixture()
	f.events.err = errors.New("db down")

	_, err := f.svc.Process(context.Background(), succeededEvent("evt_13", "card"))
	require.Error(t, err)
	assert.Empty(t, f.payments.payments)
}

func TestWebhookPanicReleasesEvent(t *testing.T) {
	f := newWebhookFixture()
	f.svc.deps.Payments = &panickingPayments{}

	assert.Panics(t, func() {
		_, _ = f.svc.Process(context.Background(), succeededEvent("evt_14", "card"))
	})
	assert.Equal(t, []string{"evt_14"}, f.events.forgotten)
	_, seen := f.events.seen["evt_14"]
	assert.False(t, seen)
}
