package models

import "time"

// PaymentStatus tracks the provider-confirmed state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is written only from verified provider webhooks. Amount is in major units.
type Payment struct {
	ID                    string        `db:"id" json:"id"`
	UserID                string        `db:"user_id" json:"user_id"`
	CourseID              string        `db:"course_id" json:"course_id"`
	EnrollmentID          *string       `db:"enrollment_id" json:"enrollment_id,omitempty"`
	StripePaymentIntentID string        `db:"stripe_payment_intent_id" json:"stripe_payment_intent_id"`
	Amount                float64       `db:"amount" json:"amount"`
	Currency              string        `db:"currency" json:"currency"`
	Status                PaymentStatus `db:"status" json:"status"`
	PaymentMethod         string        `db:"payment_method" json:"payment_method"`
	PaidAt                *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt             time.Time     `db:"created_at" json:"created_at"`
}

// CreatePaymentIntentRequest starts checkout for a course.
type CreatePaymentIntentRequest struct {
	CourseID   string  `json:"course_id" validate:"required"`
	ScheduleID string  `json:"schedule_id"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
}

// PaymentIntentResult is handed to the browser to complete checkout.
type PaymentIntentResult struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// PaymentStatusResult is the provider's current view of an intent.
type PaymentStatusResult struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// RefundResult reports a refund request accepted by the provider.
type RefundResult struct {
	RefundID        string  `json:"refund_id"`
	PaymentIntentID string  `json:"payment_intent_id"`
	Status          string  `json:"status"`
	Amount          float64 `json:"amount"`
}
