package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coursehub-api/internal/models"
)

const paymentColumns = `id, user_id, course_id, enrollment_id, stripe_payment_intent_id, amount, currency, status, payment_method, paid_at, created_at`

// PaymentRepository persists provider-confirmed payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment row.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, user_id, course_id, enrollment_id, stripe_payment_intent_id, amount, currency, status, payment_method, paid_at, created_at)
        VALUES (:id, :user_id, :course_id, :enrollment_id, :stripe_payment_intent_id, :amount, :currency, :status, :payment_method, :paid_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByIntentID returns the most recent payment recorded for an intent.
func (r *PaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE stripe_payment_intent_id = $1 ORDER BY created_at DESC LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, intentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by intent: %w", err)
	}
	return &payment, nil
}

// MarkRefunded flips the completed payment of an intent to refunded and
// returns the updated row, or sql.ErrNoRows when none matched.
func (r *PaymentRepository) MarkRefunded(ctx context.Context, intentID string) (*models.Payment, error) {
	query := `UPDATE payments SET status = $2 WHERE stripe_payment_intent_id = $1 AND status = $3 RETURNING ` + paymentColumns
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, intentID, models.PaymentStatusRefunded, models.PaymentStatusCompleted); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("mark payment refunded: %w", err)
	}
	return &payment, nil
}
