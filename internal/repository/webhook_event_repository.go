package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coursehub-api/internal/models"
)

// WebhookEventRepository records processed provider event ids.
type WebhookEventRepository struct {
	db *sqlx.DB
}

// NewWebhookEventRepository constructs the repository.
func NewWebhookEventRepository(db *sqlx.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// MarkProcessed inserts the event id if absent. It returns false when the
// event has been seen before.
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	const query = `INSERT INTO webhook_events (provider_event_id, event_type, received_at)
        VALUES (:provider_event_id, :event_type, :received_at)
        ON CONFLICT (provider_event_id) DO NOTHING`
	event := models.WebhookEvent{ProviderEventID: eventID, EventType: eventType, ReceivedAt: time.Now().UTC()}
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return false, fmt.Errorf("record webhook event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record webhook event rows: %w", err)
	}
	return affected == 1, nil
}

// Forget removes an event id so a redelivery is processed again.
func (r *WebhookEventRepository) Forget(ctx context.Context, eventID string) error {
	const query = `DELETE FROM webhook_events WHERE provider_event_id = $1`
	if _, err := r.db.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("forget webhook event: %w", err)
	}
	return nil
}
