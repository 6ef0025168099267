package models

import "time"

// WebhookEvent records a processed provider event for deduplication.
type WebhookEvent struct {
	ProviderEventID string    `db:"provider_event_id" json:"provider_event_id"`
	EventType       string    `db:"event_type" json:"event_type"`
	ReceivedAt      time.Time `db:"received_at" json:"received_at"`
}
