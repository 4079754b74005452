package domain

import (
	"time"

	"github.com/google/uuid"
)

// IngestMessage is the queue payload handed to the ingest worker. Delivery
// is at-least-once; consumers must treat duplicate deliveries as no-ops.
type IngestMessage struct {
	FileID      uuid.UUID `json:"file_id"`
	StorageKey  string    `json:"storage_key"`
	ContentType string    `json:"content_type"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}
