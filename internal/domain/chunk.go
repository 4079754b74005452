package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Chunk is one derived content unit of a FileRecord, produced by the
// out-of-process ingest worker. FileRecordID is a non-owning back-reference:
// a chunk whose parent row is gone is garbage awaiting cleanup and must be
// excluded from results, never surfaced as belonging to a live file.
type Chunk struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FileRecordID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"file_record_id"`
	Index            int            `gorm:"column:idx;not null" json:"index"`
	Text             string         `gorm:"column:text" json:"text"`
	PositionMetadata datatypes.JSON `gorm:"column:position_metadata;type:jsonb" json:"position_metadata"`
	Embedding        datatypes.JSON `gorm:"column:embedding;type:jsonb" json:"embedding,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Chunk) TableName() string { return "chunk" }

func (c *Chunk) RecordID() uuid.UUID    { return c.ID }
func (c *Chunk) RecordKind() RecordKind { return KindChunk }
