package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordKind disambiguates entity types stored under the shared id namespace.
type RecordKind string

const (
	KindFile  RecordKind = "file"
	KindChunk RecordKind = "chunk"
)

// Record is implemented by every entity living in the document store.
type Record interface {
	RecordID() uuid.UUID
	RecordKind() RecordKind
}

// FileRecord is the authoritative metadata row for one ingested document.
// ID is the sole join key between the object-store payload, this row, its
// chunks, and any front-end status projection.
type FileRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	StorageKey  string    `gorm:"column:storage_key;not null" json:"storage_key"`
	SizeBytes   int64     `gorm:"column:size_bytes" json:"size_bytes"`
	Status      Status    `gorm:"column:status;not null;default:'uploaded'" json:"status"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (FileRecord) TableName() string { return "file_record" }

func (f *FileRecord) RecordID() uuid.UUID    { return f.ID }
func (f *FileRecord) RecordKind() RecordKind { return KindFile }
