package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docbridge/backend/internal/domain"
)

func SeedFileRecord(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *domain.FileRecord {
	tb.Helper()
	f := &domain.FileRecord{
		ID:          uuid.New(),
		Name:        name,
		ContentType: "application/pdf",
		StorageKey:  name,
		SizeBytes:   1024,
		Status:      domain.StatusUploaded,
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed file record: %v", err)
	}
	return f
}

func SeedChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, fileID uuid.UUID, index int) *domain.Chunk {
	tb.Helper()
	c := &domain.Chunk{
		ID:               uuid.New(),
		FileRecordID:     fileID,
		Index:            index,
		Text:             "chunk",
		PositionMetadata: datatypes.JSON([]byte(`{}`)),
		Embedding:        datatypes.JSON([]byte(`[]`)),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}
