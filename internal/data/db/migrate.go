package db

import (
	"gorm.io/gorm"

	"github.com/docbridge/backend/internal/domain"
)

// Migrate applies the schema for the document store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.FileRecord{},
		&domain.Chunk{},
	)
}
