package services

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/docbridge/backend/internal/clients/gcp"
	"github.com/docbridge/backend/internal/clients/redisq"
	"github.com/docbridge/backend/internal/data/repos/files"
	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
)

// IngestService accepts an upload and hands it to the processing pipeline.
// An upload either fully succeeds (payload stored, record committed, message
// published) or fully fails with nothing left behind.
type IngestService interface {
	Ingest(dbc dbctx.Context, name, contentType string, size int64, r io.Reader) (*domain.FileRecord, error)
}

type ingestService struct {
	db        *gorm.DB
	log       *logger.Logger
	bucket    gcp.BucketService
	records   files.FileRecordRepo
	publisher redisq.Publisher
}

func NewIngestService(
	db *gorm.DB,
	baseLog *logger.Logger,
	bucket gcp.BucketService,
	records files.FileRecordRepo,
	publisher redisq.Publisher,
) IngestService {
	return &ingestService{
		db:        db,
		log:       baseLog.With("service", "IngestService"),
		bucket:    bucket,
		records:   records,
		publisher: publisher,
	}
}

func (s *ingestService) Ingest(dbc dbctx.Context, name, contentType string, size int64, r io.Reader) (*domain.FileRecord, error) {
	if err := validateUpload(name, contentType, size); err != nil {
		return nil, err
	}

	key := gcp.StorageKey(name)
	if err := s.bucket.Put(dbc.Ctx, key, r, contentType); err != nil {
		return nil, fmt.Errorf("store payload: %w", err)
	}

	record := &domain.FileRecord{
		Name:        name,
		ContentType: contentType,
		StorageKey:  key,
		SizeBytes:   size,
		Status:      domain.StatusUploaded,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		_, err := s.records.Create(txc, record)
		return err
	})
	if err != nil {
		s.compensateObject(dbc, key)
		return nil, fmt.Errorf("create file record: %w", err)
	}

	msg := domain.IngestMessage{
		FileID:      record.ID,
		StorageKey:  key,
		ContentType: contentType,
		EnqueuedAt:  time.Now().UTC(),
	}
	if err := s.publisher.PublishIngest(dbc.Ctx, msg); err != nil {
		s.log.Error("Publish failed after record commit, compensating",
			"error", err, "file_id", record.ID)
		s.compensateRecord(dbc, record)
		s.compensateObject(dbc, key)
		return nil, fmt.Errorf("announce ingest: %w", err)
	}

	s.log.Info("File ingested", "file_id", record.ID, "name", name, "size_bytes", size)
	return record, nil
}

func (s *ingestService) compensateObject(dbc dbctx.Context, key string) {
	if err := s.bucket.Delete(dbc.Ctx, key); err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		s.log.Error("Compensating object delete failed; payload may be orphaned",
			"error", err, "storage_key", key)
	}
}

func (s *ingestService) compensateRecord(dbc dbctx.Context, record *domain.FileRecord) {
	cleanCtx := dbctx.Context{Ctx: dbc.Ctx}
	if err := s.records.Delete(cleanCtx, record.ID); err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		s.log.Error("Compensating record delete failed; record may be orphaned",
			"error", err, "file_id", record.ID)
	}
}
