package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/docbridge/backend/internal/clients/gcp"
	"github.com/docbridge/backend/internal/data/repos/files"
	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
)

// DeletionError attributes a deletion failure to the step that broke.
// Step "object" means nothing was deleted; step "chunks" means the payload
// and record are already gone and only chunk cleanup is outstanding.
type DeletionError struct {
	Step   string
	FileID uuid.UUID
	Err    error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete file %s: step %s: %v", e.FileID, e.Step, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }

// DeletionService tears down everything keyed by a file id: payload, record,
// chunks, strictly in that order.
type DeletionService interface {
	DeleteFile(dbc dbctx.Context, id uuid.UUID) (*domain.FileRecord, error)
}

type deletionService struct {
	log     *logger.Logger
	bucket  gcp.BucketService
	records files.FileRecordRepo
	chunks  files.ChunkRepo
}

func NewDeletionService(
	baseLog *logger.Logger,
	bucket gcp.BucketService,
	records files.FileRecordRepo,
	chunks files.ChunkRepo,
) DeletionService {
	return &deletionService{
		log:     baseLog.With("service", "DeletionService"),
		bucket:  bucket,
		records: records,
		chunks:  chunks,
	}
}

func (s *deletionService) DeleteFile(dbc dbctx.Context, id uuid.UUID) (*domain.FileRecord, error) {
	record, err := s.records.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}

	// Payload first. An already-absent object is fine (a previous partial
	// delete may have got this far); a genuine storage error aborts before
	// the record is touched so a retry starts from a consistent state.
	if err := s.bucket.Delete(dbc.Ctx, record.StorageKey); err != nil {
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, &DeletionError{Step: "object", FileID: id, Err: err}
		}
		s.log.Warn("Payload already absent during delete",
			"file_id", id, "storage_key", record.StorageKey)
	}

	if err := s.records.Delete(dbc, id); err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			// Concurrent delete won the race after we read the record.
			return nil, err
		}
		return nil, &DeletionError{Step: "record", FileID: id, Err: err}
	}

	// Chunk cleanup is best effort. The record and payload are gone either
	// way; leftover chunks are invisible orphans swept up on retry.
	n, err := s.chunks.DeleteByFileID(dbc, id)
	if err != nil {
		s.log.Error("Chunk cleanup failed after record delete",
			"error", err, "file_id", id)
		return record, &DeletionError{Step: "chunks", FileID: id, Err: err}
	}

	s.log.Info("File deleted", "file_id", id, "chunks_removed", n)
	return record, nil
}
