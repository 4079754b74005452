package services

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/docbridge/backend/internal/clients/gcp"
	"github.com/docbridge/backend/internal/data/repos/files"
	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
)

// FilesService is the read surface over ingested documents.
type FilesService interface {
	GetFile(dbc dbctx.Context, id uuid.UUID) (*domain.FileRecord, error)
	GetStatus(dbc dbctx.Context, id uuid.UUID) (domain.Status, error)
	ListFiles(dbc dbctx.Context) ([]*domain.FileRecord, error)
	ListChunks(dbc dbctx.Context, fileID uuid.UUID) ([]*domain.Chunk, error)
	DownloadFile(dbc dbctx.Context, id uuid.UUID) (*domain.FileRecord, io.ReadCloser, error)
}

type filesService struct {
	log     *logger.Logger
	bucket  gcp.BucketService
	records files.FileRecordRepo
	chunks  files.ChunkRepo
}

func NewFilesService(
	baseLog *logger.Logger,
	bucket gcp.BucketService,
	records files.FileRecordRepo,
	chunks files.ChunkRepo,
) FilesService {
	return &filesService{
		log:     baseLog.With("service", "FilesService"),
		bucket:  bucket,
		records: records,
		chunks:  chunks,
	}
}

func (s *filesService) GetFile(dbc dbctx.Context, id uuid.UUID) (*domain.FileRecord, error) {
	return s.records.GetByID(dbc, id)
}

func (s *filesService) GetStatus(dbc dbctx.Context, id uuid.UUID) (domain.Status, error) {
	return s.records.GetStatus(dbc, id)
}

func (s *filesService) ListFiles(dbc dbctx.Context) ([]*domain.FileRecord, error) {
	return s.records.List(dbc)
}

// ListChunks returns the file's chunks in index order. A file with no chunks
// yet, or no file at all, yields an empty slice: the chunk listing reflects
// what the pipeline has produced for that id, and orphaned chunks of a
// deleted record are never attributed to it.
func (s *filesService) ListChunks(dbc dbctx.Context, fileID uuid.UUID) ([]*domain.Chunk, error) {
	if _, err := s.records.GetByID(dbc, fileID); err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return []*domain.Chunk{}, nil
		}
		return nil, err
	}
	chunks, err := s.chunks.ListByFileID(dbc, fileID)
	if err != nil {
		return nil, err
	}
	if chunks == nil {
		chunks = []*domain.Chunk{}
	}
	return chunks, nil
}

func (s *filesService) DownloadFile(dbc dbctx.Context, id uuid.UUID) (*domain.FileRecord, io.ReadCloser, error) {
	record, err := s.records.GetByID(dbc, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.bucket.Get(dbc.Ctx, record.StorageKey)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("payload for file %s: %w", id, pkgerrors.ErrNotFound)
		}
		return nil, nil, err
	}
	return record, rc, nil
}
