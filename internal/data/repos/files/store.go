package files

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
)

// Store is the kind-aware read surface over the document store. File records
// and chunks share one uuid namespace; Read refuses to hand back an entity
// of the wrong kind instead of reporting it missing, so callers can
// distinguish "absent" from "present but not what you asked for".
type Store interface {
	Read(dbc dbctx.Context, id uuid.UUID, kind domain.RecordKind) (domain.Record, error)
	FileRecords() FileRecordRepo
	Chunks() ChunkRepo
}

type store struct {
	log    *logger.Logger
	db     *gorm.DB
	files  FileRecordRepo
	chunks ChunkRepo
}

func NewStore(db *gorm.DB, baseLog *logger.Logger) Store {
	return &store{
		log:    baseLog.With("repo", "Store"),
		db:     db,
		files:  NewFileRecordRepo(db, baseLog),
		chunks: NewChunkRepo(db, baseLog),
	}
}

func (s *store) FileRecords() FileRecordRepo { return s.files }
func (s *store) Chunks() ChunkRepo           { return s.chunks }

func (s *store) Read(dbc dbctx.Context, id uuid.UUID, kind domain.RecordKind) (domain.Record, error) {
	switch kind {
	case domain.KindFile:
		record, err := s.files.GetByID(dbc, id)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, err
		}
		if _, cerr := s.chunks.GetByID(dbc, id); cerr == nil {
			return nil, fmt.Errorf("id %s holds a chunk, not a file record: %w", id, pkgerrors.ErrKindMismatch)
		}
		return nil, err
	case domain.KindChunk:
		chunk, err := s.chunks.GetByID(dbc, id)
		if err == nil {
			return chunk, nil
		}
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, err
		}
		if _, ferr := s.files.GetByID(dbc, id); ferr == nil {
			return nil, fmt.Errorf("id %s holds a file record, not a chunk: %w", id, pkgerrors.ErrKindMismatch)
		}
		return nil, err
	default:
		return nil, fmt.Errorf("record kind %q: %w", kind, pkgerrors.ErrInvalidArgument)
	}
}
