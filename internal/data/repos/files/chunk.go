package files

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
)

type ChunkRepo interface {
	CreateBatch(dbc dbctx.Context, chunks []*domain.Chunk) ([]*domain.Chunk, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Chunk, error)
	ListByFileID(dbc dbctx.Context, fileID uuid.UUID) ([]*domain.Chunk, error)
	Iter(dbc dbctx.Context, fileID uuid.UUID, batchSize int) *ChunkIterator
	DeleteByFileID(dbc dbctx.Context, fileID uuid.UUID) (int64, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	repoLog := baseLog.With("repo", "ChunkRepo")
	return &chunkRepo{db: db, log: repoLog}
}

func (r *chunkRepo) CreateBatch(dbc dbctx.Context, chunks []*domain.Chunk) ([]*domain.Chunk, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(chunks) == 0 {
		return []*domain.Chunk{}, nil
	}
	for _, c := range chunks {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Chunk, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var chunk domain.Chunk
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&chunk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &chunk, nil
}

func (r *chunkRepo) ListByFileID(dbc dbctx.Context, fileID uuid.UUID) ([]*domain.Chunk, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Chunk
	if err := transaction.WithContext(dbc.Ctx).
		Where("file_record_id = ?", fileID).
		Order("idx ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) DeleteByFileID(dbc dbctx.Context, fileID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Where("file_record_id = ?", fileID).
		Delete(&domain.Chunk{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ChunkIterator walks a file's chunks in stable (idx, id) order, one batch
// per round trip. Rows inserted behind the cursor are not revisited, so a
// restarted walk resumes rather than repeats.
type ChunkIterator struct {
	repo      *chunkRepo
	dbc       dbctx.Context
	fileID    uuid.UUID
	batchSize int

	afterIdx int
	afterID  uuid.UUID
	started  bool
	done     bool
}

func (r *chunkRepo) Iter(dbc dbctx.Context, fileID uuid.UUID, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ChunkIterator{
		repo:      r,
		dbc:       dbc,
		fileID:    fileID,
		batchSize: batchSize,
	}
}

// Next returns the next batch, or (nil, nil) when the sequence is exhausted.
func (it *ChunkIterator) Next() ([]*domain.Chunk, error) {
	if it.done {
		return nil, nil
	}

	transaction := it.dbc.Tx
	if transaction == nil {
		transaction = it.repo.db
	}

	q := transaction.WithContext(it.dbc.Ctx).
		Where("file_record_id = ?", it.fileID)
	if it.started {
		// Tuple comparison spelled out so the cursor works on both
		// postgres and sqlite.
		q = q.Where("(idx > ? OR (idx = ? AND id > ?))", it.afterIdx, it.afterIdx, it.afterID)
	}

	var batch []*domain.Chunk
	if err := q.Order("idx ASC, id ASC").
		Limit(it.batchSize).
		Find(&batch).Error; err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		it.done = true
		return nil, nil
	}

	last := batch[len(batch)-1]
	it.afterIdx = last.Index
	it.afterID = last.ID
	it.started = true
	if len(batch) < it.batchSize {
		it.done = true
	}
	return batch, nil
}
