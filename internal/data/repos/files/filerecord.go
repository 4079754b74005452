package files

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
)

type FileRecordRepo interface {
	Create(dbc dbctx.Context, record *domain.FileRecord) (*domain.FileRecord, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FileRecord, error)
	GetStatus(dbc dbctx.Context, id uuid.UUID) (domain.Status, error)
	SetStatus(dbc dbctx.Context, id uuid.UUID, status domain.Status) error
	List(dbc dbctx.Context) ([]*domain.FileRecord, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type fileRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFileRecordRepo(db *gorm.DB, baseLog *logger.Logger) FileRecordRepo {
	repoLog := baseLog.With("repo", "FileRecordRepo")
	return &fileRecordRepo{db: db, log: repoLog}
}

func (r *fileRecordRepo) Create(dbc dbctx.Context, record *domain.FileRecord) (*domain.FileRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = domain.StatusUploaded
	}

	if err := transaction.WithContext(dbc.Ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *fileRecordRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FileRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var record domain.FileRecord
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *fileRecordRepo) GetStatus(dbc dbctx.Context, id uuid.UUID) (domain.Status, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var status domain.Status
	res := transaction.WithContext(dbc.Ctx).
		Model(&domain.FileRecord{}).
		Select("status").
		Where("id = ?", id).
		Limit(1).
		Scan(&status)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", pkgerrors.ErrNotFound
	}
	return status, nil
}

func (r *fileRecordRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, status domain.Status) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Model(&domain.FileRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *fileRecordRepo) List(dbc dbctx.Context) ([]*domain.FileRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.FileRecord
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Delete removes the row permanently. A second delete of the same id
// reports pkgerrors.ErrNotFound rather than succeeding silently.
func (r *fileRecordRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&domain.FileRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}
