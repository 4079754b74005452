// Package projection keeps the front-end tier's local view of uploaded
// documents. The core API stays authoritative; rows here exist so listings
// and status pages render without a core round trip per document.
package projection

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
)

// LocalFile is one locally known document. LocalRef is minted before the
// core upload, so a row can exist briefly with no RemoteID; such a row's
// status can never be refreshed and stays whatever was last written.
type LocalFile struct {
	LocalRef  uuid.UUID     `gorm:"type:uuid;primaryKey" json:"local_ref"`
	RemoteID  *uuid.UUID    `gorm:"type:uuid;index" json:"remote_id,omitempty"`
	Name      string        `gorm:"column:name;not null" json:"name"`
	Status    domain.Status `gorm:"column:status;not null" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (LocalFile) TableName() string { return "local_file" }

type LocalFileRepo interface {
	Upsert(dbc dbctx.Context, f *LocalFile) (*LocalFile, error)
	Get(dbc dbctx.Context, localRef uuid.UUID) (*LocalFile, error)
	List(dbc dbctx.Context) ([]*LocalFile, error)
	SetRemoteID(dbc dbctx.Context, localRef, remoteID uuid.UUID) error
	SetStatus(dbc dbctx.Context, localRef uuid.UUID, status domain.Status) error
	Delete(dbc dbctx.Context, localRef uuid.UUID) error
}

type localFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects the sqlite projection store and applies its schema.
func Open(path string, baseLog *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open projection store at %q: %w", path, err)
	}
	if err := db.AutoMigrate(&LocalFile{}); err != nil {
		return nil, fmt.Errorf("migrate projection store: %w", err)
	}
	return db, nil
}

func NewLocalFileRepo(db *gorm.DB, baseLog *logger.Logger) LocalFileRepo {
	repoLog := baseLog.With("repo", "LocalFileRepo")
	return &localFileRepo{db: db, log: repoLog}
}

func (r *localFileRepo) Upsert(dbc dbctx.Context, f *LocalFile) (*LocalFile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if f.LocalRef == uuid.Nil {
		f.LocalRef = uuid.New()
	}
	if f.Status == "" {
		f.Status = domain.StatusUploaded
	}

	if err := transaction.WithContext(dbc.Ctx).Save(f).Error; err != nil {
		return nil, err
	}
	return f, nil
}

func (r *localFileRepo) Get(dbc dbctx.Context, localRef uuid.UUID) (*LocalFile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var f LocalFile
	if err := transaction.WithContext(dbc.Ctx).
		Where("local_ref = ?", localRef).
		First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *localFileRepo) List(dbc dbctx.Context) ([]*LocalFile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*LocalFile
	if err := transaction.WithContext(dbc.Ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *localFileRepo) SetRemoteID(dbc dbctx.Context, localRef, remoteID uuid.UUID) error {
	return r.update(dbc, localRef, map[string]interface{}{"remote_id": remoteID})
}

func (r *localFileRepo) SetStatus(dbc dbctx.Context, localRef uuid.UUID, status domain.Status) error {
	return r.update(dbc, localRef, map[string]interface{}{"status": status})
}

func (r *localFileRepo) update(dbc dbctx.Context, localRef uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	updates["updated_at"] = time.Now().UTC()
	res := transaction.WithContext(dbc.Ctx).
		Model(&LocalFile{}).
		Where("local_ref = ?", localRef).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *localFileRepo) Delete(dbc dbctx.Context, localRef uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Where("local_ref = ?", localRef).
		Delete(&LocalFile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}
