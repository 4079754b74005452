package projection

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
)

func testRepo(t *testing.T) LocalFileRepo {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	db, err := Open(":memory:", log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return NewLocalFileRepo(db, log)
}

func TestLocalFileRepo(t *testing.T) {
	repo := testRepo(t)
	dbc := dbctx.Context{Ctx: context.Background()}

	f, err := repo.Upsert(dbc, &LocalFile{Name: "report.pdf"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if f.LocalRef == uuid.Nil {
		t.Fatal("Upsert did not assign a local ref")
	}
	if f.Status != domain.StatusUploaded {
		t.Fatalf("new row status = %q", f.Status)
	}
	if f.RemoteID != nil {
		t.Fatal("new row already has a remote id")
	}

	remoteID := uuid.New()
	if err := repo.SetRemoteID(dbc, f.LocalRef, remoteID); err != nil {
		t.Fatalf("SetRemoteID: %v", err)
	}
	if err := repo.SetStatus(dbc, f.LocalRef, domain.StatusEmbedding); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	got, err := repo.Get(dbc, f.LocalRef)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RemoteID == nil || *got.RemoteID != remoteID {
		t.Fatalf("remote id = %v, want %s", got.RemoteID, remoteID)
	}
	if got.Status != domain.StatusEmbedding {
		t.Fatalf("status = %q", got.Status)
	}

	rows, err := repo.List(dbc)
	if err != nil || len(rows) != 1 {
		t.Fatalf("List: err=%v len=%d", err, len(rows))
	}

	if err := repo.Delete(dbc, f.LocalRef); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(dbc, f.LocalRef); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("Get after delete: err=%v", err)
	}
	if err := repo.Delete(dbc, f.LocalRef); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("second Delete: err=%v", err)
	}
}

func TestLocalFileRepoMissing(t *testing.T) {
	repo := testRepo(t)
	dbc := dbctx.Context{Ctx: context.Background()}

	ref := uuid.New()
	if _, err := repo.Get(dbc, ref); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("Get: err=%v", err)
	}
	if err := repo.SetStatus(dbc, ref, domain.StatusComplete); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("SetStatus: err=%v", err)
	}
}
