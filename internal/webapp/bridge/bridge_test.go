package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
	"github.com/docbridge/backend/internal/webapp/client"
	"github.com/docbridge/backend/internal/webapp/projection"
)

type fakeCore struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]domain.Status
	err      error
	calls    atomic.Int64
	block    chan struct{}
}

func (f *fakeCore) GetStatus(ctx context.Context, id uuid.UUID) (domain.Status, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	s, ok := f.statuses[id]
	if !ok {
		return "", fmt.Errorf("file %s: %w", id, pkgerrors.ErrNotFound)
	}
	return s, nil
}

func newBridge(t *testing.T, core *fakeCore) (*StatusBridge, projection.LocalFileRepo) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	db, err := projection.Open(":memory:", log)
	if err != nil {
		t.Fatalf("projection.Open: %v", err)
	}
	repo := projection.NewLocalFileRepo(db, log)
	return New(log, core, repo), repo
}

func seedLocal(t *testing.T, repo projection.LocalFileRepo, remoteID *uuid.UUID, status domain.Status) *projection.LocalFile {
	t.Helper()
	dbc := dbctx.Context{Ctx: context.Background()}
	f, err := repo.Upsert(dbc, &projection.LocalFile{
		Name:     "report.pdf",
		RemoteID: remoteID,
		Status:   status,
	})
	if err != nil {
		t.Fatalf("seed local file: %v", err)
	}
	return f
}

func TestResolveNoRemoteID(t *testing.T) {
	core := &fakeCore{statuses: map[uuid.UUID]domain.Status{}}
	b, repo := newBridge(t, core)

	f := seedLocal(t, repo, nil, domain.StatusUploaded)
	dbc := dbctx.Context{Ctx: context.Background()}

	got, err := b.Resolve(dbc, f.LocalRef)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != domain.StatusUploaded {
		t.Fatalf("status = %q, want uploaded", got)
	}
	if core.calls.Load() != 0 {
		t.Fatal("core consulted despite missing remote id")
	}
}

func TestResolveOverwritesAndPersists(t *testing.T) {
	remoteID := uuid.New()
	core := &fakeCore{statuses: map[uuid.UUID]domain.Status{remoteID: domain.StatusEmbedding}}
	b, repo := newBridge(t, core)

	f := seedLocal(t, repo, &remoteID, domain.StatusParsing)
	dbc := dbctx.Context{Ctx: context.Background()}

	got, err := b.Resolve(dbc, f.LocalRef)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != domain.StatusEmbedding {
		t.Fatalf("status = %q, want embedding", got)
	}

	stored, err := repo.Get(dbc, f.LocalRef)
	if err != nil || stored.Status != domain.StatusEmbedding {
		t.Fatalf("persisted status = %q err=%v", stored.Status, err)
	}
}

func TestResolveAuthoritativeMissPersistsUnknown(t *testing.T) {
	remoteID := uuid.New()
	core := &fakeCore{statuses: map[uuid.UUID]domain.Status{}}
	b, repo := newBridge(t, core)

	// Even a terminal local value yields to an authoritative miss.
	f := seedLocal(t, repo, &remoteID, domain.StatusComplete)
	dbc := dbctx.Context{Ctx: context.Background()}

	got, err := b.Resolve(dbc, f.LocalRef)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != domain.StatusUnknown {
		t.Fatalf("status = %q, want unknown", got)
	}
	stored, _ := repo.Get(dbc, f.LocalRef)
	if stored.Status != domain.StatusUnknown {
		t.Fatalf("persisted status = %q, want unknown", stored.Status)
	}
}

func TestResolveTransportFailureKeepsLastObserved(t *testing.T) {
	remoteID := uuid.New()
	core := &fakeCore{err: fmt.Errorf("%w: connection refused", client.ErrCoreUnavailable)}
	b, repo := newBridge(t, core)

	f := seedLocal(t, repo, &remoteID, domain.StatusComplete)
	dbc := dbctx.Context{Ctx: context.Background()}

	got, err := b.Resolve(dbc, f.LocalRef)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// A terminal status observed earlier survives a flaky core.
	if got != domain.StatusComplete {
		t.Fatalf("status = %q, want complete", got)
	}
	stored, _ := repo.Get(dbc, f.LocalRef)
	if stored.Status != domain.StatusComplete {
		t.Fatalf("persisted status = %q, want complete", stored.Status)
	}
}

func TestResolveCoreServerErrorKeepsLastObserved(t *testing.T) {
	remoteID := uuid.New()
	core := &fakeCore{err: &client.HTTPError{StatusCode: 500, Message: "db down"}}
	b, repo := newBridge(t, core)

	f := seedLocal(t, repo, &remoteID, domain.StatusComplete)
	dbc := dbctx.Context{Ctx: context.Background()}

	// A core 5xx is as useless as no answer at all; it must not surface
	// as a hard failure or displace the last observed status.
	got, err := b.Resolve(dbc, f.LocalRef)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != domain.StatusComplete {
		t.Fatalf("status = %q, want complete", got)
	}
	stored, _ := repo.Get(dbc, f.LocalRef)
	if stored.Status != domain.StatusComplete {
		t.Fatalf("persisted status = %q, want complete", stored.Status)
	}
}

func TestResolveCoreServerErrorKeepsInProgress(t *testing.T) {
	remoteID := uuid.New()
	core := &fakeCore{err: &client.HTTPError{StatusCode: 503, Message: "overloaded"}}
	b, repo := newBridge(t, core)

	f := seedLocal(t, repo, &remoteID, domain.StatusParsing)
	dbc := dbctx.Context{Ctx: context.Background()}

	got, err := b.Resolve(dbc, f.LocalRef)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != domain.StatusParsing {
		t.Fatalf("status = %q, want parsing", got)
	}
}

func TestResolveMissingLocalRef(t *testing.T) {
	core := &fakeCore{statuses: map[uuid.UUID]domain.Status{}}
	b, _ := newBridge(t, core)

	dbc := dbctx.Context{Ctx: context.Background()}
	if _, err := b.Resolve(dbc, uuid.New()); err == nil {
		t.Fatal("expected error for unknown local ref")
	}
}

func TestResolveSingleflight(t *testing.T) {
	remoteID := uuid.New()
	core := &fakeCore{
		statuses: map[uuid.UUID]domain.Status{remoteID: domain.StatusChunking},
		block:    make(chan struct{}),
	}
	b, repo := newBridge(t, core)

	f := seedLocal(t, repo, &remoteID, domain.StatusParsing)
	dbc := dbctx.Context{Ctx: context.Background()}

	const n = 8
	var wg, started sync.WaitGroup
	results := make([]domain.Status, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			s, err := b.Resolve(dbc, f.LocalRef)
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			results[i] = s
		}(i)
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(core.block)
	wg.Wait()

	for i, s := range results {
		if s != domain.StatusChunking {
			t.Fatalf("result %d = %q, want chunking", i, s)
		}
	}
	if core.calls.Load() >= n {
		t.Fatalf("core called %d times for %d concurrent resolves", core.calls.Load(), n)
	}
}
