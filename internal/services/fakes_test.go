package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/docbridge/backend/internal/clients/gcp"
	"github.com/docbridge/backend/internal/data/repos/files"
	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte

	putErr    error
	getErr    error
	deleteErr error

	putCalls    int
	deleteCalls int
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func (b *fakeBucket) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.putCalls++
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.objects[key] = data
	return nil
}

func (b *fakeBucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", key, pkgerrors.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBucket) Attrs(ctx context.Context, key string) (*gcp.ObjectAttrs, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", key, pkgerrors.ErrNotFound)
	}
	return &gcp.ObjectAttrs{Size: int64(len(data))}, nil
}

func (b *fakeBucket) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteCalls++
	if b.deleteErr != nil {
		return b.deleteErr
	}
	if _, ok := b.objects[key]; !ok {
		return fmt.Errorf("object %q: %w", key, pkgerrors.ErrNotFound)
	}
	delete(b.objects, key)
	return nil
}

func (b *fakeBucket) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

type fakePublisher struct {
	mu        sync.Mutex
	published []domain.IngestMessage
	err       error
}

func (p *fakePublisher) PublishIngest(ctx context.Context, msg domain.IngestMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeFileRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.FileRecord

	createErr error
	deleteErr error
}

func newFakeFileRecordRepo() *fakeFileRecordRepo {
	return &fakeFileRecordRepo{records: map[uuid.UUID]*domain.FileRecord{}}
}

func (r *fakeFileRecordRepo) Create(dbc dbctx.Context, record *domain.FileRecord) (*domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = domain.StatusUploaded
	}
	r.records[record.ID] = record
	return record, nil
}

func (r *fakeFileRecordRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return record, nil
}

func (r *fakeFileRecordRepo) GetStatus(dbc dbctx.Context, id uuid.UUID) (domain.Status, error) {
	record, err := r.GetByID(dbc, id)
	if err != nil {
		return "", err
	}
	return record.Status, nil
}

func (r *fakeFileRecordRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	record.Status = status
	return nil
}

func (r *fakeFileRecordRepo) List(dbc dbctx.Context) ([]*domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.FileRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	return out, nil
}

func (r *fakeFileRecordRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.records[id]; !ok {
		return pkgerrors.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *fakeFileRecordRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type fakeChunkRepo struct {
	mu     sync.Mutex
	chunks map[uuid.UUID][]*domain.Chunk

	deleteErr error
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{chunks: map[uuid.UUID][]*domain.Chunk{}}
}

func (r *fakeChunkRepo) CreateBatch(dbc dbctx.Context, chunks []*domain.Chunk) ([]*domain.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range chunks {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		r.chunks[c.FileRecordID] = append(r.chunks[c.FileRecordID], c)
	}
	return chunks, nil
}

func (r *fakeChunkRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, list := range r.chunks {
		for _, c := range list {
			if c.ID == id {
				return c, nil
			}
		}
	}
	return nil, pkgerrors.ErrNotFound
}

func (r *fakeChunkRepo) ListByFileID(dbc dbctx.Context, fileID uuid.UUID) ([]*domain.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Chunk{}, r.chunks[fileID]...), nil
}

func (r *fakeChunkRepo) Iter(dbc dbctx.Context, fileID uuid.UUID, batchSize int) *files.ChunkIterator {
	return nil
}

func (r *fakeChunkRepo) DeleteByFileID(dbc dbctx.Context, fileID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	n := int64(len(r.chunks[fileID]))
	delete(r.chunks, fileID)
	return n, nil
}
