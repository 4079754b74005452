package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
)

const (
	metaTimeout = 30 * time.Second
	dataTimeout = 2 * time.Minute
)

// StorageError wraps a genuine object-store I/O failure. Absence is never a
// StorageError; it surfaces as pkgerrors.ErrNotFound so the deletion
// orchestrator can tell "already gone" from "store broken".
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("object store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ObjectAttrs is the subset of object metadata the handlers need.
type ObjectAttrs struct {
	Size        int64
	ContentType string
	Updated     time.Time
}

// BucketService is the object-store adapter: binary payloads keyed by a
// stable, deterministically derived name.
type BucketService interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Attrs(ctx context.Context, key string) (*ObjectAttrs, error)
	Delete(ctx context.Context, key string) error
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	bucketName := strings.TrimSpace(os.Getenv("FILE_GCS_BUCKET_NAME"))
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var FILE_GCS_BUCKET_NAME")
	}

	ctx := context.Background()
	stClient, err := newStorageClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("Object storage initialized",
		"bucket", bucketName,
		"emulator_host", strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")),
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		bucketName:    bucketName,
	}, nil
}

func newStorageClient(ctx context.Context) (*storage.Client, error) {
	if host := strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")); host != "" {
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	return storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
}

// StorageKey derives the object key for a file name. The mapping is
// deterministic: re-uploading the same name targets the same key, and
// collision handling stays a caller concern.
func StorageKey(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), "/")
}

func (bs *bucketService) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, dataTimeout)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	if err := w.Close(); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// IMPORTANT: do not `defer cancel()` before returning the reader; the
// context would be canceled immediately and callers would read 0 bytes.
// The cancel is attached to the reader's Close() instead.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketService) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, dataTimeout)

	r, err := bs.storageClient.Bucket(bs.bucketName).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("object %q: %w", key, pkgerrors.ErrNotFound)
		}
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (bs *bucketService) Attrs(ctx context.Context, key string) (*ObjectAttrs, error) {
	ctx, cancel := context.WithTimeout(ctx, metaTimeout)
	defer cancel()

	attrs, err := bs.storageClient.Bucket(bs.bucketName).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("object %q: %w", key, pkgerrors.ErrNotFound)
		}
		return nil, &StorageError{Op: "attrs", Key: key, Err: err}
	}
	return &ObjectAttrs{
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Updated:     attrs.Updated,
	}, nil
}

func (bs *bucketService) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, metaTimeout)
	defer cancel()

	o := bs.storageClient.Bucket(bs.bucketName).Object(key)
	if err := o.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("object %q: %w", key, pkgerrors.ErrNotFound)
		}
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}
