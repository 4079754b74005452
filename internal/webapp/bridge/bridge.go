// Package bridge reconciles the local status projection with the core API.
package bridge

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
	"github.com/docbridge/backend/internal/webapp/projection"
)

// CoreStatusClient is the slice of the core API client the bridge needs.
type CoreStatusClient interface {
	GetStatus(ctx context.Context, id uuid.UUID) (domain.Status, error)
}

// StatusBridge resolves the freshest knowable status for a local document.
//
// Resolution policy:
//   - no remote id yet: the local value stands, nothing to ask the core;
//   - core answers: that answer overwrites the local value and is persisted;
//   - core says 404: the document is authoritatively gone, `unknown` is
//     persisted even over a terminal local value;
//   - any other core failure (unreachable, timed out, 5xx): the last
//     persisted value stands (a previously observed `complete` or `failed`
//     is never degraded to `unknown` just because the core had a bad
//     moment), falling back to `unknown` only when nothing was ever
//     observed. A status read never hard-fails past this bridge.
type StatusBridge struct {
	log   *logger.Logger
	core  CoreStatusClient
	local projection.LocalFileRepo

	group singleflight.Group
}

func New(baseLog *logger.Logger, core CoreStatusClient, local projection.LocalFileRepo) *StatusBridge {
	return &StatusBridge{
		log:   baseLog.With("service", "StatusBridge"),
		core:  core,
		local: local,
	}
}

// Resolve returns the current status for localRef. Concurrent resolves of
// the same ref share one core round trip.
func (b *StatusBridge) Resolve(dbc dbctx.Context, localRef uuid.UUID) (domain.Status, error) {
	v, err, _ := b.group.Do(localRef.String(), func() (interface{}, error) {
		return b.resolve(dbc, localRef)
	})
	if err != nil {
		return "", err
	}
	return v.(domain.Status), nil
}

func (b *StatusBridge) resolve(dbc dbctx.Context, localRef uuid.UUID) (domain.Status, error) {
	f, err := b.local.Get(dbc, localRef)
	if err != nil {
		return "", err
	}

	if f.RemoteID == nil {
		if f.Status == "" {
			return domain.StatusUnknown, nil
		}
		return f.Status, nil
	}

	remote, err := b.core.GetStatus(dbc.Ctx, *f.RemoteID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			if perr := b.local.SetStatus(dbc, localRef, domain.StatusUnknown); perr != nil {
				b.log.Error("Persisting unknown status failed", "error", perr, "local_ref", localRef)
			}
			return domain.StatusUnknown, nil
		}
		b.log.Warn("Core status read failed, serving last observed status",
			"error", err, "local_ref", localRef, "status", f.Status)
		if f.Status == "" {
			return domain.StatusUnknown, nil
		}
		return f.Status, nil
	}

	if remote != f.Status {
		if perr := b.local.SetStatus(dbc, localRef, remote); perr != nil {
			b.log.Error("Persisting refreshed status failed", "error", perr, "local_ref", localRef)
		}
	}
	return remote, nil
}
