package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docbridge/backend/internal/domain"
	"github.com/docbridge/backend/internal/http/response"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
	"github.com/docbridge/backend/internal/webapp/bridge"
	"github.com/docbridge/backend/internal/webapp/client"
	"github.com/docbridge/backend/internal/webapp/projection"
)

// CoreClient is the slice of the core API client the document surface uses.
type CoreClient interface {
	UploadFile(ctx context.Context, name, contentType string, r io.Reader) (*domain.FileRecord, error)
	DeleteFile(ctx context.Context, id uuid.UUID) (*domain.FileRecord, error)
}

type DocumentHandler struct {
	log    *logger.Logger
	core   CoreClient
	local  projection.LocalFileRepo
	bridge *bridge.StatusBridge
}

func NewDocumentHandler(
	log *logger.Logger,
	core CoreClient,
	local projection.LocalFileRepo,
	statusBridge *bridge.StatusBridge,
) *DocumentHandler {
	return &DocumentHandler{
		log:    log.With("handler", "DocumentHandler"),
		core:   core,
		local:  local,
		bridge: statusBridge,
	}
}

// Upload creates the local row first, then delegates to the core. If the
// core rejects or cannot be reached, the local row is removed again so the
// listing never shows a document the core does not have.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "no_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	local, err := h.local.Upsert(dbc, &projection.LocalFile{
		Name:   fh.Filename,
		Status: domain.StatusUploaded,
	})
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "local_store_failed", err)
		return
	}

	record, err := h.core.UploadFile(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		if derr := h.local.Delete(dbc, local.LocalRef); derr != nil && !errors.Is(derr, pkgerrors.ErrNotFound) {
			h.log.Error("Removing local row after failed upload", "error", derr, "local_ref", local.LocalRef)
		}
		h.respondCoreError(c, err, "upload_failed")
		return
	}

	if err := h.local.SetRemoteID(dbc, local.LocalRef, record.ID); err != nil {
		h.log.Error("Storing remote id failed", "error", err, "local_ref", local.LocalRef, "remote_id", record.ID)
	}
	local.RemoteID = &record.ID
	local.Status = record.Status
	if err := h.local.SetStatus(dbc, local.LocalRef, record.Status); err != nil {
		h.log.Error("Storing initial status failed", "error", err, "local_ref", local.LocalRef)
	}

	response.RespondCreated(c, local)
}

func (h *DocumentHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.local.List(dbc)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, rows)
}

func (h *DocumentHandler) GetStatus(c *gin.Context) {
	ref, ok := h.localRef(c)
	if !ok {
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	status, err := h.bridge.Resolve(dbc, ref)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "document_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "status_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"local_ref": ref, "status": status})
}

// Delete delegates to the core, then drops the local row. A core-side 404
// still drops the row: the document is gone either way.
func (h *DocumentHandler) Delete(c *gin.Context) {
	ref, ok := h.localRef(c)
	if !ok {
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	local, err := h.local.Get(dbc, ref)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "document_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}

	if local.RemoteID != nil {
		if _, err := h.core.DeleteFile(c.Request.Context(), *local.RemoteID); err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
			h.respondCoreError(c, err, "delete_failed")
			return
		}
	}

	if err := h.local.Delete(dbc, ref); err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		response.RespondError(c, http.StatusInternalServerError, "local_store_failed", err)
		return
	}
	response.RespondOK(c, local)
}

func (h *DocumentHandler) localRef(c *gin.Context) (uuid.UUID, bool) {
	ref, err := uuid.Parse(c.Param("ref"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_ref", err)
		return uuid.Nil, false
	}
	return ref, true
}

func (h *DocumentHandler) respondCoreError(c *gin.Context, err error, code string) {
	if errors.Is(err, client.ErrCoreUnavailable) {
		response.RespondError(c, http.StatusBadGateway, "core_unavailable", err)
		return
	}
	var herr *client.HTTPError
	if errors.As(err, &herr) && herr.StatusCode == http.StatusBadRequest {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}
	response.RespondError(c, http.StatusInternalServerError, code, err)
}
