package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docbridge/backend/internal/clients/gcp"
	"github.com/docbridge/backend/internal/clients/redisq"
	"github.com/docbridge/backend/internal/http/response"
	"github.com/docbridge/backend/internal/pkg/dbctx"
	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
	"github.com/docbridge/backend/internal/pkg/logger"
	"github.com/docbridge/backend/internal/services"
)

type FileHandler struct {
	log      *logger.Logger
	ingest   services.IngestService
	files    services.FilesService
	deletion services.DeletionService
}

func NewFileHandler(
	log *logger.Logger,
	ingest services.IngestService,
	files services.FilesService,
	deletion services.DeletionService,
) *FileHandler {
	return &FileHandler{
		log:      log.With("handler", "FileHandler"),
		ingest:   ingest,
		files:    files,
		deletion: deletion,
	}
}

func (h *FileHandler) Upload(c *gin.Context) {
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

	contentType := fh.Header.Get("Content-Type")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	record, err := h.ingest.Ingest(dbc, fh.Filename, contentType, fh.Size, f)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
			return
		}
		var serr *gcp.StorageError
		if errors.As(err, &serr) {
			response.RespondError(c, http.StatusBadGateway, "storage_unavailable", err)
			return
		}
		var perr *redisq.PublishError
		if errors.As(err, &perr) {
			response.RespondError(c, http.StatusBadGateway, "queue_unavailable", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "ingest_failed", err)
		return
	}

	response.RespondCreated(c, record)
}

func (h *FileHandler) GetFile(c *gin.Context) {
	id, ok := h.fileID(c)
	if !ok {
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	record, err := h.files.GetFile(dbc, id)
	if err != nil {
		h.respondLookupError(c, id, err)
		return
	}
	response.RespondOK(c, record)
}

func (h *FileHandler) GetStatus(c *gin.Context) {
	id, ok := h.fileID(c)
	if !ok {
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	status, err := h.files.GetStatus(dbc, id)
	if err != nil {
		h.respondLookupError(c, id, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id, "status": status})
}

func (h *FileHandler) ListChunks(c *gin.Context) {
	id, ok := h.fileID(c)
	if !ok {
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	chunks, err := h.files.ListChunks(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_chunks_failed", err)
		return
	}
	response.RespondOK(c, chunks)
}

func (h *FileHandler) ListFiles(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	records, err := h.files.ListFiles(dbc)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_files_failed", err)
		return
	}
	response.RespondOK(c, records)
}

func (h *FileHandler) Download(c *gin.Context) {
	id, ok := h.fileID(c)
	if !ok {
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	record, rc, err := h.files.DownloadFile(dbc, id)
	if err != nil {
		h.respondLookupError(c, id, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Name))
	c.DataFromReader(http.StatusOK, record.SizeBytes, record.ContentType, rc, nil)
}

func (h *FileHandler) Delete(c *gin.Context) {
	id, ok := h.fileID(c)
	if !ok {
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	record, err := h.deletion.DeleteFile(dbc, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "file_not_found", err)
			return
		}
		var derr *services.DeletionError
		if errors.As(err, &derr) && derr.Step == "chunks" {
			// Payload and record are gone; report success with a note
			// so the caller is not pushed into retrying a delete that
			// already happened.
			h.log.Warn("Delete completed with pending chunk cleanup", "file_id", id)
			response.RespondOK(c, gin.H{"file": record, "note": "chunk cleanup pending"})
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, record)
}

func (h *FileHandler) fileID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *FileHandler) respondLookupError(c *gin.Context, id uuid.UUID, err error) {
	if errors.Is(err, pkgerrors.ErrNotFound) {
		response.RespondError(c, http.StatusNotFound, "file_not_found", err)
		return
	}
	h.log.Error("File lookup failed", "error", err, "file_id", id)
	response.RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
}
