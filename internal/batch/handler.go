package batch

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/llm/failover"
	"resume-ingest/internal/shared/server/respond"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/internal/shared/util"
)

const maxArchiveSize = 200 << 20 // 200MB

// Handler wires HTTP handlers to the pipeline.
type Handler struct {
	Pipeline *Pipeline
	TempDir  string
}

// NewHandler constructs a Handler.
func NewHandler(p *Pipeline) *Handler {
	return &Handler{Pipeline: p}
}

// RegisterRoutes attaches batch routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/batches", h.create)
}

func (h *Handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxArchiveSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	name, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer src.Close()

	// zip needs random access, so spool the upload to a temp file.
	tmp, err := os.CreateTemp(h.TempDir, "batch-*.zip")
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to stage upload", nil)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, src)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to stage upload", nil)
		return
	}

	c.Set("batchFile", name)
	telemetry.Info("batch.upload.received", map[string]any{
		"file":       name,
		"size_bytes": size,
		"request_id": c.GetString("requestId"),
	})

	summary, err := h.Pipeline.Run(c.Request.Context(), tmp, size)
	if err != nil {
		switch {
		case errors.Is(err, ErrBusy):
			respond.Error(c, http.StatusConflict, "batch_in_progress", err.Error(), nil)
		case errors.Is(err, ErrInvalidArchive):
			respond.Error(c, http.StatusBadRequest, "validation_error", "file is not a valid zip archive", nil)
		case failover.IsFatal(err):
			respond.Error(c, http.StatusServiceUnavailable, "llm_unavailable", "all completion credentials failed; batch stopped", summary)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "batch failed", summary)
		}
		return
	}

	respond.OK(c, summary)
}
