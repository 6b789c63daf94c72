package candidates

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/server/respond"
	"resume-ingest/internal/shared/telemetry"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches record routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/records", h.search)
	rg.GET("/records/export.xlsx", h.export)
}

type searchResponse struct {
	Columns []string       `json:"columns"`
	Count   int            `json:"count"`
	Records []StoredRecord `json:"records"`
}

func (h *Handler) search(c *gin.Context) {
	records, ok := h.runSearch(c)
	if !ok {
		return
	}
	respond.OK(c, searchResponse{Columns: Columns, Count: len(records), Records: records})
}

func (h *Handler) export(c *gin.Context) {
	records, ok := h.runSearch(c)
	if !ok {
		return
	}
	data, err := ExportXLSX(records)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build export", nil)
		return
	}
	name := "candidates-" + time.Now().Format("20060102-150405") + ".xlsx"
	respond.Attachment(c, name, xlsxContentType, data)
}

func (h *Handler) runSearch(c *gin.Context) ([]StoredRecord, bool) {
	f := Filters{
		CreatedAt:  c.Query("created_at"),
		Graduation: c.Query("graduation"),
		Experience: c.Query("experience"),
		Mobile:     c.Query("mobile"),
	}
	if f.IsEmpty() {
		respond.Error(c, http.StatusBadRequest, "validation_error", ErrEmptyFilters.Error(), nil)
		return nil, false
	}

	records, err := h.Svc.Search(c.Request.Context(), f)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidFilters):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			telemetry.Error("records.search.failed", map[string]any{"error": err.Error()})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to search records", nil)
		}
		return nil, false
	}
	c.Set("recordCount", len(records))
	return records, true
}
