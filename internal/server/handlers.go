package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vizor-ai/vizor/internal/apperr"
	"github.com/vizor-ai/vizor/internal/catalog"
	"github.com/vizor-ai/vizor/internal/model"
	"github.com/vizor-ai/vizor/internal/service/query"
)

// Pinger reports database connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	querySvc            *query.Service
	catalog             *catalog.Catalog
	db                  Pinger
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
}

// HandlersDeps holds all dependencies for constructing Handlers.
type HandlersDeps struct {
	QuerySvc            *query.Service
	Catalog             *catalog.Catalog
	DB                  Pinger
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		querySvc:            d.QuerySvc,
		catalog:             d.Catalog,
		db:                  d.DB,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
	}
}

// HandleQuery handles POST /v1/query: one question in, one chart payload out.
func (h *Handlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req model.QueryRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, r, http.StatusBadRequest, "bad_request", "question is required")
		return
	}
	if len(question) > model.MaxQuestionLen {
		writeError(w, r, http.StatusBadRequest, "bad_request", "question exceeds maximum length")
		return
	}

	answer, err := h.querySvc.Answer(r.Context(), question)
	if err != nil {
		h.logger.Warn("query failed",
			"question", question,
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
		writeJSON(w, r, apperr.HTTPStatus(err), model.QueryResponse{
			Success:  false,
			Question: question,
			Error:    err.Error(),
		})
		return
	}

	writeJSON(w, r, http.StatusOK, model.QueryResponse{
		Success:   true,
		Question:  answer.Question,
		SQL:       answer.SQL,
		ChartType: answer.ChartType,
		Message:   answer.Message,
		Data:      &answer.Data,
	})
}

// HandleSchema handles GET /v1/schema: the catalog's table→columns mapping.
func (h *Handlers) HandleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.catalog.Describe(r.Context())
	if err != nil {
		writeError(w, r, apperr.HTTPStatus(err), string(apperr.KindOf(err)), err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, schema)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, map[string]any{
		"status":         status,
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}
