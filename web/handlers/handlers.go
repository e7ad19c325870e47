// Package handlers provides the HTTP API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/parleylab/parley/internal/engine"
	"github.com/parleylab/parley/internal/export"
	"github.com/parleylab/parley/internal/oracle"
	"github.com/parleylab/parley/internal/persona"
	"github.com/parleylab/parley/internal/scenario"
	"github.com/parleylab/parley/internal/storage"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine    *engine.Engine
	oracle    oracle.Oracle
	storage   storage.Storage
	scenarios *scenario.Loader
	maxRounds int
	logger    *slog.Logger
}

// New creates a new Handler.
func New(e *engine.Engine, o oracle.Oracle, store storage.Storage, scenarios *scenario.Loader, maxRounds int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if scenarios == nil {
		scenarios = scenario.NewLoader()
	}
	return &Handler{
		engine:    e,
		oracle:    o,
		storage:   store,
		scenarios: scenarios,
		maxRounds: maxRounds,
		logger:    logger,
	}
}

// Router builds the API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/negotiations", h.handleListNegotiations)
		r.Post("/negotiations", h.handleStartNegotiation)
		r.Get("/negotiations/{id}", h.handleGetNegotiation)
		r.Get("/negotiations/{id}/export", h.handleExportNegotiation)
		r.Get("/stats", h.handleStats)
		r.Get("/scenarios", h.handleScenarios)
		r.Get("/personas", h.handlePersonas)
	})
	return r
}

func (h *Handler) handleListNegotiations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.Filter{
		Scenario: q.Get("scenario"),
		PersonaA: q.Get("persona_a"),
		PersonaB: q.Get("persona_b"),
	}
	limit := 50
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := h.storage.ListNegotiations(r.Context(), filter, limit)
	if err != nil {
		h.logger.Error("failed to list negotiations", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list negotiations")
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleGetNegotiation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.storage.GetNegotiation(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "negotiation not found")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleExportNegotiation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.storage.GetNegotiation(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "negotiation not found")
		return
	}

	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatJSON
	}
	exporter, err := export.GetExporter(format)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch format {
	case export.FormatPDF:
		w.Header().Set("Content-Type", "application/pdf")
	case export.FormatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "application/json")
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+export.GenerateFilename(result, exporter.FileExtension()))
	if err := exporter.Export(result, w); err != nil {
		h.logger.Error("export failed", "id", id, "format", format, "error", err)
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.storage.Statistics(r.Context())
	if err != nil {
		h.logger.Error("failed to compute statistics", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleScenarios(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	var out []entry
	for _, name := range h.scenarios.List() {
		sc := h.scenarios.Get(name)
		out = append(out, entry{Name: sc.Name, Description: sc.Description})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handlePersonas(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, persona.DefaultPersonas())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
