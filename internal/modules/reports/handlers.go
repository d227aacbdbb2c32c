package reports

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/modules/events"
)

// Handlers exposes report generation over HTTP.
type Handlers struct {
	store           events.Store
	generator       *Generator
	startingBalance float64
	log             zerolog.Logger
}

// NewHandlers creates a new report handlers instance
func NewHandlers(store events.Store, generator *Generator, startingBalance float64, log zerolog.Logger) *Handlers {
	return &Handlers{
		store:           store,
		generator:       generator,
		startingBalance: startingBalance,
		log:             log.With().Str("handler", "reports").Logger(),
	}
}

// RegisterRoutes mounts the report routes on a router
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/report", h.HandleGenerate)
}

// HandleGenerate renders a fresh HTML report from the full event store.
// POST /api/report
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.Query(events.Filter{})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query events for report")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status":  "error",
			"message": "Failed to query trade events",
		})
		return
	}

	path, err := h.generator.Generate(result, h.startingBalance)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to generate report")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status":  "error",
			"message": "Failed to generate report",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"path":   path,
		"events": len(result),
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
