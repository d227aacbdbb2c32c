// Package handlers provides HTTP handlers for the metrics endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/modules/events"
	"github.com/trueedge/trueedge/internal/modules/metrics"
)

// MetricsHandlers computes performance metrics over the event store on
// demand. Every request re-reads the store so results always reflect
// the latest appended events.
type MetricsHandlers struct {
	store           events.Store
	startingBalance float64
	log             zerolog.Logger
}

// NewMetricsHandlers creates a new metrics handlers instance
func NewMetricsHandlers(store events.Store, startingBalance float64, log zerolog.Logger) *MetricsHandlers {
	return &MetricsHandlers{
		store:           store,
		startingBalance: startingBalance,
		log:             log.With().Str("handler", "metrics").Logger(),
	}
}

// RegisterRoutes mounts the metrics routes on a router
func (h *MetricsHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/metrics/overall", h.HandleOverall)
	r.Get("/metrics/by-strategy", h.HandleByStrategy)
	r.Get("/metrics/by-account", h.HandleByAccount)
	r.Get("/metrics/distribution", h.HandleDistribution)
}

// HandleOverall returns the aggregate summary for all events matching
// the optional account_id / strategy_id filters.
// GET /api/metrics/overall
func (h *MetricsHandlers) HandleOverall(w http.ResponseWriter, r *http.Request) {
	filter := events.Filter{
		AccountID:  r.URL.Query().Get("account_id"),
		StrategyID: r.URL.Query().Get("strategy_id"),
	}

	result, err := h.store.Query(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query events for metrics")
		h.writeError(w, http.StatusInternalServerError, "Failed to query trade events")
		return
	}

	summary := metrics.Compute(result, h.startingBalance)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"filters": map[string]string{
			"account_id":  filter.AccountID,
			"strategy_id": filter.StrategyID,
		},
		"count":   len(result),
		"metrics": summary,
	})
}

// HandleByStrategy returns per-strategy summaries.
// GET /api/metrics/by-strategy
func (h *MetricsHandlers) HandleByStrategy(w http.ResponseWriter, r *http.Request) {
	h.handleGrouped(w, "strategy_id")
}

// HandleByAccount returns per-account summaries.
// GET /api/metrics/by-account
func (h *MetricsHandlers) HandleByAccount(w http.ResponseWriter, r *http.Request) {
	h.handleGrouped(w, "account_id")
}

func (h *MetricsHandlers) handleGrouped(w http.ResponseWriter, field string) {
	result, err := h.store.Query(events.Filter{})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query events for grouped metrics")
		h.writeError(w, http.StatusInternalServerError, "Failed to query trade events")
		return
	}

	summaries := metrics.GroupSummaries(result, field)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"group_by": field,
		"groups":   summaries,
	})
}

// HandleDistribution returns descriptive statistics over per-trade PnL.
// GET /api/metrics/distribution
func (h *MetricsHandlers) HandleDistribution(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.Query(events.Filter{})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query events for distribution")
		h.writeError(w, http.StatusInternalServerError, "Failed to query trade events")
		return
	}

	dist := metrics.ComputeDistribution(result)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"distribution": dist,
	})
}

// writeJSON writes a JSON response
func (h *MetricsHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *MetricsHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}
