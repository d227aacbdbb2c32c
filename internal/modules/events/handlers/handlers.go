// Package handlers provides HTTP handlers for trade-event ingestion and
// retrieval.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/domain"
	notify "github.com/trueedge/trueedge/internal/events"
	"github.com/trueedge/trueedge/internal/modules/events"
)

// EventHandlers contains HTTP handlers for the ingestion and query
// boundaries of the event store.
type EventHandlers struct {
	store    events.Store
	notifier *notify.Notifier
	log      zerolog.Logger
}

// NewEventHandlers creates a new event handlers instance
func NewEventHandlers(store events.Store, notifier *notify.Notifier, log zerolog.Logger) *EventHandlers {
	return &EventHandlers{
		store:    store,
		notifier: notifier,
		log:      log.With().Str("handler", "events").Logger(),
	}
}

// RegisterRoutes mounts the event routes on a router
func (h *EventHandlers) RegisterRoutes(r chi.Router) {
	r.Post("/trade_event", h.HandleIngest)
	r.Get("/events", h.HandleList)
}

// HandleIngest validates and appends one trade event.
// POST /api/trade_event
//
// Responses: 200 ok, 400 with a field-level validation reason, 409 on
// duplicate event_id, 500 on internal storage failure.
func (h *EventHandlers) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var raw domain.RawEvent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	if err := events.Validate(raw); err != nil {
		h.log.Debug().Err(err).Msg("Trade event rejected by validator")
		h.writeError(w, http.StatusBadRequest, validationReason(err), err.Error())
		return
	}

	if err := h.store.Append(raw); err != nil {
		if errors.Is(err, domain.ErrDuplicateEventID) {
			h.writeError(w, http.StatusConflict, "duplicate_event_id", err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to append trade event")
		h.writeError(w, http.StatusInternalServerError, "internal", "Failed to store trade event")
		return
	}

	ev := domain.FromRaw(raw)
	h.notifier.Publish(notify.TradeEventLogged{
		EventID:    ev.EventID,
		AccountID:  ev.AccountID,
		StrategyID: ev.StrategyID,
		Symbol:     ev.Symbol,
		Side:       string(ev.Side),
		PnL:        ev.PnL,
		LoggedAt:   time.Now().UTC(),
	})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"event_id": ev.EventID,
	})
}

// HandleList returns stored events, optionally filtered.
// GET /api/events?account_id=&strategy_id=
func (h *EventHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := events.Filter{
		AccountID:  r.URL.Query().Get("account_id"),
		StrategyID: r.URL.Query().Get("strategy_id"),
	}

	result, err := h.store.Query(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query trade events")
		h.writeError(w, http.StatusInternalServerError, "internal", "Failed to query trade events")
		return
	}

	// Return the original records verbatim
	rawEvents := make([]domain.RawEvent, 0, len(result))
	for _, ev := range result {
		rawEvents = append(rawEvents, ev.Raw)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"count":  len(rawEvents),
		"events": rawEvents,
	})
}

// validationReason maps a validator error to its wire-level reason code.
func validationReason(err error) string {
	var missing *domain.MissingFieldsError
	var badEnum *domain.InvalidEnumError
	var nonNumeric *domain.NonNumericError
	switch {
	case errors.As(err, &missing):
		return "missing_fields"
	case errors.As(err, &badEnum):
		return "invalid_enum_value"
	case errors.As(err, &nonNumeric):
		return "non_numeric_field"
	default:
		return "validation"
	}
}

// writeJSON writes a JSON response
func (h *EventHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *EventHandlers) writeError(w http.ResponseWriter, status int, reason, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"reason":  reason,
		"message": message,
	})
}
