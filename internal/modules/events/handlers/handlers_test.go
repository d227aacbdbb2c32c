package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trueedge/trueedge/internal/domain"
	notify "github.com/trueedge/trueedge/internal/events"
	"github.com/trueedge/trueedge/internal/modules/events"
)

func setupRouter(t *testing.T) (*chi.Mux, *notify.Notifier) {
	path := filepath.Join(t.TempDir(), "trade_events.jsonl")
	log := zerolog.Nop()

	store, err := events.NewLogStore(path, log)
	require.NoError(t, err)

	notifier := notify.NewNotifier()
	h := NewEventHandlers(store, notifier, log)

	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router, notifier
}

func validEventBody() domain.RawEvent {
	return domain.RawEvent{
		"event_id":      "evt_001",
		"account_id":    "acc_001",
		"strategy_id":   "strat_v1",
		"environment":   "demo",
		"venue":         "DEMO-SIM",
		"timestamp":     "2024-06-01T12:00:00Z",
		"symbol":        "XAUUSD",
		"side":          "buy",
		"order_type":    "market",
		"quantity":      0.10,
		"quantity_type": "lots",
		"price_open":    2380.00,
		"price_close":   2381.50,
		"fees":          -1.00,
		"pnl":           14.00,
		"state":         "closed",
	}
}

func postEvent(t *testing.T, router *chi.Mux, event domain.RawEvent) *httptest.ResponseRecorder {
	body, err := json.Marshal(event)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/trade_event", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestHandleIngest_ValidEvent(t *testing.T) {
	router, _ := setupRouter(t)

	rec := postEvent(t, router, validEventBody())
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "evt_001", payload["event_id"])
}

func TestHandleIngest_InvalidJSON(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest("POST", "/trade_event", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody(t, rec)["reason"])
}

func TestHandleIngest_ValidationFailures(t *testing.T) {
	testCases := []struct {
		name       string
		mutate     func(domain.RawEvent)
		wantReason string
	}{
		{
			"missing field",
			func(e domain.RawEvent) { delete(e, "pnl") },
			"missing_fields",
		},
		{
			"invalid enum",
			func(e domain.RawEvent) { e["side"] = "long" },
			"invalid_enum_value",
		},
		{
			"non-numeric field",
			func(e domain.RawEvent) { e["quantity"] = "abc" },
			"non_numeric_field",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := setupRouter(t)

			event := validEventBody()
			tc.mutate(event)

			rec := postEvent(t, router, event)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.wantReason, decodeBody(t, rec)["reason"])
		})
	}
}

func TestHandleIngest_DuplicateEventID(t *testing.T) {
	router, _ := setupRouter(t)

	require.Equal(t, http.StatusOK, postEvent(t, router, validEventBody()).Code)

	rec := postEvent(t, router, validEventBody())
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_event_id", decodeBody(t, rec)["reason"])
}

func TestHandleIngest_PublishesNotification(t *testing.T) {
	router, notifier := setupRouter(t)

	_, ch := notifier.Subscribe()

	require.Equal(t, http.StatusOK, postEvent(t, router, validEventBody()).Code)

	select {
	case ev := <-ch:
		assert.Equal(t, "evt_001", ev.EventID)
		assert.Equal(t, 14.00, ev.PnL)
	default:
		t.Fatal("expected a TradeEventLogged notification")
	}
}

func TestHandleList_Filters(t *testing.T) {
	router, _ := setupRouter(t)

	first := validEventBody()
	second := validEventBody()
	second["event_id"] = "evt_002"
	second["account_id"] = "acc_other"

	require.Equal(t, http.StatusOK, postEvent(t, router, first).Code)
	require.Equal(t, http.StatusOK, postEvent(t, router, second).Code)

	req := httptest.NewRequest("GET", "/events?account_id=acc_other", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, float64(1), payload["count"])

	eventsList, ok := payload["events"].([]interface{})
	require.True(t, ok)
	require.Len(t, eventsList, 1)
	raw := eventsList[0].(map[string]interface{})
	assert.Equal(t, "evt_002", raw["event_id"])
}

func TestHandleList_Empty(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/events", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, float64(0), payload["count"])
}
