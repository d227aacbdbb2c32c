package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trueedge/trueedge/internal/domain"
	"github.com/trueedge/trueedge/internal/modules/events"
)

func setupRouter(t *testing.T, startingBalance float64, seed []domain.RawEvent) *chi.Mux {
	path := filepath.Join(t.TempDir(), "trade_events.jsonl")
	log := zerolog.Nop()

	store, err := events.NewLogStore(path, log)
	require.NoError(t, err)
	for _, raw := range seed {
		require.NoError(t, store.Append(raw))
	}

	h := NewMetricsHandlers(store, startingBalance, log)
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func seedEvent(i int, accountID, strategyID string, pnl float64) domain.RawEvent {
	return domain.RawEvent{
		"event_id":    fmt.Sprintf("evt_%03d", i),
		"account_id":  accountID,
		"strategy_id": strategyID,
		"timestamp":   fmt.Sprintf("2024-06-01T%02d:00:00Z", 9+i),
		"pnl":         pnl,
	}
}

func get(t *testing.T, router *chi.Mux, path string) map[string]interface{} {
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestHandleOverall(t *testing.T) {
	router := setupRouter(t, 100, []domain.RawEvent{
		seedEvent(1, "acc_a", "strat_1", 10),
		seedEvent(2, "acc_a", "strat_1", -20),
		seedEvent(3, "acc_b", "strat_2", 5),
	})

	payload := get(t, router, "/metrics/overall")

	assert.Equal(t, float64(3), payload["count"])
	metrics := payload["metrics"].(map[string]interface{})
	assert.Equal(t, float64(3), metrics["total_trades"])
	assert.Equal(t, -5.0, metrics["total_pnl"])
	assert.Equal(t, 95.0, metrics["ending_equity"])
	assert.Equal(t, 20.0, metrics["max_drawdown"])
	assert.Equal(t, float64(2), metrics["wins"])
	assert.Equal(t, float64(1), metrics["losses"])
	assert.Equal(t, 66.67, metrics["win_rate"])
}

func TestHandleOverall_Filtered(t *testing.T) {
	router := setupRouter(t, 0, []domain.RawEvent{
		seedEvent(1, "acc_a", "strat_1", 10),
		seedEvent(2, "acc_b", "strat_2", -20),
	})

	payload := get(t, router, "/metrics/overall?account_id=acc_a")

	assert.Equal(t, float64(1), payload["count"])
	filters := payload["filters"].(map[string]interface{})
	assert.Equal(t, "acc_a", filters["account_id"])

	metrics := payload["metrics"].(map[string]interface{})
	assert.Equal(t, 10.0, metrics["total_pnl"])
}

func TestHandleByStrategy(t *testing.T) {
	router := setupRouter(t, 0, []domain.RawEvent{
		seedEvent(1, "acc_a", "strat_1", 10),
		seedEvent(2, "acc_a", "strat_2", -4),
		seedEvent(3, "acc_a", "strat_1", 6),
	})

	payload := get(t, router, "/metrics/by-strategy")
	assert.Equal(t, "strategy_id", payload["group_by"])

	groups := payload["groups"].(map[string]interface{})
	require.Len(t, groups, 2)

	strat1 := groups["strat_1"].(map[string]interface{})
	assert.Equal(t, float64(2), strat1["count"])
	assert.Equal(t, 16.0, strat1["metrics"].(map[string]interface{})["total_pnl"])
}

func TestHandleByAccount_MissingFieldGrouped(t *testing.T) {
	noAccount := seedEvent(2, "", "strat_1", -4)
	delete(noAccount, "account_id")

	router := setupRouter(t, 0, []domain.RawEvent{
		seedEvent(1, "acc_a", "strat_1", 10),
		noAccount,
	})

	payload := get(t, router, "/metrics/by-account")

	groups := payload["groups"].(map[string]interface{})
	require.Contains(t, groups, "<UNKNOWN>")
	unknown := groups["<UNKNOWN>"].(map[string]interface{})
	assert.Equal(t, float64(1), unknown["count"])
}

func TestHandleDistribution(t *testing.T) {
	router := setupRouter(t, 0, []domain.RawEvent{
		seedEvent(1, "acc_a", "strat_1", -10),
		seedEvent(2, "acc_a", "strat_1", 10),
		seedEvent(3, "acc_a", "strat_1", 30),
	})

	payload := get(t, router, "/metrics/distribution")

	dist := payload["distribution"].(map[string]interface{})
	assert.Equal(t, float64(3), dist["count"])
	assert.Equal(t, 10.0, dist["mean"])
	assert.Equal(t, -10.0, dist["min"])
	assert.Equal(t, 30.0, dist["max"])
}

func TestHandleDistribution_Empty(t *testing.T) {
	router := setupRouter(t, 0, nil)

	payload := get(t, router, "/metrics/distribution")
	dist := payload["distribution"].(map[string]interface{})
	assert.Equal(t, float64(0), dist["count"])
}
