package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/trueedge/trueedge/internal/config"
	notify "github.com/trueedge/trueedge/internal/events"
	"github.com/trueedge/trueedge/internal/modules/events"
)

func setupTestServer(t *testing.T) (*Server, *notify.Notifier) {
	dataDir := t.TempDir()
	log := zerolog.Nop()

	store, err := events.NewLogStore(filepath.Join(dataDir, "trade_events.jsonl"), log)
	require.NoError(t, err)

	notifier := notify.NewNotifier()
	srv := New(Config{
		Log:      log,
		Store:    store,
		Notifier: notifier,
		Config: &config.Config{
			DataDir:      dataDir,
			StoreBackend: config.BackendJSONL,
		},
		Port:    0,
		DevMode: true,
	})
	return srv, notifier
}

func TestRoutes_Registered(t *testing.T) {
	srv, _ := setupTestServer(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/trade_event"},
		{"GET", "/api/events"},
		{"GET", "/api/metrics/overall"},
		{"GET", "/api/metrics/by-strategy"},
		{"GET", "/api/metrics/by-account"},
		{"GET", "/api/metrics/distribution"},
		{"GET", "/api/system/status"},
		{"POST", "/api/report"},
		{"GET", "/api/events/ws"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, req)
			assert.NotEqual(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"trueedge"`)
}

// TestEventsWS_StreamsAppendedEvents connects a real websocket client
// through the full middleware stack and checks that published events
// reach it. The stream route is mounted outside the request-timeout
// group, so a tail is never cut off by the shared deadline.
func TestEventsWS_StreamsAppendedEvents(t *testing.T) {
	srv, notifier := setupTestServer(t)

	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/events/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Wait for the handler to register its subscription
	require.Eventually(t, func() bool {
		return notifier.SubscriberCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	published := notify.TradeEventLogged{
		EventID:    "evt_ws_001",
		AccountID:  "acc_a",
		StrategyID: "strat_1",
		Symbol:     "XAUUSD",
		Side:       "buy",
		PnL:        14.0,
		LoggedAt:   time.Now().UTC(),
	}
	notifier.Publish(published)

	var received notify.TradeEventLogged
	require.NoError(t, wsjson.Read(ctx, conn, &received))
	assert.Equal(t, "evt_ws_001", received.EventID)
	assert.Equal(t, 14.0, received.PnL)

	// The stream stays open for subsequent events
	notifier.Publish(notify.TradeEventLogged{EventID: "evt_ws_002"})
	require.NoError(t, wsjson.Read(ctx, conn, &received))
	assert.Equal(t, "evt_ws_002", received.EventID)
}

// TestEventsWS_UnsubscribesOnDisconnect checks that a closed client
// releases its notifier subscription.
func TestEventsWS_UnsubscribesOnDisconnect(t *testing.T) {
	srv, notifier := setupTestServer(t)

	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/events/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return notifier.SubscriberCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	require.Eventually(t, func() bool {
		return notifier.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
