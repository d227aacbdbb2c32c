// Package main generates simulated trade events and submits them to a
// running TRUEEDGE server, or appends them directly to a JSONL event log
// when no server URL is given.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/trueedge/trueedge/internal/domain"
	"github.com/trueedge/trueedge/internal/modules/events"
	"github.com/trueedge/trueedge/pkg/logger"
)

func main() {
	numTrades := flag.Int("n", 20, "number of simulated trades to generate")
	serverURL := flag.String("server", "", "server base URL, e.g. http://localhost:8080 (empty: append to a JSONL log directly)")
	dataDir := flag.String("data-dir", "data", "data directory for direct JSONL append")
	seed := flag.Int64("seed", 0, "random seed (0: time-based)")
	flag.Parse()

	log := logger.New(logger.Config{Level: "info", Pretty: true})

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	// Space trades a few minutes apart, ending roughly now
	baseTime := time.Now().UTC().Add(-time.Duration(*numTrades) * 5 * time.Minute)

	var submit func(domain.RawEvent) error
	if *serverURL != "" {
		submit = func(raw domain.RawEvent) error {
			return postEvent(*serverURL, raw)
		}
	} else {
		logPath := filepath.Join(*dataDir, "trade_events.jsonl")
		if err := os.MkdirAll(*dataDir, 0755); err != nil {
			log.Fatal().Err(err).Msg("Failed to create data directory")
		}
		store, err := events.NewLogStore(logPath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open JSONL event log")
		}
		submit = store.Append
	}

	logged := 0
	for i := 0; i < *numTrades; i++ {
		event := buildSimulatedEvent(rng, i, baseTime)
		if err := submit(event); err != nil {
			log.Error().Err(err).Int("index", i).Msg("Failed to submit simulated event")
			continue
		}
		logged++
	}

	log.Info().
		Int("requested", *numTrades).
		Int("logged", logged).
		Msg("Simulation complete")
}

// buildSimulatedEvent builds one demo trade event. Prices random-walk
// around a center price and PnL is a rough move-times-size approximation,
// good enough to exercise the metrics pipeline.
func buildSimulatedEvent(rng *rand.Rand, index int, baseTime time.Time) domain.RawEvent {
	ts := baseTime.Add(time.Duration(index) * 5 * time.Minute).Format("2006-01-02T15:04:05Z")

	side := "buy"
	if rng.Intn(2) == 1 {
		side = "sell"
	}

	const centerPrice = 2380.0
	priceOpen := centerPrice + rng.Float64()*20 - 10
	priceClose := priceOpen + rng.Float64()*10 - 5

	fee := -1.00
	pnl := (priceClose-priceOpen)*0.10*100 + fee

	return domain.RawEvent{
		"event_id":           fmt.Sprintf("evt_sim_%s", uuid.New().String()),
		"account_id":         "acc_demo_sim_001",
		"strategy_id":        "strat_sim_v1",
		"environment":        "demo",
		"venue":              "DEMO-SIM",
		"timestamp":          ts,
		"symbol":             "XAUUSD",
		"side":               side,
		"order_type":         "market",
		"quantity":           0.10,
		"quantity_type":      "lots",
		"price_open":         round2(priceOpen),
		"price_close":        round2(priceClose),
		"fees":               round2(fee),
		"pnl":                round2(pnl),
		"state":              "closed",
		"linked_position_id": fmt.Sprintf("pos_sim_%04d", index),
		"tags":               []string{"demo_sim", "xau"},
		"metadata": map[string]interface{}{
			"notes": "Simulated trade",
		},
	}
}

// postEvent submits one event to the ingestion endpoint.
func postEvent(baseURL string, raw domain.RawEvent) error {
	body, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	resp, err := http.Post(baseURL+"/api/trade_event", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to POST event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server rejected event: %s: %s", resp.Status, string(msg))
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
