// Package metrics derives performance metrics from trade-event collections:
// profit/loss, equity curve, drawdown, win rate, and per-group summaries.
// Everything here is a pure function of its inputs; metrics are recomputed
// from the full event collection on every query.
package metrics

import (
	"math"
	"sort"

	"github.com/trueedge/trueedge/internal/domain"
)

// Summary holds derived performance metrics for a collection of events.
// The JSON key set is a stable contract other tooling depends on.
type Summary struct {
	TotalTrades  int     `json:"total_trades"`
	TotalPnL     float64 `json:"total_pnl"`
	EndingEquity float64 `json:"ending_equity"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
}

// Compute derives a metrics summary from a collection of trade events and
// a starting balance.
//
// Events are walked in chronological order (stable sort on parsed
// timestamp; malformed timestamps sort first) to build the equity curve
// and peak-to-trough drawdown. Wins and losses count strictly positive and
// strictly negative pnl; zero-pnl events count toward neither. Monetary
// outputs are rounded to 2 decimal places at the boundary; internal
// accumulation uses full float precision.
func Compute(events []domain.TradeEvent, startingBalance float64) Summary {
	totalTrades := len(events)

	totalPnL := 0.0
	equity := startingBalance
	equityCurve := make([]float64, 0, totalTrades)

	for _, ev := range SortByTimestamp(events) {
		totalPnL += ev.PnL
		equity += ev.PnL
		equityCurve = append(equityCurve, equity)
	}

	maxDrawdown := 0.0
	if len(equityCurve) > 0 {
		peak := equityCurve[0]
		for _, point := range equityCurve {
			if point > peak {
				peak = point
			}
			if drawdown := peak - point; drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	wins := 0
	losses := 0
	for _, ev := range events {
		switch {
		case ev.PnL > 0:
			wins++
		case ev.PnL < 0:
			losses++
		}
	}

	winRate := 0.0
	if totalTrades > 0 {
		winRate = float64(wins) / float64(totalTrades) * 100.0
	}

	return Summary{
		TotalTrades:  totalTrades,
		TotalPnL:     round2(totalPnL),
		EndingEquity: round2(startingBalance + totalPnL),
		MaxDrawdown:  round2(maxDrawdown),
		Wins:         wins,
		Losses:       losses,
		WinRate:      round2(winRate),
	}
}

// SortByTimestamp returns the events stably sorted by parsed timestamp,
// ascending. The input slice is not modified. Events with absent or
// unparseable timestamps carry the minimum instant as their sort key, so
// they sort first and never raise.
func SortByTimestamp(events []domain.TradeEvent) []domain.TradeEvent {
	sorted := make([]domain.TradeEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ParsedTime().Before(sorted[j].ParsedTime())
	})
	return sorted
}

// EquityCurve returns the running balance after each event, in
// chronological order.
func EquityCurve(events []domain.TradeEvent, startingBalance float64) []float64 {
	curve := make([]float64, 0, len(events))
	equity := startingBalance
	for _, ev := range SortByTimestamp(events) {
		equity += ev.PnL
		curve = append(curve, equity)
	}
	return curve
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
