package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/trueedge/trueedge/internal/domain"
)

// Distribution describes the shape of the per-event PnL sample.
// Unlike Summary it is a diagnostic payload, not part of the stable
// summary contract.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// ComputeDistribution derives PnL distribution statistics from a
// collection of events. All values are rounded to 2 decimal places.
// An empty collection yields the zero distribution.
func ComputeDistribution(events []domain.TradeEvent) Distribution {
	if len(events) == 0 {
		return Distribution{}
	}

	pnls := make([]float64, len(events))
	for i, ev := range events {
		pnls[i] = ev.PnL
	}
	sort.Float64s(pnls)

	mean, std := stat.MeanStdDev(pnls, nil)
	// MeanStdDev returns NaN stddev for a single sample
	if len(pnls) < 2 {
		std = 0
	}

	return Distribution{
		Count:  len(pnls),
		Mean:   round2(mean),
		StdDev: round2(std),
		Min:    round2(pnls[0]),
		Median: round2(stat.Quantile(0.5, stat.Empirical, pnls, nil)),
		Max:    round2(pnls[len(pnls)-1]),
	}
}
