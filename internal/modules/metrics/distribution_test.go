package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trueedge/trueedge/internal/domain"
)

func TestComputeDistribution_Empty(t *testing.T) {
	assert.Equal(t, Distribution{}, ComputeDistribution(nil))
}

func TestComputeDistribution_SingleEvent(t *testing.T) {
	events := []domain.TradeEvent{
		tradeAt("2024-06-01T10:00:00Z", 12.5),
	}

	dist := ComputeDistribution(events)

	assert.Equal(t, 1, dist.Count)
	assert.Equal(t, 12.5, dist.Mean)
	assert.Equal(t, 0.0, dist.StdDev)
	assert.Equal(t, 12.5, dist.Min)
	assert.Equal(t, 12.5, dist.Median)
	assert.Equal(t, 12.5, dist.Max)
}

func TestComputeDistribution_MultipleEvents(t *testing.T) {
	events := []domain.TradeEvent{
		tradeAt("2024-06-01T10:00:00Z", -10),
		tradeAt("2024-06-01T11:00:00Z", 0),
		tradeAt("2024-06-01T12:00:00Z", 10),
		tradeAt("2024-06-01T13:00:00Z", 20),
	}

	dist := ComputeDistribution(events)

	assert.Equal(t, 4, dist.Count)
	assert.Equal(t, 5.0, dist.Mean)
	assert.Equal(t, -10.0, dist.Min)
	assert.Equal(t, 20.0, dist.Max)
	assert.True(t, dist.StdDev > 0)
	// Empirical quantile picks an actual sample value
	assert.Contains(t, []float64{0.0, 10.0}, dist.Median)
}
