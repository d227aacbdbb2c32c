package metrics

import (
	"github.com/trueedge/trueedge/internal/domain"
)

// UnknownGroupKey is the sentinel group for events missing the grouping field.
const UnknownGroupKey = "<UNKNOWN>"

// Groups is an ordered partition of events: group keys in insertion order
// of first occurrence, each mapped to its events in input order.
type Groups struct {
	keys   []string
	events map[string][]domain.TradeEvent
}

// Keys returns the group keys in insertion order of first occurrence.
func (g *Groups) Keys() []string {
	return g.keys
}

// Events returns the events for a group key.
func (g *Groups) Events(key string) []domain.TradeEvent {
	return g.events[key]
}

// Len returns the number of groups.
func (g *Groups) Len() int {
	return len(g.keys)
}

// GroupBy partitions events by the stringified value of a raw field.
// Events missing the field map to UnknownGroupKey. Groups are not sorted
// internally; Compute performs its own chronological sort per group.
func GroupBy(events []domain.TradeEvent, field string) *Groups {
	g := &Groups{events: make(map[string][]domain.TradeEvent)}

	for _, ev := range events {
		key := UnknownGroupKey
		if _, ok := ev.Raw[field]; ok {
			key = domain.StringField(ev.Raw, field)
		}

		if _, seen := g.events[key]; !seen {
			g.keys = append(g.keys, key)
		}
		g.events[key] = append(g.events[key], ev)
	}

	return g
}

// GroupSummary pairs a group's event count with its computed metrics.
type GroupSummary struct {
	Count   int     `json:"count"`
	Metrics Summary `json:"metrics"`
}

// GroupSummaries partitions events by field and computes a per-group
// summary with a zero starting balance, preserving group order.
func GroupSummaries(events []domain.TradeEvent, field string) map[string]GroupSummary {
	groups := GroupBy(events, field)

	result := make(map[string]GroupSummary, groups.Len())
	for _, key := range groups.Keys() {
		groupEvents := groups.Events(key)
		result[key] = GroupSummary{
			Count:   len(groupEvents),
			Metrics: Compute(groupEvents, 0.0),
		}
	}

	return result
}
