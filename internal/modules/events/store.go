package events

import (
	"github.com/trueedge/trueedge/internal/domain"
)

// Filter narrows a query to events matching the supplied identifiers.
// An empty field matches all values; filters are AND-combined.
type Filter struct {
	AccountID  string
	StrategyID string
}

// Matches reports whether an event satisfies the filter.
func (f Filter) Matches(ev domain.TradeEvent) bool {
	if f.AccountID != "" && ev.AccountID != f.AccountID {
		return false
	}
	if f.StrategyID != "" && ev.StrategyID != f.StrategyID {
		return false
	}
	return true
}

// Store is the durable, idempotent collection of validated trade events.
// Append refuses a second record under the same event_id with
// domain.ErrDuplicateEventID rather than overwriting or duplicating.
// Query returns events in no guaranteed order; chronological sorting is
// the metrics engine's responsibility.
type Store interface {
	Append(raw domain.RawEvent) error
	Query(filter Filter) ([]domain.TradeEvent, error)
	Count() (int, error)
}
