// Package events provides the in-process notification bus for appended
// trade events. Delivery is best-effort: subscribers that fall behind
// miss notifications, and consumers recompute from the store when they
// need the authoritative collection.
package events

import (
	"sync"
	"time"
)

// TradeEventLogged is published after a trade event has been durably
// appended to the store.
type TradeEventLogged struct {
	EventID    string    `json:"event_id"`
	AccountID  string    `json:"account_id"`
	StrategyID string    `json:"strategy_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	PnL        float64   `json:"pnl"`
	LoggedAt   time.Time `json:"logged_at"`
}

// Notifier fans TradeEventLogged notifications out to subscribers.
type Notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan TradeEventLogged
}

// NewNotifier creates a new notifier
func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[int]chan TradeEventLogged),
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
// The channel is buffered; Publish never blocks on a slow subscriber.
func (n *Notifier) Subscribe() (int, <-chan TradeEventLogged) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	ch := make(chan TradeEventLogged, 64)
	n.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, ok := n.subs[id]; ok {
		delete(n.subs, id)
		close(ch)
	}
}

// Publish delivers a notification to every subscriber that has buffer
// space; others are skipped.
func (n *Notifier) Publish(ev TradeEventLogged) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (n *Notifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
