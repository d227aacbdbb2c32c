package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishReachesAllSubscribers(t *testing.T) {
	n := NewNotifier()

	_, ch1 := n.Subscribe()
	_, ch2 := n.Subscribe()
	assert.Equal(t, 2, n.SubscriberCount())

	ev := TradeEventLogged{EventID: "evt_001", PnL: 14.0, LoggedAt: time.Now()}
	n.Publish(ev)

	got1 := <-ch1
	got2 := <-ch2
	assert.Equal(t, "evt_001", got1.EventID)
	assert.Equal(t, "evt_001", got2.EventID)
}

func TestNotifier_UnsubscribeClosesChannel(t *testing.T) {
	n := NewNotifier()

	id, ch := n.Subscribe()
	n.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, n.SubscriberCount())

	// Publishing with no subscribers is a no-op
	n.Publish(TradeEventLogged{EventID: "evt_002"})

	// Unsubscribing twice is safe
	n.Unsubscribe(id)
}

func TestNotifier_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	n := NewNotifier()

	_, ch := n.Subscribe()

	// Fill the buffer without draining; extra publishes must not block
	for i := 0; i < 200; i++ {
		n.Publish(TradeEventLogged{EventID: "evt"})
	}

	// The buffer holds what it could, the rest was dropped
	require.Equal(t, 64, len(ch))
}
