package events

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trueedge/trueedge/internal/domain"
)

func testLogStore(t *testing.T) *LogStore {
	path := filepath.Join(t.TempDir(), "trade_events.jsonl")
	log := zerolog.New(nil).Level(zerolog.Disabled)
	store, err := NewLogStore(path, log)
	require.NoError(t, err)
	return store
}

func TestLogStore_AppendAndQuery(t *testing.T) {
	store := testLogStore(t)

	require.NoError(t, store.Append(testEvent("evt_001", "acc_a", "strat_1", 10)))
	require.NoError(t, store.Append(testEvent("evt_002", "acc_b", "strat_1", -5)))

	result, err := store.Query(Filter{})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "evt_001", result[0].EventID)
	assert.Equal(t, "evt_002", result[1].EventID)

	// One JSON object per line on disk
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 2)
}

func TestLogStore_AppendDuplicateEventID(t *testing.T) {
	store := testLogStore(t)

	require.NoError(t, store.Append(testEvent("evt_001", "acc_a", "strat_1", 10)))

	err := store.Append(testEvent("evt_001", "acc_b", "strat_2", -5))
	assert.ErrorIs(t, err, domain.ErrDuplicateEventID)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLogStore_ReopenRebuildsIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_events.jsonl")
	log := zerolog.New(nil).Level(zerolog.Disabled)

	store, err := NewLogStore(path, log)
	require.NoError(t, err)
	require.NoError(t, store.Append(testEvent("evt_001", "acc_a", "strat_1", 10)))

	// A fresh store on the same file must reject the same event_id
	reopened, err := NewLogStore(path, log)
	require.NoError(t, err)

	err = reopened.Append(testEvent("evt_001", "acc_a", "strat_1", 10))
	assert.ErrorIs(t, err, domain.ErrDuplicateEventID)

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLogStore_SkipsInvalidLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_events.jsonl")
	log := zerolog.New(nil).Level(zerolog.Disabled)

	store, err := NewLogStore(path, log)
	require.NoError(t, err)
	require.NoError(t, store.Append(testEvent("evt_001", "acc_a", "strat_1", 10)))

	// Corrupt the log with a truncated line, then an event after it
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"bad json` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, store.Append(testEvent("evt_002", "acc_a", "strat_1", -5)))

	reopened, err := NewLogStore(path, log)
	require.NoError(t, err)

	result, err := reopened.Query(Filter{})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "evt_001", result[0].EventID)
	assert.Equal(t, "evt_002", result[1].EventID)

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLogStore_QueryFilters(t *testing.T) {
	store := testLogStore(t)

	require.NoError(t, store.Append(testEvent("evt_001", "acc_a", "strat_1", 10)))
	require.NoError(t, store.Append(testEvent("evt_002", "acc_a", "strat_2", -5)))
	require.NoError(t, store.Append(testEvent("evt_003", "acc_b", "strat_1", 7)))

	result, err := store.Query(Filter{AccountID: "acc_a", StrategyID: "strat_2"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "evt_002", result[0].EventID)
}

func TestLogStore_ConcurrentAppendsSameEventID(t *testing.T) {
	store := testLogStore(t)

	const n = 16
	errs := make(chan error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- store.Append(testEvent("evt_race", "acc_a", "strat_1", 10))
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	successes, duplicates := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrDuplicateEventID):
			duplicates++
		default:
			t.Fatalf("unexpected append error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, duplicates)

	// Exactly one line made it to disk
	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "evt_race"))
}

func TestLogStore_MissingFileIsEmpty(t *testing.T) {
	store := testLogStore(t)

	result, err := store.Query(Filter{})
	require.NoError(t, err)
	assert.Empty(t, result)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
