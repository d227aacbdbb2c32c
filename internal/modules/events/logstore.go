package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/domain"
)

// LogStore persists trade events as an append-only JSONL file: one JSON
// object per line, UTF-8. It is the file-based deployment of the Store
// contract. A mutex makes the uniqueness check and the append one atomic
// unit; the event_id index is rebuilt from the file on startup.
type LogStore struct {
	path string
	log  zerolog.Logger

	mu    sync.Mutex
	ids   map[string]struct{}
	count int
}

// NewLogStore opens (or creates) a JSONL event log at path.
// Existing lines are scanned to rebuild the uniqueness index; lines that
// fail to parse as JSON are skipped with a warning, never aborting the load.
func NewLogStore(path string, log zerolog.Logger) (*LogStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	s := &LogStore{
		path: path,
		log:  log.With().Str("store", "jsonl").Logger(),
		ids:  make(map[string]struct{}),
	}

	if err := s.loadIndex(); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the log file location
func (s *LogStore) Path() string {
	return s.path
}

// Append writes one event as a single JSON line.
// Returns domain.ErrDuplicateEventID when the event_id is already present.
// The id is indexed only after the write succeeds, so a failed write never
// leaves a duplicate-looking entry.
func (s *LogStore) Append(raw domain.RawEvent) error {
	line, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to serialize trade event: %w", err)
	}

	eventID := domain.StringField(raw, "event_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[eventID]; exists {
		return domain.ErrDuplicateEventID
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append to event log: %w", err)
	}

	s.ids[eventID] = struct{}{}
	s.count++

	s.log.Info().
		Str("event_id", eventID).
		Msg("Trade event appended")

	return nil
}

// Query re-reads the log and returns events matching the filter.
// Unparseable lines are skipped with a warning.
func (s *LogStore) Query(filter Filter) ([]domain.TradeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.TradeEvent
	err := s.scanLines(func(raw domain.RawEvent) {
		ev := domain.FromRaw(raw)
		if filter.Matches(ev) {
			result = append(result, ev)
		}
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Count returns the number of events in the log
func (s *LogStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, nil
}

// loadIndex rebuilds the event_id index and event count from the file.
func (s *LogStore) loadIndex() error {
	return s.scanLines(func(raw domain.RawEvent) {
		if id := domain.StringField(raw, "event_id"); id != "" {
			s.ids[id] = struct{}{}
		}
		s.count++
	})
}

// scanLines streams every parseable JSON line to fn. Missing file means an
// empty log. Callers must hold the mutex.
func (s *LogStore) scanLines(fn func(domain.RawEvent)) error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw domain.RawEvent
		if err := json.Unmarshal(line, &raw); err != nil {
			s.log.Warn().
				Int("line", lineNo).
				Err(err).
				Msg("Skipping invalid line in event log")
			continue
		}

		fn(raw)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read event log: %w", err)
	}

	return nil
}
