package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/domain"
)

// Repository stores trade events in the ledger database.
// Each row carries normalized typed columns for filtering plus a verbatim
// serialized copy of the whole record; event_id uniqueness is enforced by
// the storage engine, which makes the check-and-insert atomic under
// concurrent appends.
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new trade-event repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "trade_events").Logger(),
	}
}

// Append inserts a validated trade event.
// Returns domain.ErrDuplicateEventID when a record with the same event_id
// already exists; the failed insert leaves no trace in the table.
func (r *Repository) Append(raw domain.RawEvent) error {
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to serialize trade event: %w", err)
	}

	ev := domain.FromRaw(raw)

	query := `
		INSERT INTO trade_events
		(event_id, account_id, strategy_id, environment, venue, timestamp,
		 symbol, side, order_type, quantity, quantity_type, price_open,
		 price_close, fees, pnl, state, raw_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.ledgerDB.Exec(query,
		ev.EventID,
		ev.AccountID,
		ev.StrategyID,
		string(ev.Environment),
		ev.Venue,
		ev.Timestamp,
		ev.Symbol,
		string(ev.Side),
		ev.OrderType,
		ev.Quantity,
		string(ev.QuantityType),
		ev.PriceOpen,
		ev.PriceClose,
		ev.Fees,
		ev.PnL,
		string(ev.State),
		string(rawJSON),
		time.Now().Unix(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEventID
		}
		return fmt.Errorf("failed to append trade event: %w", err)
	}

	r.log.Info().
		Str("event_id", ev.EventID).
		Str("account_id", ev.AccountID).
		Str("strategy_id", ev.StrategyID).
		Float64("pnl", ev.PnL).
		Msg("Trade event appended")

	return nil
}

// Query retrieves events matching the filter, reconstructed from raw_json.
// Rows whose stored record no longer parses are skipped with a warning
// rather than aborting the whole read.
func (r *Repository) Query(filter Filter) ([]domain.TradeEvent, error) {
	query := "SELECT raw_json FROM trade_events"
	var conditions []string
	var params []interface{}

	if filter.AccountID != "" {
		conditions = append(conditions, "account_id = ?")
		params = append(params, filter.AccountID)
	}
	if filter.StrategyID != "" {
		conditions = append(conditions, "strategy_id = ?")
		params = append(params, filter.StrategyID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.ledgerDB.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade events: %w", err)
	}
	defer rows.Close()

	var result []domain.TradeEvent
	for rows.Next() {
		var rawJSON string
		if err := rows.Scan(&rawJSON); err != nil {
			return nil, fmt.Errorf("failed to scan trade event: %w", err)
		}

		var raw domain.RawEvent
		if err := json.Unmarshal([]byte(rawJSON), &raw); err != nil {
			r.log.Warn().Err(err).Msg("Skipping stored trade event with unparseable raw_json")
			continue
		}

		result = append(result, domain.FromRaw(raw))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade events: %w", err)
	}

	return result, nil
}

// Count returns the total number of stored events
func (r *Repository) Count() (int, error) {
	var count int
	err := r.ledgerDB.QueryRow("SELECT COUNT(*) FROM trade_events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trade events: %w", err)
	}
	return count, nil
}

// isUniqueViolation reports whether an insert failed on the event_id
// uniqueness constraint. Matched on the error text so it works with both
// SQLite drivers in use (modernc in production, mattn in tests).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
