package database

// schemas maps database names to their embedded schema definitions.
// The ledger schema stores one row per trade event: normalized typed columns
// for filtering plus a verbatim serialized copy of the whole record.
var schemas = map[string]string{
	"ledger": ledgerSchema,
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS trade_events (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id      TEXT NOT NULL UNIQUE,
    account_id    TEXT NOT NULL,
    strategy_id   TEXT NOT NULL,
    environment   TEXT NOT NULL,
    venue         TEXT NOT NULL,
    timestamp     TEXT NOT NULL,
    symbol        TEXT NOT NULL,
    side          TEXT NOT NULL,
    order_type    TEXT NOT NULL,
    quantity      REAL NOT NULL DEFAULT 0,
    quantity_type TEXT NOT NULL,
    price_open    REAL NOT NULL DEFAULT 0,
    price_close   REAL NOT NULL DEFAULT 0,
    fees          REAL NOT NULL DEFAULT 0,
    pnl           REAL NOT NULL DEFAULT 0,
    state         TEXT NOT NULL,
    raw_json      TEXT NOT NULL,
    created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trade_events_account  ON trade_events(account_id);
CREATE INDEX IF NOT EXISTS idx_trade_events_strategy ON trade_events(strategy_id);
`
