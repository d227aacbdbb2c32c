// Package domain provides core domain models and types.
package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Environment represents the trading environment an event was produced in
type Environment string

const (
	EnvironmentLive Environment = "live"
	EnvironmentDemo Environment = "demo"
)

// Side represents the direction of a trade
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// QuantityType represents the unit the quantity is expressed in
type QuantityType string

const (
	QuantityLots  QuantityType = "lots"
	QuantityUnits QuantityType = "units"
)

// State represents the lifecycle state of a trade
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// RawEvent is a trade event as received at the ingestion boundary:
// an arbitrary mapping of field name to value. The validator operates on
// this form without mutating it; typed coercion happens at the storage
// boundary via FromRaw.
type RawEvent map[string]interface{}

// RequiredFields lists the sixteen attributes every trade event must carry,
// in the order they are reported when missing.
var RequiredFields = []string{
	"event_id",
	"account_id",
	"strategy_id",
	"environment",
	"venue",
	"timestamp",
	"symbol",
	"side",
	"order_type",
	"quantity",
	"quantity_type",
	"price_open",
	"price_close",
	"fees",
	"pnl",
	"state",
}

// Allowed value sets for the enum fields, in validation order.
var (
	AllowedEnvironments  = []string{string(EnvironmentLive), string(EnvironmentDemo)}
	AllowedSides         = []string{string(SideBuy), string(SideSell)}
	AllowedQuantityTypes = []string{string(QuantityLots), string(QuantityUnits)}
	AllowedStates        = []string{string(StateOpen), string(StateClosed)}
)

// NumericFields lists the fields that must coerce to a float, in validation order.
var NumericFields = []string{"quantity", "price_open", "price_close", "fees", "pnl"}

// TradeEvent is one immutable record of a completed or open trading action.
// The typed fields are best-effort coercions used for filtering and metrics;
// Raw preserves the original record verbatim, including optional fields
// (linked_position_id, tags, metadata) and anything else the source attached.
type TradeEvent struct {
	EventID      string       `json:"event_id"`
	AccountID    string       `json:"account_id"`
	StrategyID   string       `json:"strategy_id"`
	Environment  Environment  `json:"environment"`
	Venue        string       `json:"venue"`
	Timestamp    string       `json:"timestamp"`
	Symbol       string       `json:"symbol"`
	Side         Side         `json:"side"`
	OrderType    string       `json:"order_type"`
	Quantity     float64      `json:"quantity"`
	QuantityType QuantityType `json:"quantity_type"`
	PriceOpen    float64      `json:"price_open"`
	PriceClose   float64      `json:"price_close"`
	Fees         float64      `json:"fees"`
	PnL          float64      `json:"pnl"`
	State        State        `json:"state"`
	Raw          RawEvent     `json:"-"`
}

// FromRaw builds a typed TradeEvent from a raw record using best-effort
// coercion: strings for text fields, floats for numeric fields. Missing or
// unparseable values become the zero value, never an error - records that
// matter have already passed validation.
func FromRaw(raw RawEvent) TradeEvent {
	return TradeEvent{
		EventID:      StringField(raw, "event_id"),
		AccountID:    StringField(raw, "account_id"),
		StrategyID:   StringField(raw, "strategy_id"),
		Environment:  Environment(StringField(raw, "environment")),
		Venue:        StringField(raw, "venue"),
		Timestamp:    StringField(raw, "timestamp"),
		Symbol:       StringField(raw, "symbol"),
		Side:         Side(StringField(raw, "side")),
		OrderType:    StringField(raw, "order_type"),
		Quantity:     FloatField(raw, "quantity"),
		QuantityType: QuantityType(StringField(raw, "quantity_type")),
		PriceOpen:    FloatField(raw, "price_open"),
		PriceClose:   FloatField(raw, "price_close"),
		Fees:         FloatField(raw, "fees"),
		PnL:          FloatField(raw, "pnl"),
		State:        State(StringField(raw, "state")),
		Raw:          raw,
	}
}

// ParsedTime returns the event timestamp parsed for chronological ordering.
// A trailing Z is treated as UTC offset +00:00. Absent, empty, or
// unparseable timestamps return the minimum instant so malformed events
// sort first instead of raising.
func (e TradeEvent) ParsedTime() time.Time {
	return ParseTimestamp(e.Timestamp)
}

// StringField returns the string form of a raw field, or "" when absent.
func StringField(raw RawEvent, name string) string {
	v, ok := raw[name]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// FloatField returns the float form of a raw field, or 0 when absent or
// not coercible.
func FloatField(raw RawEvent, name string) float64 {
	f, _ := CoerceFloat(raw[name])
	return f
}

// CoerceFloat attempts to interpret a value as a floating-point number.
func CoerceFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// timestampLayouts covers the ISO-8601 shapes upstream sources produce:
// with zone offset, without zone, with fractional seconds, date-only.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp string. A trailing Z is
// normalized to +00:00 before parsing. Unparseable input returns the zero
// time, which sorts before any real instant.
func ParseTimestamp(ts string) time.Time {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}
	}
	if strings.HasSuffix(ts, "Z") {
		ts = strings.TrimSuffix(ts, "Z") + "+00:00"
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
