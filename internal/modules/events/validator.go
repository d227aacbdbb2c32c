// Package events provides trade-event validation and the idempotent
// append-only stores (SQLite ledger and JSONL log file).
package events

import (
	"github.com/trueedge/trueedge/internal/domain"
)

// Validate checks a raw record against the trade-event contract.
//
// The missing-fields check runs first and collects every absent required
// field. The enum checks follow in a fixed order (environment, side,
// quantity_type, state), then the numeric checks (quantity, price_open,
// price_close, fees, pnl); both stages fail fast on the first violation.
// The record is never mutated - coercion happens at the storage boundary.
func Validate(raw domain.RawEvent) error {
	var missing []string
	for _, field := range domain.RequiredFields {
		if _, ok := raw[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &domain.MissingFieldsError{Fields: missing}
	}

	enumChecks := []struct {
		field   string
		allowed []string
	}{
		{"environment", domain.AllowedEnvironments},
		{"side", domain.AllowedSides},
		{"quantity_type", domain.AllowedQuantityTypes},
		{"state", domain.AllowedStates},
	}
	for _, check := range enumChecks {
		value := domain.StringField(raw, check.field)
		if !contains(check.allowed, value) {
			return &domain.InvalidEnumError{
				Field:   check.field,
				Value:   value,
				Allowed: check.allowed,
			}
		}
	}

	for _, field := range domain.NumericFields {
		if _, ok := domain.CoerceFloat(raw[field]); !ok {
			return &domain.NonNumericError{Field: field, Value: raw[field]}
		}
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
