package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateEventID is returned when an append would violate the
// event_id uniqueness invariant. It is a conflict, not a validation
// failure, so callers can treat retries and dedup differently.
var ErrDuplicateEventID = errors.New("event with this event_id already exists")

// MissingFieldsError reports every required field absent from a record,
// not just the first.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: [%s]", strings.Join(e.Fields, ", "))
}

// InvalidEnumError reports a field whose value is not a member of its
// allowed set. Comparison is on the string form of the value.
type InvalidEnumError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("invalid %s: %q (expected one of [%s])", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// NonNumericError reports a field that cannot be coerced to a
// floating-point number.
type NonNumericError struct {
	Field string
	Value interface{}
}

func (e *NonNumericError) Error() string {
	return fmt.Sprintf("field %s must be numeric, got: %v", e.Field, e.Value)
}

// IsValidationError reports whether err is a client-input problem
// (missing field, bad enum, non-numeric value).
func IsValidationError(err error) bool {
	var missing *MissingFieldsError
	var badEnum *InvalidEnumError
	var nonNumeric *NonNumericError
	return errors.As(err, &missing) || errors.As(err, &badEnum) || errors.As(err, &nonNumeric)
}
