package availability

import (
	"fmt"
	"time"
)

// InvalidInstantError is returned when an instant is missing or cannot be
// parsed.
type InvalidInstantError struct {
	// Input is the offending value as received.
	Input string

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface
func (e *InvalidInstantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid instant %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid instant %q", e.Input)
}

// Unwrap implements the errors.Unwrap interface
func (e *InvalidInstantError) Unwrap() error {
	return e.Err
}

// instantLayouts are tried in order by ParseInstant. Layouts without a zone
// are interpreted in the policy location.
var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseInstant parses an ISO-8601 date-time. Values without an offset are
// read as wall-clock time in loc.
func ParseInstant(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if value == "" {
		return time.Time{}, &InvalidInstantError{Input: value, Err: fmt.Errorf("empty value")}
	}

	var lastErr error
	for _, layout := range instantLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &InvalidInstantError{Input: value, Err: lastErr}
}
