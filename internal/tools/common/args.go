package common

import (
	"fmt"
	"time"

	"github.com/teemow/slotbot/internal/availability"
)

// StringArg returns a non-empty string argument.
func StringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// IntArg returns a positive integer argument, or def. JSON numbers arrive as
// float64.
func IntArg(args map[string]interface{}, key string, def int) int {
	if v, ok := args[key].(float64); ok && v > 0 {
		return int(v)
	}
	return def
}

// InstantArg parses a required instant argument and returns it in loc.
// Values without an offset are interpreted in loc.
func InstantArg(args map[string]interface{}, key string, loc *time.Location) (time.Time, error) {
	raw, ok := StringArg(args, key)
	if !ok {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	t, err := availability.ParseInstant(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t.In(loc), nil
}

// OptionalInstantArg is like InstantArg but returns def when the argument is
// absent.
func OptionalInstantArg(args map[string]interface{}, key string, loc *time.Location, def time.Time) (time.Time, error) {
	if _, ok := StringArg(args, key); !ok {
		return def, nil
	}
	return InstantArg(args, key, loc)
}
