package calendar

import "fmt"

// CalendarQueryError is returned when busy intervals cannot be read.
type CalendarQueryError struct {
	Op         string
	CalendarID string
	Err        error
}

// Error implements the error interface
func (e *CalendarQueryError) Error() string {
	return fmt.Sprintf("calendar %s query %s failed: %v", e.CalendarID, e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *CalendarQueryError) Unwrap() error {
	return e.Err
}

// CalendarWriteError is returned when the backend rejects an event.
type CalendarWriteError struct {
	Op         string
	CalendarID string
	Err        error
}

// Error implements the error interface
func (e *CalendarWriteError) Error() string {
	return fmt.Sprintf("calendar %s write %s failed: %v", e.CalendarID, e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *CalendarWriteError) Unwrap() error {
	return e.Err
}
