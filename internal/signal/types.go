package signal

import (
	"fmt"
	"time"
)

// Message is one incoming Signal text message.
type Message struct {
	// SenderID is the phone number of the sender (e.g., "+15551234567")
	SenderID string

	// Body is the text content of the message
	Body string

	// GroupName is set when the message was sent to a group
	GroupName string

	// Timestamp is the sender's timestamp, zero if signal-cli did not print one
	Timestamp time.Time
}

// SignalError represents an error that occurred during Signal operations
type SignalError struct {
	// Op is the operation that failed (e.g., "send", "receive")
	Op string

	// UserID is the phone number associated with the operation
	UserID string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *SignalError) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("signal %s (user: %s): %v", e.Op, e.UserID, e.Err)
	}
	return fmt.Sprintf("signal %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *SignalError) Unwrap() error {
	return e.Err
}
