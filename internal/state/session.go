package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no state exists for a session.
var ErrNotFound = errors.New("session state not found")

// Stage is the position of a session in the booking dialogue.
type Stage string

const (
	// StageIdle means no booking is in progress.
	StageIdle Stage = "idle"
	// StageAwaitingDate means the bot asked for a date and time.
	StageAwaitingDate Stage = "awaiting_date"
	// StageAwaitingConfirmation means a slot was proposed and the bot waits for yes or no.
	StageAwaitingConfirmation Stage = "awaiting_confirmation"
	// StageAwaitingName means the slot was accepted and the bot asked for a name.
	StageAwaitingName Stage = "awaiting_name"
	// StageAwaitingReason means the bot asked for the reason of the appointment.
	StageAwaitingReason Stage = "awaiting_reason"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageIdle, StageAwaitingDate, StageAwaitingConfirmation, StageAwaitingName, StageAwaitingReason:
		return true
	}
	return false
}

// Session is the state carried between turns of one conversation.
type Session struct {
	ID    string `json:"id"`
	Stage Stage  `json:"stage"`

	// ProposedStart is the slot offered to the user, set from
	// StageAwaitingConfirmation on.
	ProposedStart time.Time `json:"proposed_start,omitzero"`

	// Name is collected in StageAwaitingName.
	Name string `json:"name,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists sessions. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Put creates or replaces the session and restarts its idle TTL.
	Put(ctx context.Context, s Session) error
	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)
	// Close releases resources held by the store.
	Close() error
}
