package booking

import (
	"errors"
	"fmt"

	"github.com/teemow/slotbot/internal/availability"
)

// ErrSlotTaken is returned by Book when the requested interval became busy
// after it was proposed.
var ErrSlotTaken = errors.New("slot is no longer available")

// NotBookableError is returned by Book when the start instant fails a policy
// check (horizon, weekday or hours) independent of the calendar contents.
type NotBookableError struct {
	Verdict availability.Verdict
}

func (e *NotBookableError) Error() string {
	return fmt.Sprintf("instant is not bookable: %s", e.Verdict)
}
