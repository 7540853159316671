// Package availability implements the slot-negotiation engine used by the
// scheduling assistant.
//
// The engine answers three questions for a single calendar under a recurring
// weekly Policy:
//
//   - Is a requested instant bookable? (Engine.IsAvailable)
//   - Which slots are free in a date range? (GenerateSlots)
//   - What is the earliest free slot after a rejected instant? (NextAvailableSlot)
//
// Busy intervals are always supplied by the caller. The engine never talks to
// the calendar backend, never caches and never produces user-facing text, so
// it is safe to use from any number of goroutines.
//
// All weekday and hour-of-day decisions are made in Policy.Location. Instants
// may carry any location; they are converted before comparison.
//
// Example usage:
//
//	policy := availability.DefaultPolicy()
//	engine := availability.NewEngine()
//
//	if !engine.IsAvailable(requested, policy, busy) {
//	    next, err := availability.NextAvailableSlot(requested, policy, busy)
//	    if err != nil {
//	        return err
//	    }
//	    if next != nil {
//	        fmt.Println("next free slot:", next.Start)
//	    }
//	}
package availability
