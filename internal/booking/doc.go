// Package booking joins the availability engine to a calendar.
//
// The engine in internal/availability is pure: it needs the busy intervals
// handed to it. Service fetches those intervals fresh for every query, runs
// the engine, and commits confirmed appointments as calendar events. Every
// calendar call runs under a timeout and is recorded in metrics and traces.
//
// Book re-reads the calendar for the requested interval right before the
// insert, so a slot taken between proposal and confirmation fails with
// ErrSlotTaken instead of producing a double booking.
package booking
