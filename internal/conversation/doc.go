// Package conversation drives the booking dialogue.
//
// A session moves through the stages defined in internal/state:
//
//	idle ──booking keyword──▶ awaiting_date ──date found──▶ awaiting_confirmation
//	                                                         │ si / sí / yes / y
//	                                                         ▼
//	idle ◀──event created── awaiting_reason ◀──name── awaiting_name
//
// Any other answer to the confirmation question cancels the booking. When the
// proposed slot is taken by the time the event is created, the next free slot
// is offered and the dialogue returns to awaiting_confirmation.
//
// Turns of the same session are serialised and rate limited. Message bodies
// and phone numbers never reach the logs.
package conversation
