package conversation

import (
	"strings"
	"unicode/utf8"
)

// Intent is how a message was classified.
type Intent string

const (
	// IntentGreeting is a short greeting.
	IntentGreeting Intent = "greeting"
	// IntentBooking starts the booking dialogue.
	IntentBooking Intent = "booking"
	// IntentUnknown is anything else received while idle.
	IntentUnknown Intent = "unknown"
	// IntentReply is a message answering a question of an ongoing dialogue.
	IntentReply Intent = "reply"
	// IntentThrottled is a message dropped by the rate limiter.
	IntentThrottled Intent = "throttled"
)

// DefaultMaxGreetingLength is the length below which a message containing a
// greeting keyword counts as a greeting.
const DefaultMaxGreetingLength = 8

// Keywords configures the router.
type Keywords struct {
	Greeting []string
	Booking  []string

	// MaxGreetingLength bounds greetings in characters, exclusive.
	MaxGreetingLength int
}

// DefaultKeywords returns the Spanish keywords plus their English equivalents.
func DefaultKeywords() Keywords {
	return Keywords{
		Greeting:          []string{"hola", "ola", "buenas", "hello", "hi", "hey"},
		Booking:           []string{"agendar", "cita", "reservar", "turno", "book", "appointment", "schedule"},
		MaxGreetingLength: DefaultMaxGreetingLength,
	}
}

// Classify routes a message received while no dialogue is in progress.
// Greetings win over booking keywords only for short messages, so
// "hola, quiero agendar una cita" starts a booking.
func (k Keywords) Classify(text string) Intent {
	body := strings.ToLower(strings.TrimSpace(text))
	maxLen := k.MaxGreetingLength
	if maxLen <= 0 {
		maxLen = DefaultMaxGreetingLength
	}

	if containsAny(body, k.Greeting) && utf8.RuneCountInString(body) < maxLen {
		return IntentGreeting
	}
	if containsAny(body, k.Booking) {
		return IntentBooking
	}
	return IntentUnknown
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// isAffirmative reports whether an answer confirms the proposed slot.
func isAffirmative(text string) bool {
	answer := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!¡ "))
	switch answer {
	case "si", "sí", "yes", "y":
		return true
	}
	return false
}
