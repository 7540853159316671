package google

// CalendarScope grants read and write access to calendars and events. Both
// the busy-interval read (events.list or freebusy.query) and events.insert
// need it.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// DefaultScopes are requested when the caller names none.
var DefaultScopes = []string{CalendarScope}
