// Package calendar is the adapter between the booking service and the Google
// Calendar API.
//
// It reads the busy intervals of one calendar, either from the events of the
// calendar (events.list) or from the free/busy endpoint (freebusy.query), and
// commits booked appointments with events.insert. Failures are reported as
// *CalendarQueryError and *CalendarWriteError.
//
// Example usage:
//
//	opts, err := google.ClientOptions(ctx, "google.json")
//	if err != nil {
//	    return err
//	}
//	client, err := calendar.NewClient(ctx, calendar.Config{CalendarID: "primary"}, opts...)
//	if err != nil {
//	    return err
//	}
//
//	busy, err := client.BusyIntervals(ctx, time.Now(), time.Now().AddDate(0, 0, 30))
package calendar
