package assistant

import (
	"fmt"
	"time"
)

var spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatInstant renders t in Spanish, e.g. "jueves 30 de mayo de 2024 a las 11:00 hrs".
// The caller chooses the location by converting t first.
func FormatInstant(t time.Time) string {
	return fmt.Sprintf("%s %d de %s de %d a las %02d:%02d hrs",
		spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// FormatDate renders the date part of t in Spanish, e.g. "lunes 27 de mayo de 2024".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d de %s de %d",
		spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}
