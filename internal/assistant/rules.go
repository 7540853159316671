package assistant

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/slotbot/internal/availability"
)

// DateParser extracts a requested instant from a chat message. ok is false
// when the text holds no recognisable date and time.
type DateParser interface {
	ParseDate(ctx context.Context, text string, now time.Time) (instant time.Time, ok bool, err error)
}

// RuleParser understands ISO-8601 date-times and a small set of Spanish and
// English phrasings:
//
//	30 de mayo a las 10
//	el jueves a las 4 pm
//	mañana a las 11:30
//	el viernes a las 4 de la tarde
//	tomorrow at 9
//
// Both a day and a time are required.
type RuleParser struct {
	Location *time.Location
}

var (
	isoPattern      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[tT ]\d{2}:\d{2}(?::\d{2})?(?:[zZ]|[+-]\d{2}:\d{2})?`)
	dayMonthPattern = regexp.MustCompile(`\b(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)(?:\s+(?:de|del)\s+(\d{4}))?`)
	timePattern     = regexp.MustCompile(`\b(?:a\s+las|a\s+la|at|las)\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.|hrs|hs|h)?`)
	clockPattern    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?`)
	dayPartPattern  = regexp.MustCompile(`\b(?:de|en|por)\s+la\s+(mañana|manana|tarde|noche)`)
)

var monthNumbers = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"setiembre": time.September, "octubre": time.October,
	"noviembre": time.November, "diciembre": time.December,
}

var weekdayWords = map[string]time.Weekday{
	"domingo": time.Sunday, "lunes": time.Monday, "martes": time.Tuesday,
	"miércoles": time.Wednesday, "miercoles": time.Wednesday, "jueves": time.Thursday,
	"viernes": time.Friday, "sábado": time.Saturday, "sabado": time.Saturday,
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// ParseDate implements DateParser. It never returns an error.
func (p RuleParser) ParseDate(_ context.Context, text string, now time.Time) (time.Time, bool, error) {
	loc := p.Location
	if loc == nil {
		loc = now.Location()
	}
	now = now.In(loc)
	lower := strings.ToLower(strings.TrimSpace(text))

	if m := isoPattern.FindString(lower); m != "" {
		t, err := availability.ParseInstant(strings.ToUpper(m), loc)
		if err == nil {
			return t, true, nil
		}
	}

	// "de la mañana" names a part of the day, not tomorrow.
	var dayPart string
	if m := dayPartPattern.FindStringSubmatch(lower); m != nil {
		dayPart = m[1]
		lower = dayPartPattern.ReplaceAllString(lower, " ")
	}

	y, mo, d, ok := parseDay(lower, now)
	if !ok {
		return time.Time{}, false, nil
	}
	hour, minute, ok := parseTime(lower, dayPart)
	if !ok {
		return time.Time{}, false, nil
	}
	return time.Date(y, mo, d, hour, minute, 0, 0, loc), true, nil
}

func parseDay(text string, now time.Time) (int, time.Month, int, bool) {
	if m := dayMonthPattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthNumbers[m[2]]
		year := now.Year()
		explicitYear := m[3] != ""
		if explicitYear {
			year, _ = strconv.Atoi(m[3])
		}
		candidate := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
		if candidate.Day() != day {
			return 0, 0, 0, false // 31 de junio
		}
		if !explicitYear && candidate.Before(startOfDay(now)) {
			candidate = candidate.AddDate(1, 0, 0)
		}
		return candidate.Year(), candidate.Month(), candidate.Day(), true
	}

	var offset int
	switch {
	case strings.Contains(text, "pasado mañana"), strings.Contains(text, "pasado manana"):
		offset = 2
	case strings.Contains(text, "mañana"), strings.Contains(text, "manana"), strings.Contains(text, "tomorrow"):
		offset = 1
	case strings.Contains(text, "hoy"), strings.Contains(text, "today"):
		offset = 0
	default:
		wd, ok := findWeekday(text)
		if !ok {
			return 0, 0, 0, false
		}
		offset = (int(wd) - int(now.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
	}

	t := startOfDay(now).AddDate(0, 0, offset)
	return t.Year(), t.Month(), t.Day(), true
}

func findWeekday(text string) (time.Weekday, bool) {
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '?' || r == '!'
	}) {
		if wd, ok := weekdayWords[word]; ok {
			return wd, true
		}
	}
	return 0, false
}

func parseTime(text, dayPart string) (int, int, bool) {
	var hourStr, minStr, suffix string
	if m := timePattern.FindStringSubmatch(text); m != nil {
		hourStr, minStr, suffix = m[1], m[2], m[3]
	} else if m := clockPattern.FindStringSubmatch(text); m != nil {
		hourStr, minStr, suffix = m[1], m[2], m[3]
	} else {
		return 0, 0, false
	}

	hour, _ := strconv.Atoi(hourStr)
	minute := 0
	if minStr != "" {
		minute, _ = strconv.Atoi(minStr)
	}

	suffix = strings.ReplaceAll(suffix, ".", "")
	if suffix == "" && (dayPart == "tarde" || dayPart == "noche") {
		suffix = "pm"
	}
	switch suffix {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ChainParser asks each parser in turn and returns the first date found.
// An error from one parser is remembered and returned only when no later
// parser finds a date.
type ChainParser []DateParser

// ParseDate implements DateParser.
func (c ChainParser) ParseDate(ctx context.Context, text string, now time.Time) (time.Time, bool, error) {
	var firstErr error
	for _, p := range c {
		t, ok, err := p.ParseDate(ctx, text, now)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return t, true, nil
		}
	}
	return time.Time{}, false, firstErr
}
