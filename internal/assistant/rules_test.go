package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mexicoCity(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)
	return loc
}

func TestRuleParser_ParseDate(t *testing.T) {
	loc := mexicoCity(t)
	now := time.Date(2024, 5, 27, 8, 0, 0, 0, loc) // Monday
	at := func(y int, m time.Month, d, h, min int) time.Time { return time.Date(y, m, d, h, min, 0, 0, loc) }

	tests := []struct {
		name   string
		text   string
		want   time.Time
		wantOK bool
	}{
		{name: "day and month", text: "30 de mayo a las 10", want: at(2024, time.May, 30, 10, 0), wantOK: true},
		{name: "explicit year and minutes", text: "Quiero una cita el 30 de mayo de 2024 a las 11:30", want: at(2024, time.May, 30, 11, 30), wantOK: true},
		{name: "weekday with pm", text: "el jueves a las 4 pm", want: at(2024, time.May, 30, 16, 0), wantOK: true},
		{name: "same weekday means next week", text: "el lunes a las 10", want: at(2024, time.June, 3, 10, 0), wantOK: true},
		{name: "tomorrow spanish", text: "mañana a las 9", want: at(2024, time.May, 28, 9, 0), wantOK: true},
		{name: "day after tomorrow", text: "pasado mañana a las 10 hrs", want: at(2024, time.May, 29, 10, 0), wantOK: true},
		{name: "today with clock", text: "hoy 12:30", want: at(2024, time.May, 27, 12, 30), wantOK: true},
		{name: "tomorrow english", text: "tomorrow at 9 am", want: at(2024, time.May, 28, 9, 0), wantOK: true},
		{name: "past month rolls to next year", text: "3 de enero a las 10", want: at(2025, time.January, 3, 10, 0), wantOK: true},
		{name: "iso with offset", text: "2024-05-30T10:00:00-06:00", want: at(2024, time.May, 30, 10, 0), wantOK: true},
		{name: "iso without offset", text: "para el 2024-05-30 10:00 porfa", want: at(2024, time.May, 30, 10, 0), wantOK: true},
		{name: "weekday in the morning", text: "el viernes a las 10 de la mañana", want: at(2024, time.May, 31, 10, 0), wantOK: true},
		{name: "weekday in the afternoon", text: "el miércoles a las 4 de la tarde", want: at(2024, time.May, 29, 16, 0), wantOK: true},
		{name: "weekday at night", text: "el jueves a las 8 de la noche", want: at(2024, time.May, 30, 20, 0), wantOK: true},
		{name: "tomorrow in the afternoon", text: "mañana a las 5 por la tarde", want: at(2024, time.May, 28, 17, 0), wantOK: true},
		{name: "tomorrow morning unaccented", text: "manana a las 10 de la manana", want: at(2024, time.May, 28, 10, 0), wantOK: true},
		{name: "day part alone is not a date", text: "a las 10 de la mañana"},
		{name: "greeting", text: "hola"},
		{name: "date without time", text: "30 de mayo"},
		{name: "time without date", text: "a las 10"},
		{name: "impossible date", text: "31 de junio a las 10"},
		{name: "impossible hour", text: "mañana a las 27"},
	}

	p := RuleParser{Location: loc}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := p.ParseDate(context.Background(), tt.text, now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			}
		})
	}
}

type stubParser struct {
	t   time.Time
	ok  bool
	err error
}

func (s stubParser) ParseDate(context.Context, string, time.Time) (time.Time, bool, error) {
	return s.t, s.ok, s.err
}

func TestChainParser(t *testing.T) {
	found := time.Date(2024, 5, 30, 10, 0, 0, 0, time.UTC)
	boom := errors.New("model unavailable")

	t.Run("first hit wins", func(t *testing.T) {
		c := ChainParser{stubParser{}, stubParser{t: found, ok: true}, stubParser{err: boom}}
		got, ok, err := c.ParseDate(context.Background(), "x", time.Now())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, found, got)
	})

	t.Run("error reported when nothing found", func(t *testing.T) {
		c := ChainParser{stubParser{err: boom}, stubParser{}}
		_, ok, err := c.ParseDate(context.Background(), "x", time.Now())
		assert.False(t, ok)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("error ignored when a later parser finds a date", func(t *testing.T) {
		c := ChainParser{stubParser{err: boom}, stubParser{t: found, ok: true}}
		_, ok, err := c.ParseDate(context.Background(), "x", time.Now())
		assert.NoError(t, err)
		assert.True(t, ok)
	})
}
