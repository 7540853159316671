package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/slotbot/internal/availability"
	"github.com/teemow/slotbot/internal/logging"
)

// Reply carries what a proposal message has to say.
type Reply struct {
	// Now is the current time, used to resolve relative wording.
	Now time.Time

	// Message is the user's original text.
	Message string

	// Requested is the instant the user asked for.
	Requested time.Time

	// Available reports whether Requested is free.
	Available bool

	// Proposed is the slot being offered; nil when nothing is free.
	Proposed *availability.Slot
}

// ReplyWriter turns an availability answer into a chat message.
type ReplyWriter interface {
	WriteProposal(ctx context.Context, r Reply) (string, error)
}

// Templates is a ReplyWriter with fixed Spanish sentences.
type Templates struct {
	Location *time.Location
}

// WriteProposal implements ReplyWriter.
func (t Templates) WriteProposal(_ context.Context, r Reply) (string, error) {
	loc := t.Location
	if loc == nil {
		loc = time.UTC
	}
	switch {
	case r.Proposed == nil:
		return "Lo siento, no hay horarios disponibles en los próximos días.", nil
	case r.Available:
		return fmt.Sprintf("La fecha solicitada está disponible. El turno sería el %s.",
			FormatInstant(r.Proposed.Start.In(loc))), nil
	default:
		return fmt.Sprintf("La fecha y horario solicitados no están disponibles, te puedo ofrecer el %s.",
			FormatInstant(r.Proposed.Start.In(loc))), nil
	}
}

const extractInstruction = `Eres un extractor de fechas. Recibes un mensaje de un usuario que quiere
agendar una cita y respondes únicamente con la fecha y hora solicitadas en
formato ISO 8601 con desplazamiento horario (por ejemplo 2024-05-30T10:00:00-06:00),
en la zona horaria %s. Si el mensaje no contiene una fecha y una hora
reconocibles responde únicamente: false`

const proposalInstruction = `Eres un asistente virtual que ayuda a los usuarios a agendar citas por chat.
Tu único objetivo es ayudar a elegir fecha y horario para un turno.
Recibes la fecha solicitada, si está disponible y el horario que debes ofrecer.
Si está disponible responde algo como: "La fecha solicitada está disponible. El turno sería el jueves 30 de mayo de 2024 a las 10:00 hrs."
Si no está disponible discúlpate y ofrece el horario indicado, por ejemplo: "La fecha y horario solicitados no están disponibles, te puedo ofrecer el jueves 30 de mayo de 2024 a las 11:00 hrs."
Nunca hagas preguntas. Nunca inventes otros horarios. Responde siempre en español y en una sola frase.`

// Assistant is a DateParser and ReplyWriter backed by a language model.
type Assistant struct {
	gen      Generator
	loc      *time.Location
	fallback Templates
	logger   *slog.Logger
}

// New creates an Assistant that reads and writes instants in loc.
func New(gen Generator, loc *time.Location, logger *slog.Logger) *Assistant {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		gen:      gen,
		loc:      loc,
		fallback: Templates{Location: loc},
		logger:   logger,
	}
}

// ParseDate implements DateParser. A model answer that is "false" or not a
// valid date-time means no date was found.
func (a *Assistant) ParseDate(ctx context.Context, text string, now time.Time) (time.Time, bool, error) {
	now = now.In(a.loc)
	prompt := fmt.Sprintf("Hoy es %s (%s).\nMensaje: %s", FormatDate(now), now.Format(time.RFC3339), text)

	out, err := a.gen.Generate(ctx, fmt.Sprintf(extractInstruction, a.loc), prompt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("date extraction failed: %w", err)
	}

	answer := strings.Trim(strings.TrimSpace(out), "`\"'")
	if strings.EqualFold(answer, "false") {
		return time.Time{}, false, nil
	}
	t, err := availability.ParseInstant(answer, a.loc)
	if err != nil {
		a.logger.WarnContext(ctx, "model returned an unparseable date",
			slog.String("answer", logging.SanitizeText(answer)))
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// WriteProposal implements ReplyWriter. Model failures fall back to the
// fixed templates so a proposal is never lost.
func (a *Assistant) WriteProposal(ctx context.Context, r Reply) (string, error) {
	if r.Proposed == nil {
		return a.fallback.WriteProposal(ctx, r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hoy es: %s\n", FormatInstant(r.Now.In(a.loc)))
	fmt.Fprintf(&b, "La fecha solicitada es: %s\n", FormatInstant(r.Requested.In(a.loc)))
	fmt.Fprintf(&b, "La disponibilidad de esa fecha es: %t\n", r.Available)
	fmt.Fprintf(&b, "El horario que debes ofrecer es: %s\n", FormatInstant(r.Proposed.Start.In(a.loc)))
	fmt.Fprintf(&b, "Mensaje del usuario: %s", r.Message)

	out, err := a.gen.Generate(ctx, proposalInstruction, b.String())
	if err != nil {
		a.logger.WarnContext(ctx, "reply generation failed, using template", logging.Err(err))
		return a.fallback.WriteProposal(ctx, r)
	}
	return out, nil
}
