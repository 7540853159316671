package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/teemow/slotbot/internal/assistant"
	"github.com/teemow/slotbot/internal/availability"
	"github.com/teemow/slotbot/internal/booking"
	"github.com/teemow/slotbot/internal/calendar"
	"github.com/teemow/slotbot/internal/instrumentation"
	"github.com/teemow/slotbot/internal/logging"
	"github.com/teemow/slotbot/internal/signal"
	"github.com/teemow/slotbot/internal/state"
)

// Rate limiting defaults: one message per second with bursts of five.
const (
	DefaultRate  = rate.Limit(1)
	DefaultBurst = 5

	// limiterIdle is how long an idle session keeps its limiter.
	limiterIdle = 10 * time.Minute
)

// Scheduler is the booking service as seen by the dialogue.
type Scheduler interface {
	Now() time.Time
	Propose(ctx context.Context, req booking.Request) (*booking.Proposal, error)
	NextAvailable(ctx context.Context, after time.Time) (*availability.Slot, error)
	Book(ctx context.Context, name, description string, start time.Time) (*calendar.EventHandle, error)
}

// Sender delivers replies. *signal.Client implements it.
type Sender interface {
	SendMessage(ctx context.Context, recipient, message string) error
}

// Listener feeds incoming messages to a handler until ctx is cancelled.
// *signal.Client implements it.
type Listener interface {
	Listen(ctx context.Context, handler signal.Handler, pollInterval time.Duration) error
}

// Config wires an Orchestrator.
type Config struct {
	Scheduler Scheduler
	Parser    assistant.DateParser
	Writer    assistant.ReplyWriter
	Store     state.Store
	Sender    Sender

	// Keywords defaults to DefaultKeywords.
	Keywords Keywords

	// RateLimit and Burst configure the per-session token bucket.
	RateLimit rate.Limit
	Burst     int

	// Location is used for fallback replies. Defaults to UTC.
	Location *time.Location

	// GaugeInterval is how often Run refreshes the active conversation
	// gauge. Defaults to instrumentation.DefaultActiveConversationsInterval.
	GaugeInterval time.Duration

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

type sessionGate struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	refs     int
	lastSeen time.Time
}

// Orchestrator handles one message at a time per session.
type Orchestrator struct {
	scheduler Scheduler
	parser    assistant.DateParser
	writer    assistant.ReplyWriter
	fallback  assistant.Templates
	store     state.Store
	sender    Sender
	keywords  Keywords
	metrics   *instrumentation.Metrics
	logger    *slog.Logger

	rateLimit     rate.Limit
	burst         int
	gaugeInterval time.Duration

	gatesMu   sync.Mutex
	gates     map[string]*sessionGate
	lastSweep time.Time
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Scheduler == nil:
		return nil, fmt.Errorf("scheduler is required")
	case cfg.Parser == nil:
		return nil, fmt.Errorf("date parser is required")
	case cfg.Store == nil:
		return nil, fmt.Errorf("state store is required")
	case cfg.Sender == nil:
		return nil, fmt.Errorf("sender is required")
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	o := &Orchestrator{
		scheduler: cfg.Scheduler,
		parser:    cfg.Parser,
		writer:    cfg.Writer,
		fallback:  assistant.Templates{Location: loc},
		store:     cfg.Store,
		sender:    cfg.Sender,
		keywords:  cfg.Keywords,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		rateLimit:     cfg.RateLimit,
		burst:         cfg.Burst,
		gaugeInterval: cfg.GaugeInterval,
		gates:         make(map[string]*sessionGate),
	}
	if o.writer == nil {
		o.writer = o.fallback
	}
	if len(o.keywords.Greeting) == 0 && len(o.keywords.Booking) == 0 {
		o.keywords = DefaultKeywords()
	}
	if o.rateLimit == 0 {
		o.rateLimit = DefaultRate
	}
	if o.burst <= 0 {
		o.burst = DefaultBurst
	}
	if o.gaugeInterval <= 0 {
		o.gaugeInterval = instrumentation.DefaultActiveConversationsInterval
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}

// Run feeds every message the listener receives into Handle until ctx is
// cancelled. While it runs, the active conversation gauge is refreshed every
// GaugeInterval.
func (o *Orchestrator) Run(ctx context.Context, l Listener, pollInterval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		o.reportActiveConversations(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	return l.Listen(ctx, func(ctx context.Context, msg signal.Message) error {
		return o.Handle(ctx, msg.SenderID, msg.Body)
	}, pollInterval)
}

// reportActiveConversations sets the gauge once and then on every tick until
// ctx is done. Counting a Redis store scans its keys, so this stays off the
// message path.
func (o *Orchestrator) reportActiveConversations(ctx context.Context) {
	ticker := time.NewTicker(o.gaugeInterval)
	defer ticker.Stop()

	for {
		n, err := o.store.Count(ctx)
		switch {
		case err == nil:
			o.metrics.SetActiveConversations(ctx, n)
		case ctx.Err() == nil:
			o.logger.DebugContext(ctx, "failed to count conversations", logging.Err(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Handle processes one incoming message from sessionID. The returned error
// reports failures to load or store state or to deliver replies. Calendar and
// model failures are answered with an apology and do not surface here.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, text string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	turnID := uuid.NewString()
	ctx, span := instrumentation.StartTurnSpan(ctx, sessionID, turnID)
	defer span.End()

	gate := o.acquire(sessionID)
	defer o.release(gate)

	logger := o.logger.With(logging.Session(sessionID), logging.TurnID(turnID))

	if !gate.limiter.Allow() {
		logger.WarnContext(ctx, "message dropped by rate limiter")
		o.metrics.RecordConversationTurn(ctx, instrumentation.StageNone, string(IntentThrottled))
		return nil
	}

	sess, err := o.load(ctx, sessionID)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}

	t := &turn{
		o:      o,
		sess:   sess,
		text:   text,
		from:   sess.Stage,
		intent: IntentReply,
		logger: logger,
	}
	err = t.run(ctx)

	o.metrics.RecordConversationTurn(ctx,
		instrumentation.BoundedLabel(string(t.from), stageLabels...),
		string(t.intent))

	logger.InfoContext(ctx, "turn handled",
		logging.Stage(string(t.from)),
		slog.String("next_stage", string(t.sess.Stage)),
		logging.Intent(string(t.intent)),
		slog.String("message", logging.SanitizeText(text)))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}
	instrumentation.SetSpanSuccess(span)
	return nil
}

var stageLabels = []string{
	string(state.StageIdle),
	string(state.StageAwaitingDate),
	string(state.StageAwaitingConfirmation),
	string(state.StageAwaitingName),
	string(state.StageAwaitingReason),
}

func (o *Orchestrator) load(ctx context.Context, id string) (*state.Session, error) {
	sess, err := o.store.Get(ctx, id)
	if errors.Is(err, state.ErrNotFound) {
		return &state.Session{ID: id, Stage: state.StageIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}
	if !sess.Stage.Valid() {
		sess.Stage = state.StageIdle
	}
	return sess, nil
}

func (o *Orchestrator) acquire(id string) *sessionGate {
	o.gatesMu.Lock()
	now := time.Now()
	if now.Sub(o.lastSweep) > time.Minute {
		for k, g := range o.gates {
			if g.refs == 0 && now.Sub(g.lastSeen) > limiterIdle {
				delete(o.gates, k)
			}
		}
		o.lastSweep = now
	}
	g, ok := o.gates[id]
	if !ok {
		g = &sessionGate{limiter: rate.NewLimiter(o.rateLimit, o.burst)}
		o.gates[id] = g
	}
	g.refs++
	o.gatesMu.Unlock()

	g.mu.Lock()
	return g
}

func (o *Orchestrator) release(g *sessionGate) {
	g.mu.Unlock()

	o.gatesMu.Lock()
	g.refs--
	g.lastSeen = time.Now()
	o.gatesMu.Unlock()
}

// turn is the work of one Handle call.
type turn struct {
	o       *Orchestrator
	sess    *state.Session
	text    string
	from    state.Stage
	intent  Intent
	logger  *slog.Logger
	replies []string
}

func (t *turn) run(ctx context.Context) error {
	var err error
	switch t.sess.Stage {
	case state.StageIdle:
		err = t.idle(ctx)
	case state.StageAwaitingDate:
		err = t.awaitingDate(ctx)
	case state.StageAwaitingConfirmation:
		err = t.awaitingConfirmation(ctx)
	case state.StageAwaitingName:
		err = t.awaitingName(ctx)
	case state.StageAwaitingReason:
		err = t.awaitingReason(ctx)
	}
	if err != nil {
		return err
	}
	return t.flush(ctx)
}

func (t *turn) say(msg string) {
	t.replies = append(t.replies, msg)
}

// moveTo persists the session at stage. Returning to idle deletes it.
func (t *turn) moveTo(ctx context.Context, stage state.Stage) error {
	t.sess.Stage = stage
	if stage == state.StageIdle {
		*t.sess = state.Session{ID: t.sess.ID, Stage: state.StageIdle}
		if err := t.o.store.Delete(ctx, t.sess.ID); err != nil {
			return fmt.Errorf("failed to clear session state: %w", err)
		}
		return nil
	}
	if err := t.o.store.Put(ctx, *t.sess); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

func (t *turn) flush(ctx context.Context) error {
	for _, msg := range t.replies {
		if err := t.o.sender.SendMessage(ctx, t.sess.ID, msg); err != nil {
			return fmt.Errorf("failed to send reply: %w", err)
		}
	}
	return nil
}

func (t *turn) idle(ctx context.Context) error {
	t.intent = t.o.keywords.Classify(t.text)
	switch t.intent {
	case IntentGreeting:
		t.say(MsgWelcome)
		return nil
	case IntentBooking:
		t.say(MsgAskDate)
		return t.moveTo(ctx, state.StageAwaitingDate)
	default:
		t.say(MsgNotUnderstood)
		return nil
	}
}

func (t *turn) awaitingDate(ctx context.Context) error {
	t.say(MsgChecking)
	now := t.o.scheduler.Now()

	instant, ok, err := t.o.parser.ParseDate(ctx, t.text, now)
	if err != nil {
		t.logger.ErrorContext(ctx, "date extraction failed", logging.Err(err))
		t.say(MsgError)
		return t.moveTo(ctx, state.StageIdle)
	}
	if !ok {
		t.say(MsgNoDate)
		return nil
	}

	proposal, err := t.o.scheduler.Propose(ctx, booking.Request{Instant: instant})
	if err != nil {
		t.logger.ErrorContext(ctx, "availability lookup failed", logging.Err(err))
		t.say(MsgError)
		return t.moveTo(ctx, state.StageIdle)
	}
	t.logger.DebugContext(ctx, "availability checked", logging.Verdict(proposal.Verdict))

	if proposal.Slot == nil {
		t.say(MsgNoSlots)
		return t.moveTo(ctx, state.StageIdle)
	}

	t.say(t.proposalText(ctx, assistant.Reply{
		Now:       now,
		Message:   t.text,
		Requested: instant,
		Available: proposal.Available,
		Proposed:  proposal.Slot,
	}))
	return t.propose(ctx, proposal.Slot.Start)
}

// propose asks for confirmation of start.
func (t *turn) propose(ctx context.Context, start time.Time) error {
	t.say(MsgAskConfirmation)
	t.sess.ProposedStart = start
	return t.moveTo(ctx, state.StageAwaitingConfirmation)
}

func (t *turn) proposalText(ctx context.Context, r assistant.Reply) string {
	text, err := t.o.writer.WriteProposal(ctx, r)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			t.logger.WarnContext(ctx, "reply writer failed", logging.Err(err))
		}
		text, _ = t.o.fallback.WriteProposal(ctx, r)
	}
	return text
}

func (t *turn) awaitingConfirmation(ctx context.Context) error {
	if !isAffirmative(t.text) {
		t.say(MsgCancelled)
		return t.moveTo(ctx, state.StageIdle)
	}
	t.say(MsgAskName)
	return t.moveTo(ctx, state.StageAwaitingName)
}

func (t *turn) awaitingName(ctx context.Context) error {
	name := strings.TrimSpace(t.text)
	if name == "" {
		t.say(MsgAskName)
		return nil
	}
	t.sess.Name = name
	t.say(MsgAskReason)
	return t.moveTo(ctx, state.StageAwaitingReason)
}

func (t *turn) awaitingReason(ctx context.Context) error {
	reason := strings.TrimSpace(t.text)
	start := t.sess.ProposedStart

	_, err := t.o.scheduler.Book(booking.WithSession(ctx, t.sess.ID), t.sess.Name, reason, start)
	if err == nil {
		t.say(MsgBooked)
		return t.moveTo(ctx, state.StageIdle)
	}

	var notBookable *booking.NotBookableError
	if !errors.Is(err, booking.ErrSlotTaken) && !errors.As(err, &notBookable) {
		t.logger.ErrorContext(ctx, "booking failed", logging.Err(err))
		t.say(MsgError)
		return t.moveTo(ctx, state.StageIdle)
	}

	t.logger.InfoContext(ctx, "proposed slot no longer available", logging.Err(err))
	next, nextErr := t.o.scheduler.NextAvailable(ctx, start)
	if nextErr != nil {
		t.logger.ErrorContext(ctx, "availability lookup failed", logging.Err(nextErr))
		t.say(MsgError)
		return t.moveTo(ctx, state.StageIdle)
	}
	if next == nil {
		t.say(MsgNoSlots)
		return t.moveTo(ctx, state.StageIdle)
	}

	t.say(MsgSlotTaken)
	t.say(t.proposalText(ctx, assistant.Reply{
		Now:       t.o.scheduler.Now(),
		Requested: start,
		Available: false,
		Proposed:  next,
	}))
	t.sess.Name = ""
	return t.propose(ctx, next.Start)
}
