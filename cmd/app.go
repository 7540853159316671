package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/teemow/slotbot/internal/assistant"
	"github.com/teemow/slotbot/internal/availability"
	"github.com/teemow/slotbot/internal/booking"
	"github.com/teemow/slotbot/internal/calendar"
	"github.com/teemow/slotbot/internal/config"
	"github.com/teemow/slotbot/internal/conversation"
	"github.com/teemow/slotbot/internal/google"
	"github.com/teemow/slotbot/internal/instrumentation"
	"github.com/teemow/slotbot/internal/logging"
	"github.com/teemow/slotbot/internal/state"
)

// app holds the components shared by the long running commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	provider  *instrumentation.Provider
	instr     instrumentation.Config
	audit     *instrumentation.AuditLogger
	scheduler *booking.Service

	closers []func() error
}

// newApp wires instrumentation and the booking service.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, logger: slog.Default()}

	if err := cfg.RequireCalendar(); err != nil {
		return nil, err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	a.provider = provider
	a.instr = instrConfig
	a.closers = append(a.closers, func() error { return provider.Shutdown(context.Background()) })
	if provider.Enabled() {
		a.audit = instrumentation.NewAuditLoggerWithConfig(a.logger, instrConfig.AuditLogging)
	}

	policy, err := cfg.AvailabilityPolicy()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	scheduler, err := newScheduler(ctx, cfg, policy, a.provider.Metrics(), a.audit, a.logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.scheduler = scheduler
	return a, nil
}

// newScheduler connects to Google Calendar and builds the booking service.
func newScheduler(ctx context.Context, cfg *config.Config, policy availability.Policy, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger, logger *slog.Logger) (*booking.Service, error) {
	opts, err := google.ClientOptions(ctx, cfg.Calendar.CredentialsFile)
	if err != nil {
		return nil, err
	}

	client, err := calendar.NewClient(ctx, calendar.Config{
		CalendarID: cfg.Calendar.ID,
		BusySource: calendar.BusySource(cfg.Calendar.BusySource),
		Location:   policy.Location,
	}, opts...)
	if err != nil {
		return nil, err
	}

	logger.Info("scheduling policy loaded",
		logging.Calendar(client.CalendarID()),
		slog.String("policy", policy.String()),
		slog.String("busy_source", string(client.BusySource())))

	return booking.NewService(client, policy,
		booking.WithTimeout(cfg.Calendar.Timeout),
		booking.WithColorID(cfg.Calendar.ColorID),
		booking.WithMetrics(metrics),
		booking.WithAuditLogger(audit),
		booking.WithLogger(logger))
}

// openStore opens the configured conversation state store.
func (a *app) openStore(ctx context.Context) (state.Store, error) {
	var (
		store state.Store
		err   error
	)
	switch a.cfg.State.Backend {
	case config.BackendRedis:
		store, err = state.DialRedis(ctx, a.cfg.State.RedisURL, a.cfg.State.TTL)
		if err != nil {
			return nil, err
		}
	default:
		store = state.NewMemoryStore(a.cfg.State.TTL, state.WithLogger(logging.NewSlogAdapter(a.logger)))
	}
	a.closers = append(a.closers, store.Close)
	a.logger.Info("conversation state store ready", slog.String("backend", a.cfg.State.Backend))
	return store, nil
}

// newOrchestrator builds the dialogue around the booking service. With a
// Gemini API key, dates the rules miss are extracted by the model and
// proposals are phrased by it; otherwise fixed templates are used.
func (a *app) newOrchestrator(ctx context.Context, store state.Store, sender conversation.Sender) (*conversation.Orchestrator, error) {
	loc := a.scheduler.Policy().Location
	rules := assistant.RuleParser{Location: loc}

	var (
		parser assistant.DateParser = rules
		writer assistant.ReplyWriter
	)
	if key := a.cfg.Assistant.APIKey; key != "" {
		gen, err := assistant.NewGeminiGenerator(ctx, key, a.cfg.Assistant.Model)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gen.Close)

		ai := assistant.New(gen, loc, a.logger)
		parser = assistant.ChainParser{rules, ai}
		writer = ai
		a.logger.Info("language model enabled", slog.String("model", a.cfg.Assistant.Model))
	}

	conv := a.cfg.Conversation
	return conversation.New(conversation.Config{
		Scheduler: a.scheduler,
		Parser:    parser,
		Writer:    writer,
		Store:     store,
		Sender:    sender,
		Keywords: conversation.Keywords{
			Greeting:          conv.GreetingKeywords,
			Booking:           conv.BookingKeywords,
			MaxGreetingLength: conv.MaxGreetingLength,
		},
		RateLimit:     rate.Limit(conv.RateLimit),
		Burst:         conv.Burst,
		Location:      loc,
		GaugeInterval: a.instr.ActiveConversationsInterval,
		Metrics:       a.provider.Metrics(),
		Logger:        a.logger,
	})
}

// Close releases everything in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
