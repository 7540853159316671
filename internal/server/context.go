package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/slotbot/internal/booking"
	"github.com/teemow/slotbot/internal/instrumentation"
	"github.com/teemow/slotbot/internal/state"
)

// Messenger delivers a text message to a recipient, e.g. a Signal client.
type Messenger interface {
	SendMessage(ctx context.Context, recipient, message string) error
}

// ServerContext holds the dependencies shared by the MCP tools and the
// health endpoints.
type ServerContext struct {
	ctx          context.Context
	cancel       context.CancelFunc
	scheduler    *booking.Service
	store        state.Store
	messenger    Messenger
	metrics      *instrumentation.Metrics
	audit        *instrumentation.AuditLogger
	logger       *slog.Logger
	allowBooking bool
	mu           sync.RWMutex
	shutdown     bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithStore lets health checks report on the conversation state store.
func WithStore(store state.Store) Option {
	return func(sc *ServerContext) {
		sc.store = store
	}
}

// WithMessenger enables tools that message users.
func WithMessenger(m Messenger) Option {
	return func(sc *ServerContext) {
		sc.messenger = m
	}
}

// WithMetrics sets the metrics recorder used by the tools.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) {
		sc.metrics = m
	}
}

// WithAuditLogger sets the audit logger used by the tools.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) {
		sc.audit = al
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) {
		if logger != nil {
			sc.logger = logger
		}
	}
}

// WithBookingEnabled registers tools that write to the calendar.
func WithBookingEnabled(enabled bool) Option {
	return func(sc *ServerContext) {
		sc.allowBooking = enabled
	}
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, scheduler *booking.Service, opts ...Option) (*ServerContext, error) {
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		scheduler: scheduler,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Scheduler returns the booking service.
func (sc *ServerContext) Scheduler() *booking.Service {
	return sc.scheduler
}

// Store returns the conversation state store, or nil.
func (sc *ServerContext) Store() state.Store {
	return sc.store
}

// Messenger returns the configured messenger, or nil.
func (sc *ServerContext) Messenger() Messenger {
	return sc.messenger
}

// Metrics returns the metrics recorder, or nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.audit
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// BookingEnabled reports whether calendar writes are allowed.
func (sc *ServerContext) BookingEnabled() bool {
	return sc.allowBooking
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
