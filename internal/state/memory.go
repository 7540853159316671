package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teemow/slotbot/internal/logging"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 24 * time.Hour

const defaultCleanupInterval = 10 * time.Minute

// MemoryStore keeps sessions in process memory. A background goroutine
// removes sessions idle for longer than the TTL; Get never returns an expired
// session even between sweeps.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
	logger   logging.Logger

	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	closeOnce     sync.Once
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger used by the cleanup loop.
func WithLogger(l logging.Logger) MemoryOption {
	return func(m *MemoryStore) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMemoryStore creates a MemoryStore and starts its cleanup goroutine.
// A non-positive ttl selects DefaultTTL. Call Close to stop the goroutine.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &MemoryStore{
		sessions:    make(map[string]Session),
		ttl:         ttl,
		now:         time.Now,
		logger:      logging.DefaultLogger(),
		cleanupDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	interval := min(ttl, defaultCleanupInterval)
	m.cleanupTicker = time.NewTicker(interval)
	go m.cleanupLoop()

	return m
}

func (m *MemoryStore) expired(s Session, now time.Time) bool {
	return now.Sub(s.UpdatedAt) > m.ttl
}

// Get returns the session or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || m.expired(s, m.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Put stores the session, stamping UpdatedAt.
func (m *MemoryStore) Put(_ context.Context, s Session) error {
	if s.ID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	s.UpdatedAt = m.now()

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return nil
}

// Delete removes the session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	now := m.now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, s := range m.sessions {
		if !m.expired(s, now) {
			n++
		}
	}
	return n, nil
}

// Sweep removes expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("Cleaned up expired sessions", "count", n)
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
	return nil
}
