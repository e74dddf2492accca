package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/cart"
	"github.com/fjod/foodclub/internal/checkout"
	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
)

// Session is the per-shopper state: one cart and one checkout attempt.
type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *checkout.Orchestrator

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Options struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	WidgetTimeout time.Duration
	Notifier      checkout.Notifier
	Logger        logrus.FieldLogger
	Now           func() time.Time
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	gateway  checkout.Gateway
	opts     Options

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewManager starts the idle sweeper when both IdleTTL and SweepInterval are set.
func NewManager(gw checkout.Gateway, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	m := &Manager{
		sessions:    make(map[string]*Session),
		gateway:     gw,
		opts:        opts,
		stopCleanup: make(chan struct{}),
	}

	if opts.IdleTTL > 0 && opts.SweepInterval > 0 {
		m.wg.Add(1)
		go m.cleanupLoop()
	}
	return m
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id could have come from NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// GetOrCreate returns the session for id, creating it on first use.
func (m *Manager) GetOrCreate(id string) *Session {
	now := m.opts.Now()

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch(now)
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.touch(now)
		return s
	}

	store := cart.NewStore()
	s = &Session{
		ID:   id,
		Cart: store,
		Checkout: checkout.New(store, m.gateway, checkout.Options{
			SessionID:     id,
			WidgetTimeout: m.opts.WidgetTimeout,
			Notifier:      m.opts.Notifier,
			Logger:        m.opts.Logger.WithField("session_id", id),
			Now:           m.opts.Now,
		}),
		lastSeen: now,
	}
	m.sessions[id] = s
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Drop(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stopCleanup:
			return
		}
	}
}

// Sweep evicts sessions idle longer than IdleTTL. Sessions with an open
// payment attempt are kept until it settles.
func (m *Manager) Sweep() int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.opts.Now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var idle []*Session
	for _, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
		}
	}
	m.mu.Unlock()

	evicted := 0
	for _, s := range idle {
		status := s.Checkout.Session(context.Background()).Status
		if status.IsInFlight() || status == domain.PaymentStatusAwaitingWidget {
			continue
		}
		m.mu.Lock()
		if cur, ok := m.sessions[s.ID]; ok && cur == s && s.idleSince().Before(cutoff) {
			delete(m.sessions, s.ID)
			evicted++
		}
		m.mu.Unlock()
	}

	if evicted > 0 {
		m.opts.Logger.WithField("evicted", evicted).Debug("idle sessions swept")
	}
	return evicted
}

// Close stops the background sweeper and waits for it to finish.
func (m *Manager) Close() error {
	select {
	case <-m.stopCleanup:
	default:
		close(m.stopCleanup)
	}
	m.wg.Wait()
	return nil
}
