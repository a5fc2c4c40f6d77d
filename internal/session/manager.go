package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Lixing-Zhang/restaurant-pos/internal/models"
	"github.com/Lixing-Zhang/restaurant-pos/internal/notify"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	changeTimeout       = 10 * time.Second
	changeFanoutWorkers = 8
)

type entry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Manager keeps the live sessions keyed by an opaque token
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	deps     Collaborators
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates an empty session registry
func NewManager(deps Collaborators, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		deps:     deps,
		logger:   logger,
		now:      time.Now,
	}
}

// Login authenticates and registers a new session.
// No session is created when authentication fails.
func (m *Manager) Login(ctx context.Context, cred models.Credential) (string, View, error) {
	ctrl := NewController(m.deps, m.logger)
	view, err := ctrl.Login(ctx, cred)
	if err != nil {
		return "", view, err
	}
	return m.register(ctrl), view, nil
}

// SignUp registers an account and a new session for it
func (m *Manager) SignUp(ctx context.Context, cred models.Credential) (string, View, error) {
	ctrl := NewController(m.deps, m.logger)
	view, err := ctrl.SignUp(ctx, cred)
	if err != nil {
		return "", view, err
	}
	return m.register(ctrl), view, nil
}

func (m *Manager) register(ctrl *Controller) string {
	token := uuid.New().String()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = &entry{ctrl: ctrl, lastSeen: m.now()}
	return token
}

// Get returns the session for token and marks it used
func (m *Manager) Get(token string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[token]
	if !ok {
		return nil, ErrUnknownSession
	}
	e.lastSeen = m.now()
	return e.ctrl, nil
}

// Logout ends and forgets the session
func (m *Manager) Logout(token string) (View, error) {
	m.mu.Lock()
	e, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if !ok {
		return Render(Initial()), ErrUnknownSession
	}
	return e.ctrl.Logout()
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep forgets sessions unused for longer than maxIdle
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// Broadcast hands a change to every live session
func (m *Manager) Broadcast(ctx context.Context, change notify.Change) {
	m.mu.RLock()
	ctrls := make([]*Controller, 0, len(m.sessions))
	for _, e := range m.sessions {
		ctrls = append(ctrls, e.ctrl)
	}
	m.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(changeFanoutWorkers)
	for _, ctrl := range ctrls {
		ctrl := ctrl // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, changeTimeout)
			defer cancel()
			ctrl.HandleChange(cctx, change)
			return nil
		})
	}
	_ = g.Wait()
}

// Run broadcasts changes until ctx is done or the channel closes
func (m *Manager) Run(ctx context.Context, changes <-chan notify.Change) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			m.logger.Debug("broadcasting change", "entity", change.Entity, "id", change.ID, "sessions", m.Len())
			m.Broadcast(ctx, change)
		}
	}
}

// RunSweeper expires idle sessions every interval until ctx is done
func (m *Manager) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Sweep(maxIdle); n > 0 {
				m.logger.Info("expired idle sessions", "count", n, "remaining", m.Len())
			}
		}
	}
}
