package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/gateway"
)

// Manager caches one loaded Store per owner. The first request for an
// owner loads their session from the gateway and starts its undo sweeper;
// later requests reuse it. Sessions live until Close.
type Manager struct {
	gw   *gateway.Gateway
	log  *zap.Logger
	opts []Option

	// onFirstLoad, when set, fires once per freshly loaded session. The
	// server uses it to enqueue a recurring-task sweep for the owner.
	onFirstLoad func(ownerID string)

	mu       sync.Mutex
	sessions map[string]*Store

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager builds an empty session cache over the gateway.
func NewManager(gw *gateway.Gateway, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		gw:       gw,
		log:      log,
		opts:     opts,
		sessions: make(map[string]*Store),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnFirstLoad registers a hook fired after a session loads for the first
// time. Must be called before the manager starts serving.
func (m *Manager) OnFirstLoad(fn func(ownerID string)) {
	m.onFirstLoad = fn
}

// Get returns the owner's session, loading it on first use.
func (m *Manager) Get(ctx context.Context, ownerID string) (*Store, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	m.mu.Lock()
	if st, ok := m.sessions[ownerID]; ok {
		m.mu.Unlock()
		return st, nil
	}
	m.mu.Unlock()

	st := New(m.gw, ownerID, m.log, m.opts...)
	if err := st.Load(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[ownerID]; ok {
		// Lost the load race; use the session that won.
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[ownerID] = st
	m.mu.Unlock()

	go st.RunUndoSweep(m.ctx)
	if m.onFirstLoad != nil {
		go m.onFirstLoad(ownerID)
	}
	return st, nil
}

// Evict drops the owner's cached session. The next Get reloads from the
// gateway.
func (m *Manager) Evict(ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, ownerID)
}

// Owners returns the ids with a live session.
func (m *Manager) Owners() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	return out
}

// Close stops every session's background sweeper.
func (m *Manager) Close() {
	m.cancel()
}
