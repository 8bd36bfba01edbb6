package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jackzampolin/leaf/internal/document"
	"github.com/jackzampolin/leaf/internal/pagecache"
	"github.com/jackzampolin/leaf/internal/sched"
)

// ErrNoSession is returned when no session exists for a document.
var ErrNoSession = errors.New("no session for document")

// Manager owns one session per open document. The cache is shared across
// sessions; its byte budget spans every document in the process.
type Manager struct {
	cache  *pagecache.Cache
	pool   *sched.Pool
	logger *slog.Logger

	mu       sync.Mutex
	ctx      context.Context
	sessions map[string]*Session // by document ID

	// Session defaults, updatable via ApplyConfig.
	scale   float64
	padding float64
	radius  int
}

// ManagerConfig configures a session manager.
type ManagerConfig struct {
	Cache  *pagecache.Cache
	Pool   *sched.Pool
	Logger *slog.Logger

	DefaultScale  float64
	PagePadding   float64
	PreloadRadius int
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scale := cfg.DefaultScale
	if scale <= 0 {
		scale = 1.0
	}
	return &Manager{
		cache:    cfg.Cache,
		pool:     cfg.Pool,
		logger:   logger,
		ctx:      context.Background(),
		sessions: make(map[string]*Session),
		scale:    scale,
		padding:  cfg.PagePadding,
		radius:   cfg.PreloadRadius,
	}
}

// Start binds the manager to a context; sessions created afterwards stop
// when it is cancelled.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx = ctx
}

// Open creates (or returns) the session for a document and starts its
// result loop.
func (m *Manager) Open(doc *document.Document) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[doc.ID()]; ok {
		return sess
	}

	sess := NewSession(SessionConfig{
		Doc:           doc,
		Cache:         m.cache,
		Pool:          m.pool,
		Logger:        m.logger,
		Scale:         m.scale,
		Padding:       m.padding,
		PreloadRadius: m.radius,
	})
	m.sessions[doc.ID()] = sess
	go sess.Start(m.ctx)

	m.logger.Info("session opened", "doc", doc.ID(), "pages", doc.PageCount())
	return sess
}

// Get returns the session for a document ID.
func (m *Manager) Get(docID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[docID]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Close tears down the session for a document, releasing its cache
// entries. Reports whether a session existed.
func (m *Manager) Close(docID string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[docID]
	delete(m.sessions, docID)
	m.mu.Unlock()

	if ok {
		sess.Close()
	}
	return ok
}

// CloseAll tears down every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

// ApplyConfig updates session defaults and pushes the preload radius to
// live sessions. Called on config hot reload.
func (m *Manager) ApplyConfig(defaultScale, padding float64, radius int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if defaultScale > 0 {
		m.scale = defaultScale
	}
	if padding >= 0 {
		m.padding = padding
	}
	if radius >= 0 {
		m.radius = radius
		for _, sess := range m.sessions {
			sess.SetPreloadRadius(radius)
		}
	}
}
