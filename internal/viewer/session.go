package viewer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jackzampolin/leaf/internal/document"
	"github.com/jackzampolin/leaf/internal/layout"
	"github.com/jackzampolin/leaf/internal/pagecache"
	"github.com/jackzampolin/leaf/internal/sched"
)

// Session drives rendering for one open document: it tracks per-page
// state, turns viewport movement into prioritized render tasks, and
// routes finished renders into the cache and out to the event channel.
//
// Page states and the layout are the shared mutable state between the
// coordination side (viewport/zoom calls) and render workers (results);
// both go through one mutex. The rasterizer runs outside it.
type Session struct {
	id     string
	doc    *document.Document
	cache  *pagecache.Cache
	pool   *sched.Pool
	logger *slog.Logger

	mu             sync.Mutex
	scale          float64
	padding        float64
	radius         int
	layout         layout.Layout
	states         map[int]PageState
	currentVisible int

	results chan sched.Result
	events  chan Event

	quit     chan struct{}
	quitOnce sync.Once
}

// SessionConfig configures a new viewer session.
type SessionConfig struct {
	Doc    *document.Document
	Cache  *pagecache.Cache
	Pool   *sched.Pool
	Logger *slog.Logger

	Scale         float64 // default 1.0
	Padding       float64 // inter-page padding in layout pixels
	PreloadRadius int     // pages to prerender on each side of the visible one

	// EventBuffer sizes the Events channel (default 64). A full buffer
	// drops events rather than blocking render workers; page state stays
	// correct either way.
	EventBuffer int
}

// NewSession creates a session and computes the initial layout.
// Call Start to begin processing render results.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scale := cfg.Scale
	if scale <= 0 {
		scale = 1.0
	}
	eventBuffer := cfg.EventBuffer
	if eventBuffer <= 0 {
		eventBuffer = 64
	}

	s := &Session{
		id:             uuid.NewString(),
		doc:            cfg.Doc,
		cache:          cfg.Cache,
		pool:           cfg.Pool,
		logger:         logger.With("session", cfg.Doc.ID()),
		scale:          scale,
		padding:        cfg.Padding,
		radius:         cfg.PreloadRadius,
		states:         make(map[int]PageState),
		currentVisible: -1,
		results:        make(chan sched.Result, 256),
		events:         make(chan Event, eventBuffer),
		quit:           make(chan struct{}),
	}
	s.layout = layout.Compute(cfg.Doc.PageSizes(), scale, cfg.Padding)
	return s
}

// ID returns the session's identity.
func (s *Session) ID() string { return s.id }

// Document returns the session's document.
func (s *Session) Document() *document.Document { return s.doc }

// Events returns the notification channel for the render surface.
// Drain it from a single consumer.
func (s *Session) Events() <-chan Event { return s.events }

// Start processes render results until ctx is cancelled or the session
// is closed. Run in a goroutine.
func (s *Session) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case res := <-s.results:
			s.handleResult(res)
		}
	}
}

// Close stops the session and releases its cache entries.
func (s *Session) Close() {
	s.quitOnce.Do(func() {
		close(s.quit)
		s.cache.ClearDocument(s.doc.ID())
		s.logger.Info("session closed", "doc", s.doc.ID())
	})
}

// Scale returns the current zoom scale.
func (s *Session) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// Layout returns the current layout.
func (s *Session) Layout() layout.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// State returns the render state of a page.
func (s *Session) State(page int) PageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[page]
}

// SetPreloadRadius updates the preload radius. Takes effect on the next
// viewport change; hot-reloaded from config.
func (s *Session) SetPreloadRadius(radius int) {
	if radius < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.radius = radius
}

// ViewportChanged recomputes the visible page for the given viewport and
// schedules it plus its preload neighbors. Returns the visible page.
// Never blocks on rendering; it only enqueues.
func (s *Session) ViewportChanged(viewport layout.Rect) int {
	s.mu.Lock()

	visible := s.layout.VisiblePage(viewport)
	if visible != s.currentVisible {
		s.currentVisible = visible
		s.emit(Event{Kind: EventVisiblePage, Page: visible})
	}

	reqs := layout.PreloadSet(visible, s.doc.PageCount(), s.radius, func(page int) bool {
		return s.states[page] == StateLoaded
	})

	tasks := s.markAndBuildLocked(reqs)
	s.mu.Unlock()

	s.submit(tasks)
	return visible
}

// ZoomChanged applies a new scale: every page goes back to placeholder
// (cached bitmaps are kept for resolution fallback) and the layout is
// recomputed. In-flight renders at the old scale finish normally; their
// results land in the cache but no longer affect page state.
func (s *Session) ZoomChanged(scale float64) {
	if scale <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if scale == s.scale {
		return
	}
	s.scale = scale
	s.layout = layout.Compute(s.doc.PageSizes(), scale, s.padding)
	s.states = make(map[int]PageState)
	s.currentVisible = -1
	s.logger.Debug("zoom changed", "scale", scale)
}

// FitWidth zooms so the first page fills targetWidth.
// Returns the applied scale.
func (s *Session) FitWidth(targetWidth float64) float64 {
	scale := layout.FitWidthScale(s.doc.PageSize(0), targetWidth, s.Scale())
	s.ZoomChanged(scale)
	return scale
}

// markAndBuildLocked transitions requested pages to Loading and builds
// their render tasks. Pages already Loading are skipped: at most one
// render is in flight per page. Caller holds s.mu.
func (s *Session) markAndBuildLocked(reqs []layout.Request) []*sched.Task {
	tasks := make([]*sched.Task, 0, len(reqs))
	for _, req := range reqs {
		if s.states[req.Page] == StateLoading {
			continue
		}
		s.states[req.Page] = StateLoading
		tasks = append(tasks, &sched.Task{
			Doc:      s.doc,
			Page:     req.Page,
			Scale:    s.scale,
			Priority: req.Priority,
			Reply:    s.results,
		})
	}
	return tasks
}

// submit enqueues tasks; a task that cannot be queued reverts its page to
// placeholder so the next viewport pass retries it.
func (s *Session) submit(tasks []*sched.Task) {
	for _, task := range tasks {
		if err := s.pool.Submit(task); err != nil {
			s.mu.Lock()
			if s.states[task.Page] == StateLoading {
				s.states[task.Page] = StatePlaceholder
			}
			s.mu.Unlock()
			s.logger.Warn("failed to queue render",
				"page", task.Page, "error", err)
		}
	}
}

// handleResult stores a finished render and updates page state.
//
// Results from before a zoom change are stale: they are still cached
// (a future fallback may downscale them) but do not touch page state,
// which belongs to the current scale.
func (s *Session) handleResult(res sched.Result) {
	task := res.Task

	if res.Err != nil {
		s.mu.Lock()
		stale := task.Scale != s.scale
		if !stale && s.states[task.Page] == StateLoading {
			s.states[task.Page] = StatePlaceholder
		}
		s.mu.Unlock()

		if stale {
			s.logger.Debug("stale render failed", "page", task.Page, "scale", task.Scale)
			return
		}
		s.logger.Warn("page render failed", "page", task.Page, "error", res.Err)
		s.emit(Event{Kind: EventPageFailed, Page: task.Page, Scale: task.Scale, Err: res.Err})
		return
	}

	s.cache.Put(s.doc.ID(), task.Page, task.Scale, res.Image)

	s.mu.Lock()
	if task.Scale == s.scale && s.states[task.Page] == StateLoading {
		s.states[task.Page] = StateLoaded
		s.emit(Event{Kind: EventPageReady, Page: task.Page, Scale: task.Scale, Image: res.Image})
	}
	s.mu.Unlock()
}

// emit delivers an event without blocking; dropped events are logged.
// Touches no session state, so it is safe with or without s.mu held.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event dropped", "kind", ev.Kind, "page", ev.Page)
	}
}
