package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/leaf/internal/api"
	"github.com/jackzampolin/leaf/internal/config"
	"github.com/jackzampolin/leaf/internal/document"
	"github.com/jackzampolin/leaf/internal/home"
	"github.com/jackzampolin/leaf/internal/pagecache"
	"github.com/jackzampolin/leaf/internal/raster"
	"github.com/jackzampolin/leaf/internal/sched"
	"github.com/jackzampolin/leaf/internal/server/endpoints"
	"github.com/jackzampolin/leaf/internal/svcctx"
	"github.com/jackzampolin/leaf/internal/viewer"
)

// Server is the main Leaf HTTP server. It owns the shared page cache, the
// render worker pool, and one viewer session per open document.
type Server struct {
	httpServer *http.Server
	documents  *document.Registry
	cache      *pagecache.Cache
	pool       *sched.Pool
	sessions   *viewer.Manager
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: from config, then 127.0.0.1)
	Host string
	// Port is the port to listen on (default: from config, then 8080)
	Port string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Rasterizer produces page bitmaps (default: placeholder pages)
	Rasterizer raster.Rasterizer
	// Home is the application home directory
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Rasterizer == nil {
		cfg.Rasterizer = &raster.Placeholder{}
	}

	appCfg := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		appCfg = cfg.ConfigManager.Get()
	}
	if cfg.Host == "" {
		cfg.Host = appCfg.Server.Host
	}
	if cfg.Port == "" {
		cfg.Port = appCfg.Server.Port
	}

	s := &Server{
		documents: document.NewRegistry(),
		cache:     pagecache.New(appCfg.Cache.BudgetBytes, cfg.Logger),
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}
	s.pool = sched.NewPool(sched.PoolConfig{
		Name:        "render",
		Logger:      cfg.Logger,
		Rasterizer:  cfg.Rasterizer,
		WorkerCount: appCfg.Render.Workers,
		QueueSize:   appCfg.Render.QueueSize,
	})
	s.sessions = viewer.NewManager(viewer.ManagerConfig{
		Cache:         s.cache,
		Pool:          s.pool,
		Logger:        cfg.Logger,
		DefaultScale:  appCfg.Viewer.DefaultScale,
		PagePadding:   appCfg.Viewer.PagePadding,
		PreloadRadius: appCfg.Viewer.PreloadRadius,
	})

	// Apply config changes to live services
	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			s.cache.SetBudget(c.Cache.BudgetBytes)
			s.sessions.ApplyConfig(c.Viewer.DefaultScale, c.Viewer.PagePadding, c.Viewer.PreloadRadius)
			cfg.Logger.Info("viewer settings reloaded from config")
		})
	}

	s.services = &svcctx.Services{
		Documents: s.documents,
		Cache:     s.cache,
		Pool:      s.pool,
		Sessions:  s.sessions,
		ConfigMgr: cfg.ConfigManager,
		Logger:    cfg.Logger,
		Home:      cfg.Home,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the render pool and HTTP server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting render pool")
	go s.pool.Start(ctx)
	s.sessions.Start(ctx)

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and sessions.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.sessions.CloseAll()
	s.cache.Clear()

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the server's root HTTP handler, with services attached.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Documents returns the document registry.
func (s *Server) Documents() *document.Registry {
	return s.documents
}

// Cache returns the shared page cache.
func (s *Server) Cache() *pagecache.Cache {
	return s.cache
}

// Sessions returns the viewer session manager.
func (s *Server) Sessions() *viewer.Manager {
	return s.sessions
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := svcctx.WithServices(r.Context(), s.services)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
