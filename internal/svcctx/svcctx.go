// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/leaf/internal/config"
	"github.com/jackzampolin/leaf/internal/document"
	"github.com/jackzampolin/leaf/internal/home"
	"github.com/jackzampolin/leaf/internal/pagecache"
	"github.com/jackzampolin/leaf/internal/sched"
	"github.com/jackzampolin/leaf/internal/viewer"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Documents *document.Registry
	Cache     *pagecache.Cache
	Pool      *sched.Pool
	Sessions  *viewer.Manager
	ConfigMgr *config.Manager
	Logger    *slog.Logger
	Home      *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// DocumentsFrom extracts the document registry from context.
func DocumentsFrom(ctx context.Context) *document.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Documents
	}
	return nil
}

// CacheFrom extracts the page cache from context.
func CacheFrom(ctx context.Context) *pagecache.Cache {
	if s := ServicesFrom(ctx); s != nil {
		return s.Cache
	}
	return nil
}

// PoolFrom extracts the render pool from context.
func PoolFrom(ctx context.Context) *sched.Pool {
	if s := ServicesFrom(ctx); s != nil {
		return s.Pool
	}
	return nil
}

// SessionsFrom extracts the session manager from context.
func SessionsFrom(ctx context.Context) *viewer.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Sessions
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigMgr
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
