package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/leaf/internal/api"
	"github.com/jackzampolin/leaf/internal/pagecache"
	"github.com/jackzampolin/leaf/internal/svcctx"
)

// CacheStatsEndpoint handles GET /api/cache.
type CacheStatsEndpoint struct{}

var _ api.Endpoint = (*CacheStatsEndpoint)(nil)

func (e *CacheStatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/cache", e.handler
}

func (e *CacheStatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cache := svcctx.CacheFrom(r.Context())
	if cache == nil {
		writeError(w, http.StatusServiceUnavailable, "page cache not initialized")
		return
	}
	writeJSON(w, http.StatusOK, cache.Stats())
}

func (e *CacheStatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Show page cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp pagecache.Stats
			if err := client.Get(cmd.Context(), "/api/cache", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ClearCacheEndpoint handles DELETE /api/cache.
type ClearCacheEndpoint struct{}

var _ api.Endpoint = (*ClearCacheEndpoint)(nil)

func (e *ClearCacheEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/cache", e.handler
}

func (e *ClearCacheEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cache := svcctx.CacheFrom(r.Context())
	if cache == nil {
		writeError(w, http.StatusServiceUnavailable, "page cache not initialized")
		return
	}
	cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (e *ClearCacheEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Evict every page cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/cache"); err != nil {
				return err
			}
			fmt.Println("Cache cleared")
			return nil
		},
	}
}
