package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_WaitReady(t *testing.T) {
	t.Run("ready immediately", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		if err := client.WaitReady(context.Background(), 2*time.Second); err != nil {
			t.Errorf("WaitReady failed against healthy server: %v", err)
		}
	})

	t.Run("ready after retries", func(t *testing.T) {
		var probes atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probes.Add(1) < 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		if err := client.WaitReady(context.Background(), 5*time.Second); err != nil {
			t.Errorf("WaitReady failed against server that became healthy: %v", err)
		}
		if got := probes.Load(); got < 2 {
			t.Errorf("expected at least 2 health checks, got %d", got)
		}
	})

	t.Run("never ready", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		if err := client.WaitReady(context.Background(), 1*time.Second); err == nil {
			t.Error("expected error from server that never becomes healthy")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := NewClient(srv.URL)
		if err := client.WaitReady(ctx, 30*time.Second); err == nil {
			t.Error("expected error after context cancellation")
		}
	})
}
