package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/jackzampolin/leaf/internal/document"
	"github.com/jackzampolin/leaf/internal/server/endpoints"
)

// waitForServer polls the health endpoint until the server responds.
func waitForServer(ctx context.Context, baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not ready after %s", baseURL, timeout)
}

func postJSON(t *testing.T, url string, body any, result any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if result != nil && resp.StatusCode < 400 {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp
}

func getJSON(t *testing.T, url string, result any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if result != nil && resp.StatusCode < 400 {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp
}

func TestServer_FullLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	port := "18090" // non-standard port for testing
	srv, err := New(Config{Host: "127.0.0.1", Port: port})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)

	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%s", port)
	if err := waitForServer(ctx, baseURL, 10*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not start: %v", err)
	}

	// Register a document directly; opening via the API needs a real PDF.
	doc, err := document.New("lifecycle.pdf", []document.PageSize{
		{Width: 100, Height: 100},
		{Width: 100, Height: 100},
		{Width: 100, Height: 100},
	})
	if err != nil {
		t.Fatalf("failed to create document: %v", err)
	}
	srv.Documents().Add(doc)
	srv.Sessions().Open(doc)
	docURL := baseURL + "/api/documents/" + doc.ID()

	t.Run("health_endpoint", func(t *testing.T) {
		var health endpoints.HealthResponse
		resp := getJSON(t, baseURL+"/health", &health)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if health.Status != "ok" {
			t.Errorf("health.Status = %q, want %q", health.Status, "ok")
		}
	})

	t.Run("status_endpoint", func(t *testing.T) {
		var status endpoints.StatusResponse
		resp := getJSON(t, baseURL+"/status", &status)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if status.Server != "running" {
			t.Errorf("status.Server = %q, want %q", status.Server, "running")
		}
		if status.Render.Workers < 1 {
			t.Errorf("status.Render.Workers = %d, want >= 1", status.Render.Workers)
		}
		if status.Documents != 1 {
			t.Errorf("status.Documents = %d, want 1", status.Documents)
		}
	})

	t.Run("open_missing_file", func(t *testing.T) {
		resp := postJSON(t, baseURL+"/api/documents", endpoints.OpenDocumentRequest{Path: "/does/not/exist.pdf"}, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("open status = %d, want %d", resp.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("list_documents", func(t *testing.T) {
		var list endpoints.ListDocumentsResponse
		getJSON(t, baseURL+"/api/documents", &list)
		if len(list.Documents) != 1 {
			t.Fatalf("got %d documents, want 1", len(list.Documents))
		}
		if list.Documents[0].ID != doc.ID() {
			t.Errorf("document ID = %q, want %q", list.Documents[0].ID, doc.ID())
		}
		if list.Documents[0].PageCount != 3 {
			t.Errorf("page count = %d, want 3", list.Documents[0].PageCount)
		}
	})

	t.Run("layout", func(t *testing.T) {
		var l endpoints.LayoutResponse
		resp := getJSON(t, docURL+"/layout", &l)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("layout status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if len(l.Pages) != 3 {
			t.Fatalf("got %d page rects, want 3", len(l.Pages))
		}
		if l.Pages[0].Y != l.Padding {
			t.Errorf("first page y = %g, want %g", l.Pages[0].Y, l.Padding)
		}
		wantHeight := 3 * (100 + 2*l.Padding)
		if l.TotalHeight != wantHeight {
			t.Errorf("total height = %g, want %g", l.TotalHeight, wantHeight)
		}
	})

	t.Run("viewport", func(t *testing.T) {
		var vr endpoints.ViewportResponse
		resp := postJSON(t, docURL+"/viewport", endpoints.ViewportRequest{Y: 0, Height: 120}, &vr)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("viewport status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if vr.VisiblePage != 0 {
			t.Errorf("visible page = %d, want 0", vr.VisiblePage)
		}
	})

	t.Run("page_image", func(t *testing.T) {
		resp, err := http.Get(docURL + "/pages/1/image?scale=1.0")
		if err != nil {
			t.Fatalf("page image request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("page image status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("content type = %q, want %q", ct, "image/png")
		}

		img, err := png.Decode(resp.Body)
		if err != nil {
			t.Fatalf("failed to decode PNG: %v", err)
		}
		if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
			t.Errorf("image size = %dx%d, want 100x100", img.Bounds().Dx(), img.Bounds().Dy())
		}

		// The rendered page is now cached.
		if _, ok := srv.Cache().Get(doc.ID(), 1, 1.0); !ok {
			t.Error("expected rendered page in cache")
		}
	})

	t.Run("page_image_bad_page", func(t *testing.T) {
		resp, err := http.Get(docURL + "/pages/9/image")
		if err != nil {
			t.Fatalf("page image request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("zoom", func(t *testing.T) {
		var zr endpoints.ZoomResponse
		resp := postJSON(t, docURL+"/zoom", endpoints.ZoomRequest{Scale: 2.0}, &zr)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("zoom status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if zr.Scale != 2.0 {
			t.Errorf("scale = %g, want 2.0", zr.Scale)
		}
	})

	t.Run("cache_stats", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/api/cache")
		if err != nil {
			t.Fatalf("cache stats request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("cache stats status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("close_document", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, docURL, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("close request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("close status = %d, want %d", resp.StatusCode, http.StatusNoContent)
		}

		getResp := getJSON(t, docURL, nil)
		if getResp.StatusCode != http.StatusNotFound {
			t.Errorf("get after close status = %d, want %d", getResp.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("is_running", func(t *testing.T) {
		if !srv.IsRunning() {
			t.Error("IsRunning() = false, want true")
		}
	})

	serverCancel()
	select {
	case err := <-serverErr:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown, want false")
	}
}
