package endpoints

import (
	"fmt"
	"image/png"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/leaf/internal/api"
	"github.com/jackzampolin/leaf/internal/layout"
	"github.com/jackzampolin/leaf/internal/sched"
	"github.com/jackzampolin/leaf/internal/svcctx"
)

// PageImageEndpoint handles GET /api/documents/{doc_id}/pages/{page}/image.
// Cached bitmaps (exact scale or a downscaled higher-resolution entry) are
// served directly; otherwise the page is rendered synchronously.
type PageImageEndpoint struct{}

var _ api.Endpoint = (*PageImageEndpoint)(nil)

func (e *PageImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{doc_id}/pages/{page}/image", e.handler
}

func (e *PageImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	docs := svcctx.DocumentsFrom(r.Context())
	cache := svcctx.CacheFrom(r.Context())
	pool := svcctx.PoolFrom(r.Context())
	if docs == nil || cache == nil || pool == nil {
		writeError(w, http.StatusServiceUnavailable, "render services not initialized")
		return
	}

	doc, err := docs.Get(r.PathValue("doc_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 0 || page >= doc.PageCount() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("page must be in [0, %d)", doc.PageCount()))
		return
	}

	scale := 1.0
	if sessions := svcctx.SessionsFrom(r.Context()); sessions != nil {
		if sess, err := sessions.Get(doc.ID()); err == nil {
			scale = sess.Scale()
		}
	}
	if raw := r.URL.Query().Get("scale"); raw != "" {
		scale, err = strconv.ParseFloat(raw, 64)
		if err != nil || scale <= 0 {
			writeError(w, http.StatusBadRequest, "scale must be a positive number")
			return
		}
	}

	img, ok := cache.Get(doc.ID(), page, scale)
	if !ok {
		reply := make(chan sched.Result, 1)
		task := &sched.Task{
			Doc:      doc,
			Page:     page,
			Scale:    scale,
			Priority: layout.PriorityVisible,
			Reply:    reply,
		}
		if err := pool.Submit(task); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}

		select {
		case res := <-reply:
			if res.Err != nil {
				writeError(w, http.StatusInternalServerError, res.Err.Error())
				return
			}
			img = res.Image
			cache.Put(doc.ID(), page, scale, img)
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		svcctx.LoggerFrom(r.Context()).Error("failed to encode page image", "doc", doc.ID(), "page", page, "error", err)
	}
}

func (e *PageImageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		scale float64
		out   string
	)
	cmd := &cobra.Command{
		Use:   "page <doc-id> <page>",
		Short: "Fetch a rendered page as PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/documents/%s/pages/%s/image", args[0], args[1])
			if scale > 0 {
				path += "?scale=" + strconv.FormatFloat(scale, 'g', -1, 64)
			}

			client := api.NewClient(getServerURL())
			body, _, err := client.GetRaw(cmd.Context(), path)
			if err != nil {
				return err
			}

			if out == "" {
				out = fmt.Sprintf("page_%s.png", args[1])
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", out, len(body))
			return nil
		},
	}
	cmd.Flags().Float64Var(&scale, "scale", 0, "render scale (defaults to the session scale)")
	cmd.Flags().StringVarP(&out, "out", "f", "", "output file path")
	return cmd
}
