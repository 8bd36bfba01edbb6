package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/leaf/internal/api"
	"github.com/jackzampolin/leaf/internal/layout"
	"github.com/jackzampolin/leaf/internal/svcctx"
)

// PageRect is one page's placement in document coordinates.
type PageRect struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LayoutResponse describes the full document layout at a scale.
type LayoutResponse struct {
	Scale       float64    `json:"scale"`
	Padding     float64    `json:"padding"`
	TotalHeight float64    `json:"total_height"`
	MaxWidth    float64    `json:"max_width"`
	Pages       []PageRect `json:"pages"`
}

// LayoutEndpoint handles GET /api/documents/{doc_id}/layout.
// An optional scale query parameter computes the layout at a scale other
// than the session's current one.
type LayoutEndpoint struct{}

var _ api.Endpoint = (*LayoutEndpoint)(nil)

func (e *LayoutEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{doc_id}/layout", e.handler
}

func (e *LayoutEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sessions := svcctx.SessionsFrom(r.Context())
	if sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "session manager not initialized")
		return
	}

	sess, err := sessions.Get(r.PathValue("doc_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	l := sess.Layout()
	if raw := r.URL.Query().Get("scale"); raw != "" {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil || scale <= 0 {
			writeError(w, http.StatusBadRequest, "scale must be a positive number")
			return
		}
		if scale != l.Scale {
			l = layout.Compute(sess.Document().PageSizes(), scale, l.Padding)
		}
	}

	resp := LayoutResponse{
		Scale:       l.Scale,
		Padding:     l.Padding,
		TotalHeight: l.TotalHeight,
		MaxWidth:    l.MaxWidth,
		Pages:       make([]PageRect, len(l.Pages)),
	}
	for i, rect := range l.Pages {
		resp.Pages[i] = PageRect{Page: i, X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *LayoutEndpoint) Command(getServerURL func() string) *cobra.Command {
	var scale float64
	cmd := &cobra.Command{
		Use:   "layout <doc-id>",
		Short: "Get the page layout for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/documents/" + args[0] + "/layout"
			if scale > 0 {
				path += "?scale=" + strconv.FormatFloat(scale, 'g', -1, 64)
			}
			client := api.NewClient(getServerURL())
			var resp LayoutResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().Float64Var(&scale, "scale", 0, "compute layout at this scale")
	return cmd
}
