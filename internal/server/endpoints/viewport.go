package endpoints

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/leaf/internal/api"
	"github.com/jackzampolin/leaf/internal/layout"
	"github.com/jackzampolin/leaf/internal/svcctx"
)

// ViewportRequest describes the visible region in document coordinates.
type ViewportRequest struct {
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ViewportResponse reports the visible page after a scroll.
type ViewportResponse struct {
	VisiblePage int     `json:"visible_page"`
	Scale       float64 `json:"scale"`
}

// ViewportEndpoint handles POST /api/documents/{doc_id}/viewport.
// It updates the session's viewport, which schedules renders for the
// visible page and its neighbors.
type ViewportEndpoint struct{}

var _ api.Endpoint = (*ViewportEndpoint)(nil)

func (e *ViewportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{doc_id}/viewport", e.handler
}

func (e *ViewportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	var req ViewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "height must be positive")
		return
	}
	if req.Width <= 0 {
		req.Width = sess.Layout().MaxWidth
	}

	visible := sess.ViewportChanged(layout.Rect{Y: req.Y, Width: req.Width, Height: req.Height})
	writeJSON(w, http.StatusOK, ViewportResponse{VisiblePage: visible, Scale: sess.Scale()})
}

func (e *ViewportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var width, height float64
	cmd := &cobra.Command{
		Use:   "viewport <doc-id> <y>",
		Short: "Scroll a document session to a vertical offset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			y, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp ViewportResponse
			req := ViewportRequest{Y: y, Width: width, Height: height}
			if err := client.Post(cmd.Context(), "/api/documents/"+args[0]+"/viewport", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "viewport width (defaults to the widest page)")
	cmd.Flags().Float64Var(&height, "height", 800, "viewport height")
	return cmd
}

// ZoomRequest sets the session render scale. Exactly one of Scale or
// FitWidth should be positive.
type ZoomRequest struct {
	Scale    float64 `json:"scale,omitempty"`
	FitWidth float64 `json:"fit_width,omitempty"`
}

// ZoomResponse reports the session scale after a zoom.
type ZoomResponse struct {
	Scale       float64 `json:"scale"`
	TotalHeight float64 `json:"total_height"`
}

// ZoomEndpoint handles POST /api/documents/{doc_id}/zoom.
type ZoomEndpoint struct{}

var _ api.Endpoint = (*ZoomEndpoint)(nil)

func (e *ZoomEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{doc_id}/zoom", e.handler
}

func (e *ZoomEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	var req ZoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	switch {
	case req.FitWidth > 0:
		sess.FitWidth(req.FitWidth)
	case req.Scale > 0:
		sess.ZoomChanged(req.Scale)
	default:
		writeError(w, http.StatusBadRequest, "scale or fit_width must be positive")
		return
	}

	writeJSON(w, http.StatusOK, ZoomResponse{
		Scale:       sess.Scale(),
		TotalHeight: sess.Layout().TotalHeight,
	})
}

func (e *ZoomEndpoint) Command(getServerURL func() string) *cobra.Command {
	var fitWidth float64
	cmd := &cobra.Command{
		Use:   "zoom <doc-id> [scale]",
		Short: "Change a document session's render scale",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req ZoomRequest
			if len(args) == 2 {
				scale, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return err
				}
				req.Scale = scale
			}
			req.FitWidth = fitWidth

			client := api.NewClient(getServerURL())
			var resp ZoomResponse
			if err := client.Post(cmd.Context(), "/api/documents/"+args[0]+"/zoom", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().Float64Var(&fitWidth, "fit-width", 0, "scale the widest page to this pixel width")
	return cmd
}
