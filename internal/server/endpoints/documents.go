package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/leaf/internal/api"
	"github.com/jackzampolin/leaf/internal/document"
	"github.com/jackzampolin/leaf/internal/svcctx"
)

// DocumentSummary describes one open document.
type DocumentSummary struct {
	ID        string  `json:"id"`
	Path      string  `json:"path"`
	PageCount int     `json:"page_count"`
	Scale     float64 `json:"scale,omitempty"`
}

func summarize(r *http.Request, doc *document.Document) DocumentSummary {
	s := DocumentSummary{
		ID:        doc.ID(),
		Path:      doc.Path(),
		PageCount: doc.PageCount(),
	}
	if sessions := svcctx.SessionsFrom(r.Context()); sessions != nil {
		if sess, err := sessions.Get(doc.ID()); err == nil {
			s.Scale = sess.Scale()
		}
	}
	return s
}

// OpenDocumentRequest is the request body for opening a document.
type OpenDocumentRequest struct {
	Path string `json:"path"`
}

// OpenDocumentEndpoint handles POST /api/documents.
type OpenDocumentEndpoint struct{}

var _ api.Endpoint = (*OpenDocumentEndpoint)(nil)

func (e *OpenDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents", e.handler
}

func (e *OpenDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req OpenDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	docs := svcctx.DocumentsFrom(r.Context())
	sessions := svcctx.SessionsFrom(r.Context())
	if docs == nil || sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "document services not initialized")
		return
	}

	doc, err := document.Open(req.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	docs.Add(doc)
	sessions.Open(doc)

	writeJSON(w, http.StatusCreated, summarize(r, doc))
}

func (e *OpenDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a document on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DocumentSummary
			if err := client.Post(cmd.Context(), "/api/documents", OpenDocumentRequest{Path: args[0]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ListDocumentsResponse is the response for listing open documents.
type ListDocumentsResponse struct {
	Documents []DocumentSummary `json:"documents"`
}

// ListDocumentsEndpoint handles GET /api/documents.
type ListDocumentsEndpoint struct{}

var _ api.Endpoint = (*ListDocumentsEndpoint)(nil)

func (e *ListDocumentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents", e.handler
}

func (e *ListDocumentsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	docs := svcctx.DocumentsFrom(r.Context())
	if docs == nil {
		writeError(w, http.StatusServiceUnavailable, "document registry not initialized")
		return
	}

	resp := ListDocumentsResponse{Documents: []DocumentSummary{}}
	for _, doc := range docs.List() {
		resp.Documents = append(resp.Documents, summarize(r, doc))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListDocumentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListDocumentsResponse
			if err := client.Get(cmd.Context(), "/api/documents", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetDocumentEndpoint handles GET /api/documents/{doc_id}.
type GetDocumentEndpoint struct{}

var _ api.Endpoint = (*GetDocumentEndpoint)(nil)

func (e *GetDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{doc_id}", e.handler
}

func (e *GetDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	docs := svcctx.DocumentsFrom(r.Context())
	if docs == nil {
		writeError(w, http.StatusServiceUnavailable, "document registry not initialized")
		return
	}

	doc, err := docs.Get(r.PathValue("doc_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summarize(r, doc))
}

func (e *GetDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <doc-id>",
		Short: "Get an open document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DocumentSummary
			if err := client.Get(cmd.Context(), "/api/documents/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// CloseDocumentEndpoint handles DELETE /api/documents/{doc_id}.
type CloseDocumentEndpoint struct{}

var _ api.Endpoint = (*CloseDocumentEndpoint)(nil)

func (e *CloseDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/documents/{doc_id}", e.handler
}

func (e *CloseDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	docs := svcctx.DocumentsFrom(r.Context())
	sessions := svcctx.SessionsFrom(r.Context())
	if docs == nil || sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "document services not initialized")
		return
	}

	docID := r.PathValue("doc_id")
	sessions.Close(docID)
	if !docs.Remove(docID) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("document %s not found", docID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *CloseDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "close <doc-id>",
		Short: "Close an open document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/documents/"+args[0]); err != nil {
				return err
			}
			fmt.Printf("Closed %s\n", args[0])
			return nil
		},
	}
}
