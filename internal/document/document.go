// Package document models open documents: a stable identity, a page count,
// and the native size of every page. Rasterization is someone else's job;
// this package only answers "what pages exist and how big are they".
package document

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrEmptyDocument is returned when a document has no pages.
var ErrEmptyDocument = errors.New("document has no pages")

// PageSize is the native size of a page in points (at scale 1.0).
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Document is an open document: immutable for the lifetime of a session.
type Document struct {
	id        string
	path      string
	pageSizes []PageSize
}

// ID returns the document's stable identity.
func (d *Document) ID() string { return d.id }

// Path returns the source file path ("" for synthetic documents).
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.pageSizes) }

// PageSize returns the native size of a page.
// Page index must be in [0, PageCount).
func (d *Document) PageSize(page int) PageSize { return d.pageSizes[page] }

// PageSizes returns the native sizes of all pages in index order.
// The returned slice must not be modified.
func (d *Document) PageSizes() []PageSize { return d.pageSizes }

// New creates a document from explicit page sizes, assigning a fresh ID.
// Used for fixtures and for callers that already parsed the document.
func New(path string, sizes []PageSize) (*Document, error) {
	if len(sizes) == 0 {
		return nil, ErrEmptyDocument
	}
	return &Document{
		id:        uuid.NewString(),
		path:      path,
		pageSizes: sizes,
	}, nil
}

// Open reads page count and page dimensions from a PDF file.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pageCount, err := api.PageCount(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count for %s: %w", path, err)
	}
	if pageCount == 0 {
		return nil, ErrEmptyDocument
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("failed to rewind %s: %w", path, err)
	}

	dims, err := api.PageDims(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to get page dimensions for %s: %w", path, err)
	}

	sizes := make([]PageSize, 0, len(dims))
	for _, dim := range dims {
		sizes = append(sizes, PageSize{Width: dim.Width, Height: dim.Height})
	}

	return New(path, sizes)
}
