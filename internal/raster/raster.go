// Package raster defines the rasterizer boundary: given an open document, a
// page index, and a scale factor, produce a bitmap. Real PDF rasterization
// lives behind this interface (mupdf, poppler, an RPC to a render farm);
// the engine never assumes more than Render.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/jackzampolin/leaf/internal/document"
)

// ErrRasterization is the base error for render failures.
// Adapter errors should wrap it so callers can classify without
// depending on adapter-specific types.
var ErrRasterization = errors.New("rasterization failed")

// Rasterizer produces a bitmap for one page of a document at a scale.
// Implementations must be safe for concurrent use against the same
// document: render workers call Render from multiple goroutines.
type Rasterizer interface {
	Render(ctx context.Context, doc *document.Document, page int, scale float64) (image.Image, error)
}

// Failure wraps an adapter error with page context.
func Failure(doc *document.Document, page int, err error) error {
	return fmt.Errorf("%w: doc %s page %d: %v", ErrRasterization, doc.ID(), page, err)
}
