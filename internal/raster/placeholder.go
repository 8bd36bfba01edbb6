package raster

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/jackzampolin/leaf/internal/document"
)

// Placeholder renders blank page bodies with a gray frame at the requested
// scale. It stands in for a real rasterizer in tests, `leaf render`, and
// `leaf serve` until one is injected; page geometry is real even though
// page content is not.
type Placeholder struct {
	// Background defaults to white, Frame to light gray.
	Background color.Color
	Frame      color.Color
}

var _ Rasterizer = (*Placeholder)(nil)

// Render produces the page bitmap. Dimensions are the page's native size
// multiplied by scale, matching what a real rasterizer would produce.
func (p *Placeholder) Render(ctx context.Context, doc *document.Document, page int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, Failure(doc, page, err)
	}

	size := doc.PageSize(page)
	w := int(size.Width * scale)
	h := int(size.Height * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	bg := p.Background
	if bg == nil {
		bg = color.White
	}
	frame := p.Frame
	if frame == nil {
		frame = color.Gray{Y: 0xc0}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	for x := 0; x < w; x++ {
		img.Set(x, 0, frame)
		img.Set(x, h-1, frame)
	}
	for y := 0; y < h; y++ {
		img.Set(0, y, frame)
		img.Set(w-1, y, frame)
	}

	return img, nil
}
