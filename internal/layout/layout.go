// Package layout computes page geometry for a continuous single-column
// view and tracks which page the viewport is looking at.
package layout

import (
	"github.com/jackzampolin/leaf/internal/document"
)

// Rect is an axis-aligned rectangle in layout space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Intersects reports whether the rectangles overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.Width && o.X <= r.X+r.Width &&
		r.Y <= o.Y+o.Height && o.Y <= r.Y+r.Height
}

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() float64 {
	return r.Y + r.Height/2
}

// Layout holds the computed position of every page at one scale factor.
type Layout struct {
	Scale       float64 `json:"scale"`
	Padding     float64 `json:"padding"`
	Pages       []Rect  `json:"pages"`
	TotalHeight float64 `json:"total_height"`
	MaxWidth    float64 `json:"max_width"`
}

// Compute stacks pages top to bottom in index order. Each page occupies
// its native size multiplied by scale, indented by padding from the
// running offset, and advances the offset by height plus twice the
// padding. x is always 0 (single column). Pure function: identical inputs
// produce identical layouts.
func Compute(sizes []document.PageSize, scale, padding float64) Layout {
	l := Layout{
		Scale:   scale,
		Padding: padding,
		Pages:   make([]Rect, 0, len(sizes)),
	}

	var offset float64
	for _, size := range sizes {
		w := size.Width * scale
		h := size.Height * scale
		l.Pages = append(l.Pages, Rect{
			X:      0,
			Y:      offset + padding,
			Width:  w,
			Height: h,
		})
		offset += h + 2*padding
		if w > l.MaxWidth {
			l.MaxWidth = w
		}
	}
	l.TotalHeight = offset

	return l
}

// FitWidthScale returns the scale that makes the page fill targetWidth.
// Returns fallback when the page or target width is degenerate.
func FitWidthScale(size document.PageSize, targetWidth, fallback float64) float64 {
	if size.Width <= 0 || targetWidth <= 0 {
		return fallback
	}
	return targetWidth / size.Width
}

// ViewportAt builds the viewport rect whose top edge sits at the given
// fraction (0.0-1.0) of the total scrollable height.
func (l Layout) ViewportAt(fraction, width, height float64) Rect {
	return Rect{
		X:      0,
		Y:      fraction * l.TotalHeight,
		Width:  width,
		Height: height,
	}
}
