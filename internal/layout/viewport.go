package layout

import "math"

// Preload priorities. Lower values are dispatched first.
const (
	// PriorityVisible is the page currently on screen.
	PriorityVisible = 0
	// PriorityNeighbor is a page inside the preload radius.
	PriorityNeighbor = 1
)

// Request asks for one page to be rendered at a priority tier.
type Request struct {
	Priority int
	Page     int
}

// VisiblePage returns the index of the "current" page for a viewport.
//
// Among all pages intersecting the viewport the maximum index wins, so
// scrolling downward promotes the next page as soon as any sliver of it
// shows. When nothing intersects (extreme scroll positions, degenerate
// layouts), the page whose vertical center is nearest the viewport's
// center is chosen, lowest index on ties.
func (l Layout) VisiblePage(viewport Rect) int {
	visible := -1
	for i, page := range l.Pages {
		if page.Intersects(viewport) {
			visible = i
		}
	}
	if visible >= 0 {
		return visible
	}

	closest := 0
	minDistance := math.Inf(1)
	center := viewport.CenterY()
	for i, page := range l.Pages {
		if d := math.Abs(center - page.CenterY()); d < minDistance {
			minDistance = d
			closest = i
		}
	}
	return closest
}

// PreloadSet selects pages to render around the visible page: the visible
// page itself at PriorityVisible, then every in-range page within radius
// at PriorityNeighbor. Pages for which isLoaded returns true are skipped.
// Order is stable: the visible page first, then neighbors by ascending
// index.
func PreloadSet(visible, pageCount, radius int, isLoaded func(page int) bool) []Request {
	var reqs []Request

	if !isLoaded(visible) {
		reqs = append(reqs, Request{Priority: PriorityVisible, Page: visible})
	}

	for offset := -radius; offset <= radius; offset++ {
		if offset == 0 {
			continue
		}
		page := visible + offset
		if page < 0 || page >= pageCount {
			continue
		}
		if isLoaded(page) {
			continue
		}
		reqs = append(reqs, Request{Priority: PriorityNeighbor, Page: page})
	}

	return reqs
}
