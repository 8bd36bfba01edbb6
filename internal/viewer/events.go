package viewer

import "image"

// EventKind discriminates session events.
type EventKind string

const (
	// EventPageReady carries a freshly rendered page bitmap.
	EventPageReady EventKind = "page_ready"
	// EventPageFailed reports a render failure; the page is back to
	// placeholder and will be retried by a future viewport pass.
	EventPageFailed EventKind = "page_failed"
	// EventVisiblePage reports that the current page changed.
	EventVisiblePage EventKind = "visible_page"
)

// Event is delivered on Session.Events(). The render surface drains the
// channel from a single consumer; workers never touch on-screen state
// directly.
type Event struct {
	Kind  EventKind
	Page  int
	Scale float64     // scale the page was rendered at (page events)
	Image image.Image // set for EventPageReady
	Err   error       // set for EventPageFailed
}
