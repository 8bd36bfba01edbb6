package viewer

// PageState tracks the render lifecycle of one page.
//
// Placeholder --(scheduled)--> Loading --(success)--> Loaded
// Loading --(failure)--> Placeholder
// Loaded --(zoom change / invalidate)--> Placeholder
//
// Placeholder is the initial state for every page; no state is terminal.
type PageState int

const (
	StatePlaceholder PageState = iota
	StateLoading
	StateLoaded
)

func (s PageState) String() string {
	switch s {
	case StatePlaceholder:
		return "placeholder"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}
