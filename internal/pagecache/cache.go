// Package pagecache keeps rendered page bitmaps inside a byte budget.
//
// Entries are keyed by (document ID, page index, scale factor). Lookups
// that miss the exact scale can still be served by downscaling a cached
// higher-resolution render of the same page; the derived bitmap is stored
// so repeated requests at that scale hit directly. Eviction is
// least-recently-accessed first. The cache holds one mutex across every
// metadata operation; rendering and resampling results are the only
// expensive work, and resampling is the one operation performed while
// holding the lock (it is cheap relative to a re-render and keeps the
// derived-entry insert atomic with the lookup).
package pagecache

import (
	"image"
	"log/slog"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Key identifies one cached bitmap.
type Key struct {
	DocID string
	Page  int
	Scale float64
}

// pageKey identifies a page across all cached scales.
type pageKey struct {
	docID string
	page  int
}

type entry struct {
	key    Key
	img    image.Image
	size   int64
	access uint64
}

// Stats is a point-in-time snapshot of cache state and counters.
type Stats struct {
	Entries     int    `json:"entries"`
	UsageBytes  int64  `json:"usage_bytes"`
	BudgetBytes int64  `json:"budget_bytes"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Fallbacks   uint64 `json:"fallbacks"`
	Evictions   uint64 `json:"evictions"`
}

// Cache is a byte-budgeted LRU cache of rendered page bitmaps.
// Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	budget  int64
	usage   int64
	seq     uint64
	entries map[Key]*entry
	scales  map[pageKey]map[float64]struct{}
	logger  *slog.Logger

	hits      uint64
	misses    uint64
	fallbacks uint64
	evictions uint64
}

// New creates a cache with the given byte budget.
func New(budget int64, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		budget:  budget,
		entries: make(map[Key]*entry),
		scales:  make(map[pageKey]map[float64]struct{}),
		logger:  logger.With("component", "pagecache"),
	}
}

// EstimateSize returns the byte size accounted for a bitmap:
// width x height x 4 (32-bit color, no compression).
func EstimateSize(img image.Image) int64 {
	b := img.Bounds()
	return int64(b.Dx()) * int64(b.Dy()) * 4
}

// Get returns the cached bitmap for the exact key, refreshing its recency.
//
// On an exact miss it falls back to the highest cached strictly-greater
// scale for the same page, downscales it by requested/cached, stores the
// result as a first-class entry, and returns it. Lower-resolution entries
// are never upscaled; that requires a real render.
func (c *Cache) Get(docID string, page int, scale float64) (image.Image, bool) {
	key := Key{DocID: docID, Page: page, Scale: scale}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.seq++
		e.access = c.seq
		c.hits++
		return e.img, true
	}

	// Resolution fallback: best strictly higher scale for this page.
	pk := pageKey{docID: docID, page: page}
	var best float64
	for s := range c.scales[pk] {
		if s > scale && s > best {
			best = s
		}
	}
	if best == 0 {
		c.misses++
		return nil, false
	}

	src := c.entries[Key{DocID: docID, Page: page, Scale: best}]
	img := downscale(src.img, scale/best)
	c.fallbacks++
	c.insertLocked(key, img)
	c.logger.Debug("resolution fallback",
		"doc", docID, "page", page, "requested", scale, "served_from", best)
	return img, true
}

// Put inserts or overwrites the entry for the key, evicting the
// least-recently-accessed entries until the new entry fits the budget.
// An entry larger than the whole budget is still admitted after
// everything else has been evicted.
func (c *Cache) Put(docID string, page int, scale float64, img image.Image) {
	key := Key{DocID: docID, Page: page, Scale: scale}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertLocked(key, img)
}

// insertLocked does the actual insert. Caller holds c.mu.
func (c *Cache) insertLocked(key Key, img image.Image) {
	if old, ok := c.entries[key]; ok {
		c.removeLocked(old)
	}

	size := EstimateSize(img)
	for c.usage+size > c.budget && len(c.entries) > 0 {
		c.evictOldestLocked()
	}
	if size > c.budget {
		// Informational only: a single page render can legitimately
		// exceed the whole budget at extreme zoom. It is cached anyway
		// so the current viewport still benefits from reuse.
		c.logger.Warn("cache entry exceeds budget",
			"doc", key.DocID, "page", key.Page, "scale", key.Scale,
			"size", size, "budget", c.budget)
	}

	c.seq++
	e := &entry{key: key, img: img, size: size, access: c.seq}
	c.entries[key] = e
	c.usage += size

	pk := pageKey{docID: key.DocID, page: key.Page}
	if c.scales[pk] == nil {
		c.scales[pk] = make(map[float64]struct{})
	}
	c.scales[pk][key.Scale] = struct{}{}
}

// evictOldestLocked removes the entry with the lowest access sequence.
// Caller holds c.mu and has checked len(c.entries) > 0.
func (c *Cache) evictOldestLocked() {
	var oldest *entry
	for _, e := range c.entries {
		if oldest == nil || e.access < oldest.access {
			oldest = e
		}
	}
	c.removeLocked(oldest)
	c.evictions++
	c.logger.Debug("evicted cache entry",
		"doc", oldest.key.DocID, "page", oldest.key.Page,
		"scale", oldest.key.Scale, "size", oldest.size)
}

// removeLocked unlinks an entry from the table, the scale index, and the
// usage counter. Caller holds c.mu.
func (c *Cache) removeLocked(e *entry) {
	delete(c.entries, e.key)
	c.usage -= e.size

	pk := pageKey{docID: e.key.DocID, page: e.key.Page}
	if set := c.scales[pk]; set != nil {
		delete(set, e.key.Scale)
		if len(set) == 0 {
			delete(c.scales, pk)
		}
	}
}

// Clear removes all entries and resets usage to zero.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*entry)
	c.scales = make(map[pageKey]map[float64]struct{})
	c.usage = 0
}

// ClearDocument removes all entries for one document.
// Called when a document is closed so its bitmaps stop pinning memory.
func (c *Cache) ClearDocument(docID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if key.DocID == docID {
			c.removeLocked(e)
		}
	}
}

// SetBudget updates the byte budget, evicting down to the new budget if
// needed. Hot-reloaded from config.
func (c *Cache) SetBudget(budget int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.budget = budget
	for c.usage > c.budget && len(c.entries) > 1 {
		c.evictOldestLocked()
	}
}

// Stats returns a snapshot of cache state and counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:     len(c.entries),
		UsageBytes:  c.usage,
		BudgetBytes: c.budget,
		Hits:        c.hits,
		Misses:      c.misses,
		Fallbacks:   c.fallbacks,
		Evictions:   c.evictions,
	}
}

// downscale resamples src by ratio (0 < ratio < 1) with Catmull-Rom,
// clamping to at least 1x1.
func downscale(src image.Image, ratio float64) image.Image {
	b := src.Bounds()
	w := int(float64(b.Dx()) * ratio)
	h := int(float64(b.Dy()) * ratio)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
