package document

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a document ID is not registered.
var ErrNotFound = errors.New("document not found")

// Registry tracks open documents by ID.
// Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{docs: make(map[string]*Document)}
}

// Add registers a document.
func (r *Registry) Add(doc *Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID()] = doc
}

// Get returns the document with the given ID.
func (r *Registry) Get(id string) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Remove unregisters a document and reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.docs[id]
	delete(r.docs, id)
	return ok
}

// List returns all registered documents, ordered by ID for stable output.
func (r *Registry) List() []*Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]*Document, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID() < docs[j].ID() })
	return docs
}

// Len returns the number of open documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
