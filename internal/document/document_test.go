package document

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("assigns distinct IDs", func(t *testing.T) {
		sizes := []PageSize{{Width: 612, Height: 792}}
		a, err := New("a.pdf", sizes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := New("b.pdf", sizes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.ID() == b.ID() {
			t.Error("expected distinct document IDs")
		}
	})

	t.Run("rejects empty documents", func(t *testing.T) {
		_, err := New("empty.pdf", nil)
		if !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("expected ErrEmptyDocument, got %v", err)
		}
	})

	t.Run("exposes page sizes", func(t *testing.T) {
		sizes := []PageSize{
			{Width: 612, Height: 792},
			{Width: 595, Height: 842},
		}
		doc, err := New("mixed.pdf", sizes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.PageCount() != 2 {
			t.Fatalf("expected 2 pages, got %d", doc.PageCount())
		}
		if doc.PageSize(1).Height != 842 {
			t.Errorf("expected A4 height for page 1, got %g", doc.PageSize(1).Height)
		}
	})
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	sizes := []PageSize{{Width: 612, Height: 792}}

	doc, _ := New("a.pdf", sizes)
	reg.Add(doc)

	t.Run("get registered", func(t *testing.T) {
		got, err := reg.Get(doc.ID())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != doc {
			t.Error("expected same document back")
		}
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := reg.Get("nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list and remove", func(t *testing.T) {
		other, _ := New("b.pdf", sizes)
		reg.Add(other)
		if reg.Len() != 2 {
			t.Fatalf("expected 2 documents, got %d", reg.Len())
		}

		if !reg.Remove(doc.ID()) {
			t.Error("expected Remove to report presence")
		}
		if reg.Remove(doc.ID()) {
			t.Error("expected second Remove to report absence")
		}
		if reg.Len() != 1 {
			t.Errorf("expected 1 document, got %d", reg.Len())
		}
	})
}
