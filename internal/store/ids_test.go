package store

import (
	"strings"
	"testing"
)

func TestNewItemIDIsShort(t *testing.T) {
	id, err := NewItemID()
	if err != nil {
		t.Fatalf("NewItemID: %v", err)
	}
	if !strings.HasPrefix(id, "li-") {
		t.Fatalf("expected li prefix, got %q", id)
	}
	suffix := strings.TrimPrefix(id, "li-")
	if got, want := len(suffix), 6; got != want {
		t.Fatalf("expected item id suffix len %d, got %d (%q)", want, got, suffix)
	}
}

func TestNewNoteIDStaysStableLength(t *testing.T) {
	id, err := NewNoteID()
	if err != nil {
		t.Fatalf("NewNoteID: %v", err)
	}
	if !IsNoteID(id) {
		t.Fatalf("expected note id, got %q", id)
	}
	suffix := strings.TrimPrefix(id, "note-")
	if got, want := len(suffix), 8; got != want {
		t.Fatalf("expected note id suffix len %d, got %d (%q)", want, got, suffix)
	}
}

func TestIsNoteID(t *testing.T) {
	cases := map[string]bool{
		"note-abc12345":  true,
		" note-abc12345": true,
		"note-":          false,
		"li-abc123":      false,
		"note-../x":      false,
		"note-a/b":       false,
		"note-ABC":       false,
	}
	for in, want := range cases {
		if got := IsNoteID(in); got != want {
			t.Fatalf("IsNoteID(%q) = %v, want %v", in, got, want)
		}
	}
}
