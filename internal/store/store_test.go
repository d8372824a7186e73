package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"checklist-cli/internal/model"
)

func TestDiscoverDirWalksUp(t *testing.T) {
	root := t.TempDir()
	want := filepath.Join(root, ".checklist")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(want, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok := DiscoverDir(nested)
	if !ok || got != want {
		t.Fatalf("DiscoverDir = %q, %v; want %q", got, ok, want)
	}
}

func TestDefaultDirHonorsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHECKLIST_DIR", dir)
	got, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if got != dir {
		t.Fatalf("DefaultDir = %q, want %q", got, dir)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := (Store{Dir: t.TempDir()}).Open("redis", nil); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestPersistableItems(t *testing.T) {
	in := []model.ListItem{
		{ID: "a", Body: ""},
		{ID: "b", Body: "orphan", IsChild: true},
		{ID: "c", Body: "C"},
		{ID: "d", Body: "", IsChild: true},
		{ID: "e", Body: "kid", IsChild: true},
	}
	want := []model.ListItem{
		{ID: "b", Body: "orphan", Order: 0},
		{ID: "c", Body: "C", Order: 1},
		{ID: "e", Body: "kid", IsChild: true, Order: 2},
	}
	if diff := cmp.Diff(want, PersistableItems(in)); diff != "" {
		t.Fatalf("PersistableItems (-want +got):\n%s", diff)
	}
}
