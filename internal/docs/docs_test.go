package docs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTopics(t *testing.T) {
	want := []string{"formats", "items", "storage", "undo"}
	if diff := cmp.Diff(want, Topics()); diff != "" {
		t.Fatalf("Topics (-want +got):\n%s", diff)
	}
}

func TestGet(t *testing.T) {
	body, ok := Get(" Items ")
	if !ok || !strings.HasPrefix(body, "# Items and children") {
		t.Fatalf("Get(items) = %q, %v", body, ok)
	}
	for _, topic := range []string{"", "missing", "../docs"} {
		if _, ok := Get(topic); ok {
			t.Fatalf("Get(%q) found a topic", topic)
		}
	}
}
