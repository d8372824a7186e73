package editor

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"checklist-cli/internal/history"
	"checklist-cli/internal/model"
)

func seqIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("li-%03d", n), nil
	}
}

// open builds a controller from a compact layout: "A >b >c D" where ">" marks a
// child and a trailing "*" marks a checked item. Ids equal bodies.
func open(t *testing.T, layout string, opts ...Option) *Controller {
	t.Helper()
	note := &model.Note{ID: "note-test0001"}
	for i, f := range strings.Fields(layout) {
		it := model.ListItem{Order: i}
		if strings.HasPrefix(f, ">") {
			it.IsChild = true
			f = f[1:]
		}
		if strings.HasSuffix(f, "*") {
			it.Checked = true
			f = strings.TrimSuffix(f, "*")
		}
		it.ID, it.Body = f, f
		note.Items = append(note.Items, it)
	}
	c, err := Open(note, append([]Option{WithIDGenerator(seqIDs())}, opts...)...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func render(c *Controller) string {
	var parts []string
	for _, it := range c.Items() {
		s := it.Body
		if it.IsChild {
			s = ">" + s
		}
		if it.Checked {
			s += "*"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func expect(t *testing.T, c *Controller, want string) {
	t.Helper()
	if got := render(c); got != want {
		t.Fatalf("list = %q, want %q", got, want)
	}
}

func TestOpenRejectsInvalidItems(t *testing.T) {
	note := &model.Note{ID: "note-test0001", Items: []model.ListItem{{ID: "a", Body: "a", IsChild: true}}}
	if _, err := Open(note); err == nil {
		t.Fatalf("expected error for a leading child")
	}
}

func TestAdd(t *testing.T) {
	c := open(t, "A >b D")

	r, err := c.Add(2, "x", nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if r.Item.ID != "li-001" || r.Index != 2 || !r.Changed {
		t.Fatalf("unexpected result: %+v", r)
	}
	expect(t, c, "A >b x D")

	if _, err := c.Add(1, "y", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	expect(t, c, "A >y >b x D")

	if _, err := c.Add(0, "z", boolPtr(true)); !errors.Is(err, ErrCannotIndent) {
		t.Fatalf("expected ErrCannotIndent, got %v", err)
	}
}

func TestAddAfterJoinsRun(t *testing.T) {
	c := open(t, "A >b D")
	if _, err := c.AddAfter("A", "first"); err != nil {
		t.Fatalf("AddAfter: %v", err)
	}
	if _, err := c.AddAfter("D", "top"); err != nil {
		t.Fatalf("AddAfter: %v", err)
	}
	expect(t, c, "A >first >b D top")

	var nf NotFoundError
	if _, err := c.AddAfter("nope", "x"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteRemovesRun(t *testing.T) {
	c := open(t, "A >b >c D >e")
	r, err := c.Delete(0)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	expect(t, c, "D >e")
	if diff := cmp.Diff([]string{"A", "b", "c"}, r.EventPayload["removed"]); diff != "" {
		t.Fatalf("removed ids (-want +got):\n%s", diff)
	}

	if _, err := c.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	expect(t, c, "A >b >c D >e")

	var ie IndexError
	if _, err := c.Delete(9); !errors.As(err, &ie) {
		t.Fatalf("expected IndexError, got %v", err)
	}
}

func TestChangeText(t *testing.T) {
	c := open(t, "A >b")
	if _, err := c.ChangeText(1, "bee"); err != nil {
		t.Fatalf("ChangeText: %v", err)
	}
	expect(t, c, "A >bee")
	r, _ := c.ChangeText(1, "bee")
	if r.Changed || c.History().Len() != 1 {
		t.Fatalf("unchanged text recorded a change")
	}
	c.Undo()
	expect(t, c, "A >b")
}

func TestSetCheckedCascades(t *testing.T) {
	c := open(t, "A >b >c D")

	c.SetChecked(0, true)
	expect(t, c, "A* >b* >c* D")

	c.SetChecked(2, false)
	expect(t, c, "A >b* >c D")

	c.SetChecked(2, true)
	expect(t, c, "A* >b* >c* D")

	c.SetChecked(3, true)
	expect(t, c, "A* >b* >c* D*")
}

func TestSetCheckedAutoSort(t *testing.T) {
	c := open(t, "A >b >c D E", WithAutoSort(true))

	r, err := c.SetChecked(1, true)
	if err != nil {
		t.Fatalf("SetChecked: %v", err)
	}
	expect(t, c, "A >c >b* D E")
	if r.Index != 2 {
		t.Fatalf("index after sort = %d, want 2", r.Index)
	}

	c.SetChecked(0, true)
	expect(t, c, "D E A* >c* >b*")

	if c.History().Len() != 2 {
		t.Fatalf("expected one change per toggle, got %d", c.History().Len())
	}
	c.Undo()
	expect(t, c, "A >c >b* D E")
	c.Undo()
	expect(t, c, "A >b >c D E")
}

func TestIndentOutdent(t *testing.T) {
	c := open(t, "A >b >c >d")

	if _, err := c.Indent(0); !errors.Is(err, ErrCannotIndent) {
		t.Fatalf("expected ErrCannotIndent, got %v", err)
	}

	c.Outdent(2)
	expect(t, c, "A >b c >d")

	c.Indent(2)
	expect(t, c, "A >b >c d")

	r, _ := c.Outdent(0)
	if r.Changed {
		t.Fatalf("outdenting a top-level item changed the list")
	}

	c.Undo()
	expect(t, c, "A >b c >d")
	c.Redo()
	expect(t, c, "A >b >c d")
}

func TestMove(t *testing.T) {
	c := open(t, "A >b >c D >e")

	if _, err := c.Move(0, 9, false); err != nil {
		t.Fatalf("Move: %v", err)
	}
	expect(t, c, "D >e A >b >c")

	if _, err := c.Move(4, 1, true); err != nil {
		t.Fatalf("Move: %v", err)
	}
	expect(t, c, "D >c >e A >b")

	if _, err := c.Move(1, 0, true); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}

	c.Undo()
	c.Undo()
	expect(t, c, "A >b >c D >e")
}

func TestSortByChecked(t *testing.T) {
	c := open(t, "A* >b >c* D >e* >f G*")
	r, err := c.SortByChecked()
	if err != nil || !r.Changed {
		t.Fatalf("SortByChecked = %+v, %v", r, err)
	}
	expect(t, c, "D >f >e* A* >b >c* G*")

	r, _ = c.SortByChecked()
	if r.Changed {
		t.Fatalf("sorting a sorted list changed it")
	}
	c.Undo()
	expect(t, c, "A* >b >c* D >e* >f G*")
}

func TestUndoRedoEmpty(t *testing.T) {
	c := open(t, "A")
	if c.CanUndo() || c.CanRedo() {
		t.Fatalf("fresh controller reports history")
	}
	if _, err := c.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	if _, err := c.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestUndoDetectsForeignEdits(t *testing.T) {
	c := open(t, "A >b")
	c.ChangeText(1, "bee")

	// The same history opened against a list that no longer has the item.
	note := &model.Note{ID: "note-test0001", Items: []model.ListItem{{ID: "A", Body: "A"}}, History: c.History()}
	c2, err := Open(note)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var hm HistoryMismatchError
	if _, err := c2.Undo(); !errors.As(err, &hm) {
		t.Fatalf("expected HistoryMismatchError, got %v", err)
	}
	if !c2.CanUndo() {
		t.Fatalf("failed undo consumed the change")
	}
}

func TestHistoryLimit(t *testing.T) {
	c := open(t, "A", WithHistoryLimit(2))
	for i := 0; i < 4; i++ {
		c.ChangeText(0, fmt.Sprintf("v%d", i))
	}
	if c.History().Len() != 2 {
		t.Fatalf("history len = %d, want 2", c.History().Len())
	}
	c.Undo()
	c.Undo()
	if _, err := c.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	expect(t, c, "v1")
}

func TestPersistableDropsEmptyBodies(t *testing.T) {
	c := open(t, "A >b")
	c.Add(2, "", nil)
	c.ChangeText(0, "")
	want := []model.ListItem{{ID: "b", Body: "b", Order: 0}}
	if diff := cmp.Diff(want, c.Persistable()); diff != "" {
		t.Fatalf("Persistable (-want +got):\n%s", diff)
	}
}

func TestDiffWindowStopsBeforeChildren(t *testing.T) {
	// x removed: c now resolves to A, so c has to be part of the window.
	before := []history.ItemState{{ID: "A", Index: 0}, {ID: "x", Index: 1}, {ID: "c", IsChild: true, Index: 2}}
	after := []history.ItemState{{ID: "A", Index: 0}, {ID: "c", IsChild: true, Index: 1}}
	b, a := diff(before, after)
	if len(b) != 2 || len(a) != 1 {
		t.Fatalf("window sizes = %d/%d, want 2/1", len(b), len(a))
	}

	c := open(t, "A x >c")
	c.list.Remove(1)
	c.log.Push(history.Change{Kind: history.KindDelete, Before: b, After: a})
	c.list.Get(1).IsChild = true
	if _, err := c.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	expect(t, c, "A x >c")
	if _, err := c.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	expect(t, c, "A >c")
}

func boolPtr(b bool) *bool { return &b }
