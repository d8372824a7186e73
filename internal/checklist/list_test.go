package checklist

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"checklist-cli/internal/model"
)

func item(id string, child bool) *model.ListItem {
	return &model.ListItem{ID: id, Body: id, IsChild: child}
}

func boolPtr(b bool) *bool { return &b }

// build inserts items in order into a fresh list.
func build(t *testing.T, items ...*model.ListItem) *List {
	t.Helper()
	l := New()
	for _, it := range items {
		l.Insert(it, l.Size(), nil)
	}
	return l
}

// layout renders the list as ids, children prefixed with ">".
func layout(l *List) string {
	var parts []string
	for _, it := range l.Items() {
		if it.IsChild {
			parts = append(parts, ">"+it.ID)
		} else {
			parts = append(parts, it.ID)
		}
	}
	return strings.Join(parts, " ")
}

func mustPanic(t *testing.T, fn func()) *InvariantError {
	t.Helper()
	var got *InvariantError
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatalf("expected panic")
			}
			err, ok := r.(error)
			if !ok || !errors.As(err, &got) {
				t.Fatalf("expected *InvariantError panic, got %#v", r)
			}
		}()
		fn()
	}()
	return got
}

func assertValid(t *testing.T, l *List) {
	t.Helper()
	if err := l.Validate(); err != nil {
		t.Fatalf("invalid list %q: %v", layout(l), err)
	}
}

func TestRemoveChildLeavesSiblingsWithParent(t *testing.T) {
	l := build(t, item("A", false), item("B", true), item("C", true), item("D", false))

	got := l.Remove(1)
	if got.ID != "B" {
		t.Fatalf("removed %q, want B", got.ID)
	}
	if want := "A >C D"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
	if p := l.ParentIndex(1); p != 0 {
		t.Fatalf("parent of C = %d, want 0", p)
	}
	if kids := l.Children(0); len(kids) != 1 || kids[0].ID != "C" {
		t.Fatalf("children of A = %v", kids)
	}
	assertValid(t, l)
}

func TestInsertForcedChildJoinsRun(t *testing.T) {
	l := build(t, item("A", false), item("B", true))

	idx := l.Insert(item("X", false), 2, boolPtr(true))
	if idx != 2 {
		t.Fatalf("index = %d, want 2", idx)
	}
	if want := "A >B >X"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
	kids := l.Children(0)
	if len(kids) != 2 || kids[0].ID != "B" || kids[1].ID != "X" {
		t.Fatalf("children of A = %v", kids)
	}
	assertValid(t, l)
}

func TestInsertClampsIndex(t *testing.T) {
	l := build(t, item("A", false))
	if idx := l.Insert(item("B", false), 99, nil); idx != 1 {
		t.Fatalf("index = %d, want 1", idx)
	}
	if idx := l.Insert(item("C", false), -3, nil); idx != 0 {
		t.Fatalf("index = %d, want 0", idx)
	}
	if want := "C A B"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
}

func TestInsertSplicesScratchChildren(t *testing.T) {
	l := build(t, item("A", false))
	p := item("P", false)
	p.Children = []*model.ListItem{item("c1", false), item("c2", true)}

	l.Insert(p, 1, nil)
	if want := "A P >c1 >c2"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
	if len(p.Children) != 0 {
		t.Fatalf("scratch children not cleared")
	}
	assertValid(t, l)
}

func TestInsertForcedChildReleasesScratch(t *testing.T) {
	l := build(t, item("A", false))
	p := item("P", false)
	p.Children = []*model.ListItem{item("c1", true)}

	l.Insert(p, 1, boolPtr(true))
	if want := "A >P c1"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
}

func TestPromoteInheritsTail(t *testing.T) {
	l := build(t, item("P", false), item("a", true), item("b", true), item("c", true))

	b := l.Get(2).Clone()
	b.IsChild = false
	l.UpdateMembership(2, b)

	if want := "P >a b >c"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
	if kids := l.Children(0); len(kids) != 1 || kids[0].ID != "a" {
		t.Fatalf("children of P = %v", kids)
	}
	if kids := l.Children(2); len(kids) != 1 || kids[0].ID != "c" {
		t.Fatalf("children of b = %v", kids)
	}
	assertValid(t, l)
}

func TestDemoteClearsOwnership(t *testing.T) {
	l := build(t, item("A", false), item("P", false), item("x", true), item("y", true))

	p := l.Get(1).Clone()
	p.IsChild = true
	l.UpdateMembership(1, p)

	if want := "A >P x y"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
	if kids := l.Children(0); len(kids) != 1 || kids[0].ID != "P" {
		t.Fatalf("children of A = %v", kids)
	}
	assertValid(t, l)
}

func TestRemoveParentReleasesRun(t *testing.T) {
	l := build(t, item("P", false), item("a", true), item("b", true))
	l.Remove(0)
	if want := "a b"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
	assertValid(t, l)
}

func TestUpdateMembershipContentOnly(t *testing.T) {
	l := build(t, item("P", false), item("a", true))
	a := l.Get(1).Clone()
	a.Body = "renamed"
	a.Checked = true
	l.UpdateMembership(1, a)

	if got := l.Get(1); got != a || got.Order != 1 {
		t.Fatalf("slot not replaced: %+v", got)
	}
	if want := "P >a"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
}

func TestForceItemIsChildResetBefore(t *testing.T) {
	l := build(t, item("A", false), item("b", true), item("C", false), item("d", true))

	// b dragged to the end of C's run.
	b := l.Get(1)
	l.items = []*model.ListItem{l.items[0], l.items[2], l.items[3], b}
	l.ForceItemIsChild(b, true, true)
	if want := "A C >d >b"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
	if p := l.ParentIndex(3); p != 1 {
		t.Fatalf("parent of b = %d, want 1", p)
	}

	// Promoting d makes it own b.
	l.ForceItemIsChild(l.Get(2), false, true)
	if want := "A C d >b"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
	assertValid(t, l)
}

func TestForceItemIsChildDemotesParent(t *testing.T) {
	l := build(t, item("A", false), item("P", false), item("x", true))
	l.ForceItemIsChild(l.Get(1), true, false)
	if want := "A >P x"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
}

func TestMove(t *testing.T) {
	cases := []struct {
		name    string
		from    int
		to      int
		asChild bool
		want    string
		wantIdx int
	}{
		{name: "parent with run to end", from: 0, to: 9, want: "D >e P >a >b", wantIdx: 2},
		{name: "child into other run", from: 1, to: 3, asChild: true, want: "P >b D >a >e", wantIdx: 3},
		{name: "child promoted at end", from: 2, to: 4, want: "P >a D >e b", wantIdx: 4},
		{name: "child promoted in place", from: 2, to: 2, want: "P >a b D >e", wantIdx: 2},
		{name: "parent demoted into run", from: 3, to: 3, asChild: true, want: "P >a >b >D e", wantIdx: 3},
		{name: "parent demoted leaves run", from: 3, to: 1, asChild: true, want: "P >D >a >b e", wantIdx: 1},
		{name: "first parent demoted under released run", from: 0, to: 1, asChild: true, want: "a >P b D >e", wantIdx: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := build(t, item("P", false), item("a", true), item("b", true), item("D", false), item("e", true))
			idx := l.Move(tc.from, tc.to, tc.asChild)
			if idx != tc.wantIdx {
				t.Fatalf("index = %d, want %d", idx, tc.wantIdx)
			}
			if got := layout(l); got != tc.want {
				t.Fatalf("layout = %q, want %q", got, tc.want)
			}
			assertValid(t, l)
		})
	}
}

func TestMoveChildToTopPanics(t *testing.T) {
	l := build(t, item("P", false), item("a", true))
	if l.CanMove(1, 0, true) {
		t.Fatalf("CanMove(1, 0, true) = true")
	}
	mustPanic(t, func() { l.Move(1, 0, true) })
	if want := "P >a"; layout(l) != want {
		t.Fatalf("list changed after panic: %q", layout(l))
	}
}

func TestInitializeChildren(t *testing.T) {
	a := item("A", false)
	a.Children = []*model.ListItem{item("a1", false)}
	loaded := []*model.ListItem{a, item("a2", true), item("B", false)}
	l := FromItems(loaded)

	mustPanic(t, func() { l.Insert(item("x", false), 0, nil) })

	l.InitializeChildren()
	if want := "A >a1 >a2 B"; layout(l) != want {
		t.Fatalf("layout = %q, want %q", layout(l), want)
	}
	assertValid(t, l)

	mustPanic(t, func() { l.InitializeChildren() })
}

func TestInitializeChildrenMatchesIncrementalInserts(t *testing.T) {
	shape := []bool{false, true, true, false, false, true}
	var loaded, inserted []*model.ListItem
	for i, child := range shape {
		id := string(rune('a' + i))
		loaded = append(loaded, item(id, child))
		inserted = append(inserted, item(id, child))
	}
	l1 := FromItems(loaded)
	l1.InitializeChildren()
	l2 := build(t, inserted...)

	if diff := cmp.Diff(snapshot(l2), snapshot(l1)); diff != "" {
		t.Fatalf("initialized list differs (-inserted +loaded):\n%s", diff)
	}
	for i := range shape {
		if l1.ParentIndex(i) != l2.ParentIndex(i) {
			t.Fatalf("parent of %d differs", i)
		}
	}
}

func TestInitializeChildrenRejectsOrphan(t *testing.T) {
	l := FromItems([]*model.ListItem{item("a", true), item("B", false)})
	err := mustPanic(t, func() { l.InitializeChildren() })
	if err.Op != "initialize" || err.Index != 0 {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPreconditionPanicsLeaveListUnchanged(t *testing.T) {
	cases := []struct {
		name string
		fn   func(l *List)
	}{
		{name: "child at top", fn: func(l *List) { l.Insert(item("x", true), 0, nil) }},
		{name: "forced child at top", fn: func(l *List) { l.Insert(item("x", false), 0, boolPtr(true)) }},
		{name: "duplicate id", fn: func(l *List) { l.Insert(item("a", false), 1, nil) }},
		{name: "duplicate scratch id", fn: func(l *List) {
			x := item("x", false)
			x.Children = []*model.ListItem{item("P", false)}
			l.Insert(x, 3, nil)
		}},
		{name: "nil item", fn: func(l *List) { l.Insert(nil, 0, nil) }},
		{name: "get out of range", fn: func(l *List) { l.Get(3) }},
		{name: "remove out of range", fn: func(l *List) { l.Remove(-1) }},
		{name: "update demotes first", fn: func(l *List) {
			p := l.Get(0).Clone()
			p.IsChild = true
			l.UpdateMembership(0, p)
		}},
		{name: "update duplicate", fn: func(l *List) {
			p := l.Get(0).Clone()
			p.ID = "Q"
			l.UpdateMembership(0, p)
		}},
		{name: "force unknown item", fn: func(l *List) { l.ForceItemIsChild(item("zz", false), true, false) }},
		{name: "force first to child", fn: func(l *List) { l.ForceItemIsChild(l.Get(0), true, true) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := build(t, item("P", false), item("a", true), item("Q", false))
			before := snapshot(l)
			mustPanic(t, func() { tc.fn(l) })
			if diff := cmp.Diff(before, snapshot(l)); diff != "" {
				t.Fatalf("list changed after panic (-before +after):\n%s", diff)
			}
		})
	}
}

func TestFindByIDAfterRemove(t *testing.T) {
	l := build(t, item("P", false), item("a", true))
	if i, it, ok := l.FindByID("a"); !ok || i != 1 || it.ID != "a" {
		t.Fatalf("FindByID(a) = %d %v %v", i, it, ok)
	}
	l.Remove(1)
	if _, _, ok := l.FindByID("a"); ok {
		t.Fatalf("expected a to be absent")
	}
}

func TestInvariantErrorMessage(t *testing.T) {
	err := invariantf("insert", 2, "child %q has no parent", "x")
	if got, want := err.Error(), `checklist: insert at 2: child "x" has no parent`; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	err = invariantf("initialize", -1, "children already initialized")
	if got, want := err.Error(), "checklist: initialize: children already initialized"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

type itemSnap struct {
	ID      string
	Body    string
	Checked bool
	IsChild bool
	Order   int
}

func snapshot(l *List) []itemSnap {
	var out []itemSnap
	for _, it := range l.items {
		out = append(out, itemSnap{ID: it.ID, Body: it.Body, Checked: it.Checked, IsChild: it.IsChild, Order: it.Order})
	}
	return out
}

func TestCheckBatch(t *testing.T) {
	if err := CheckBatch([]*model.ListItem{item("A", false), item("b", true)}); err != nil {
		t.Fatalf("CheckBatch: %v", err)
	}
	err := CheckBatch([]*model.ListItem{item("A", false), item("A", true)})
	var inv *InvariantError
	if !errors.As(err, &inv) || inv.Op != "load" {
		t.Fatalf("expected load invariant error, got %v", err)
	}
}
