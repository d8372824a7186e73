package editor

import (
	"checklist-cli/internal/history"
	"checklist-cli/internal/model"
)

func (c *Controller) snapshot() []history.ItemState {
	items := c.list.Items()
	out := make([]history.ItemState, len(items))
	for i, it := range items {
		out[i] = history.ItemState{ID: it.ID, Body: it.Body, Checked: it.Checked, IsChild: it.IsChild, Index: i}
	}
	return out
}

func sameState(a, b history.ItemState) bool {
	return a.ID == b.ID && a.Body == b.Body && a.Checked == b.Checked && a.IsChild == b.IsChild
}

// diff returns the window of items that differ between two snapshots. Items outside
// the window are identical on both sides, and the item right after the window is
// never a child, so replacing the window cannot change any other item's parent.
func diff(before, after []history.ItemState) (b, a []history.ItemState) {
	lo := 0
	for lo < len(before) && lo < len(after) && sameState(before[lo], after[lo]) {
		lo++
	}
	tail := 0
	for tail < len(before)-lo && tail < len(after)-lo &&
		sameState(before[len(before)-1-tail], after[len(after)-1-tail]) {
		tail++
	}
	for tail > 0 && before[len(before)-tail].IsChild {
		tail--
	}
	return before[lo : len(before)-tail], after[lo : len(after)-tail]
}

// record pushes the difference between before and the current list as one change.
// It reports false when the gesture changed nothing.
func (c *Controller) record(kind history.Kind, ids []string, before []history.ItemState) bool {
	b, a := diff(before, c.snapshot())
	if len(b) == 0 && len(a) == 0 {
		return false
	}
	c.log.Push(history.Change{Kind: kind, ItemIDs: ids, Before: b, After: a})
	return true
}

// apply replaces the items described by from with the items described by to. from
// must match the current list at its recorded indices.
func (c *Controller) apply(from, to []history.ItemState) error {
	for _, s := range from {
		if s.Index < 0 || s.Index >= c.list.Size() {
			return HistoryMismatchError{Index: s.Index, Want: s.ID, Got: "<none>"}
		}
		if got := c.list.Get(s.Index).ID; got != s.ID {
			return HistoryMismatchError{Index: s.Index, Want: s.ID, Got: got}
		}
	}

	if inPlace(from, to) {
		for _, s := range to {
			it := c.list.Get(s.Index).Clone()
			it.Body = s.Body
			it.Checked = s.Checked
			c.list.UpdateMembership(s.Index, it)
		}
		return nil
	}

	for k := len(from) - 1; k >= 0; k-- {
		c.list.Remove(from[k].Index)
	}
	for _, s := range to {
		isChild := s.IsChild
		c.list.Insert(&model.ListItem{ID: s.ID, Body: s.Body, Checked: s.Checked}, s.Index, &isChild)
	}
	return nil
}

func inPlace(from, to []history.ItemState) bool {
	return history.Change{Before: from, After: to}.InPlace()
}
