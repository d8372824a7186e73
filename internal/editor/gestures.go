package editor

import (
	"checklist-cli/internal/history"
	"checklist-cli/internal/model"
)

// Result describes the outcome of one gesture. EventPayload is what callers append
// to the note's event log; it is nil when nothing changed.
type Result struct {
	Item         *model.ListItem
	Index        int
	Changed      bool
	EventPayload map[string]any
}

func (c *Controller) result(index int, changed bool, payload map[string]any) Result {
	r := Result{Index: index, Changed: changed}
	if index >= 0 && index < c.list.Size() {
		r.Item = c.list.Get(index).Clone()
	}
	if changed {
		r.EventPayload = payload
	}
	return r
}

// Add inserts a new item with a fresh id at index at (clamped). With asChild nil the
// item becomes a child when it lands inside a run.
func (c *Controller) Add(at int, body string, asChild *bool) (Result, error) {
	at = max(0, min(at, c.list.Size()))
	child := at < c.list.Size() && c.list.Get(at).IsChild
	if asChild != nil {
		child = *asChild
	}
	if child && at == 0 {
		return Result{}, ErrCannotIndent
	}
	return c.insertNew(at, body, child)
}

// AddAfter inserts a new item right after the item with the given id. It joins the
// run that item belongs to or owns.
func (c *Controller) AddAfter(id, body string) (Result, error) {
	i, it, ok := c.list.FindByID(id)
	if !ok {
		return Result{}, NotFoundError{Kind: "item", ID: id}
	}
	child := it.IsChild || len(c.list.Children(i)) > 0
	return c.insertNew(i+1, body, child)
}

func (c *Controller) insertNew(at int, body string, child bool) (Result, error) {
	id, err := c.newID()
	if err != nil {
		return Result{}, err
	}
	before := c.snapshot()
	it := &model.ListItem{ID: id, Body: body}
	at = c.list.Insert(it, at, &child)
	c.record(history.KindAdd, []string{id}, before)
	c.logger.Debug("add item", "item", id, "index", at, "child", child)
	return c.result(at, true, map[string]any{"body": body, "index": at, "isChild": child}), nil
}

// Delete removes the item at index. A parent is removed together with its run.
func (c *Controller) Delete(index int) (Result, error) {
	if err := c.checkIndex(index); err != nil {
		return Result{}, err
	}
	before := c.snapshot()
	it := c.list.Get(index)
	ids := []string{it.ID}
	for _, ch := range c.list.Children(index) {
		ids = append(ids, ch.ID)
	}
	for k := len(ids) - 1; k >= 0; k-- {
		c.list.Remove(index + k)
	}
	c.record(history.KindDelete, ids, before)
	c.logger.Debug("delete item", "item", it.ID, "removed", len(ids))
	return Result{Item: it.Clone(), Index: index, Changed: true, EventPayload: map[string]any{"removed": ids}}, nil
}

func (c *Controller) ChangeText(index int, body string) (Result, error) {
	if err := c.checkIndex(index); err != nil {
		return Result{}, err
	}
	cur := c.list.Get(index)
	if cur.Body == body {
		return c.result(index, false, nil), nil
	}
	before := c.snapshot()
	next := cur.Clone()
	prev := next.Body
	next.Body = body
	c.list.UpdateMembership(index, next)
	c.record(history.KindSetBody, []string{next.ID}, before)
	c.logger.Debug("change text", "item", next.ID)
	return c.result(index, true, map[string]any{"from": prev, "to": body}), nil
}

// SetChecked sets the checked state of the item at index. A parent passes its state
// to its run. Unchecking a child unchecks its parent, and checking the last unchecked
// child of a run checks the parent.
func (c *Controller) SetChecked(index int, checked bool) (Result, error) {
	if err := c.checkIndex(index); err != nil {
		return Result{}, err
	}
	before := c.snapshot()
	target := c.list.Get(index)
	id := target.ID

	c.setChecked(index, checked)
	if target.IsChild {
		p := c.list.ParentIndex(index)
		run := c.list.Children(p)
		all := true
		for _, ch := range run {
			if !ch.Checked {
				all = false
				break
			}
		}
		switch {
		case !checked:
			c.setChecked(p, false)
		case all:
			c.setChecked(p, true)
		}
	} else {
		for k := range c.list.Children(index) {
			c.setChecked(index+1+k, checked)
		}
	}
	if c.autoSort {
		c.sortByChecked()
	}

	if !c.record(history.KindSetChecked, []string{id}, before) {
		return c.result(index, false, nil), nil
	}
	i, _, _ := c.list.FindByID(id)
	c.logger.Debug("set checked", "item", id, "checked", checked, "autoSort", c.autoSort)
	return c.result(i, true, map[string]any{"checked": checked}), nil
}

func (c *Controller) setChecked(index int, checked bool) {
	it := c.list.Get(index)
	if it.Checked == checked {
		return
	}
	next := it.Clone()
	next.Checked = checked
	c.list.UpdateMembership(index, next)
}

// Indent turns the item at index into a child of the nearest item above it. A parent
// that is indented leaves its run behind as top-level items.
func (c *Controller) Indent(index int) (Result, error) {
	if err := c.checkIndex(index); err != nil {
		return Result{}, err
	}
	if index == 0 {
		return Result{}, ErrCannotIndent
	}
	return c.setChild(index, true, history.KindIndent)
}

// Outdent turns the child at index into a top-level item that owns the siblings
// after it.
func (c *Controller) Outdent(index int) (Result, error) {
	if err := c.checkIndex(index); err != nil {
		return Result{}, err
	}
	return c.setChild(index, false, history.KindOutdent)
}

func (c *Controller) setChild(index int, child bool, kind history.Kind) (Result, error) {
	cur := c.list.Get(index)
	if cur.IsChild == child {
		return c.result(index, false, nil), nil
	}
	before := c.snapshot()
	next := cur.Clone()
	next.IsChild = child
	c.list.UpdateMembership(index, next)
	c.record(kind, []string{next.ID}, before)
	c.logger.Debug(string(kind), "item", next.ID, "index", index)
	return c.result(index, true, map[string]any{"isChild": child}), nil
}

// Move drags the item at from to index to, as a child or a top-level item. A
// top-level item keeps its run when it stays top-level.
func (c *Controller) Move(from, to int, asChild bool) (Result, error) {
	if err := c.checkIndex(from); err != nil {
		return Result{}, err
	}
	if !c.list.CanMove(from, to, asChild) {
		return Result{}, ErrInvalidMove
	}
	before := c.snapshot()
	id := c.list.Get(from).ID
	at := c.list.Move(from, to, asChild)
	changed := c.record(history.KindMove, []string{id}, before)
	c.logger.Debug("move item", "item", id, "from", from, "to", at, "child", asChild)
	return c.result(at, changed, map[string]any{"from": from, "to": at, "isChild": asChild}), nil
}

// SortByChecked moves checked items below unchecked ones, keeping runs together.
func (c *Controller) SortByChecked() (Result, error) {
	before := c.snapshot()
	c.sortByChecked()
	changed := c.record(history.KindSort, nil, before)
	c.logger.Debug("sort by checked", "changed", changed)
	return Result{Index: -1, Changed: changed, EventPayload: payloadIf(changed, map[string]any{"sorted": true})}, nil
}

func (c *Controller) sortByChecked() {
	cur := c.snapshot()
	if err := c.apply(cur, sortedByChecked(cur)); err != nil {
		// cur was just taken from the list.
		panic(err)
	}
}

func (c *Controller) Undo() (Result, error) {
	ch, ok := c.log.Undo()
	if !ok {
		return Result{}, ErrNothingToUndo
	}
	if err := c.apply(ch.After, ch.Before); err != nil {
		c.log.Redo()
		return Result{}, err
	}
	c.logger.Debug("undo", "kind", ch.Kind, "items", ch.ItemIDs)
	return Result{Index: -1, Changed: true, EventPayload: map[string]any{"kind": string(ch.Kind), "itemIds": ch.ItemIDs}}, nil
}

func (c *Controller) Redo() (Result, error) {
	ch, ok := c.log.Redo()
	if !ok {
		return Result{}, ErrNothingToRedo
	}
	if err := c.apply(ch.Before, ch.After); err != nil {
		c.log.Undo()
		return Result{}, err
	}
	c.logger.Debug("redo", "kind", ch.Kind, "items", ch.ItemIDs)
	return Result{Index: -1, Changed: true, EventPayload: map[string]any{"kind": string(ch.Kind), "itemIds": ch.ItemIDs}}, nil
}

func payloadIf(ok bool, p map[string]any) map[string]any {
	if !ok {
		return nil
	}
	return p
}
