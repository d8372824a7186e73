// Package checklist maintains the ordered items of a checklist note.
//
// Items live in one flat sequence. An item with IsChild set belongs to the nearest
// preceding item that is not a child; such an item and the contiguous children after
// it form a parent and its child run. After every operation the first item is not a
// child and ids are unique.
//
// A List has a single owner and is not safe for concurrent use.
package checklist

import (
	"slices"

	"checklist-cli/internal/model"
)

type List struct {
	items       []*model.ListItem
	initialized bool
}

// New returns an empty list that is ready for mutation.
func New() *List {
	return &List{initialized: true}
}

// FromItems wraps a batch loaded from storage. InitializeChildren must be called
// exactly once before the list is mutated.
func FromItems(items []*model.ListItem) *List {
	return &List{items: slices.Clone(items)}
}

func (l *List) Size() int { return len(l.items) }

func (l *List) Get(index int) *model.ListItem {
	l.checkIndex("get", index)
	return l.items[index]
}

// FindByID returns the position of the item with the given id. ok is false when no
// such item exists, e.g. because it has already been removed.
func (l *List) FindByID(id string) (index int, item *model.ListItem, ok bool) {
	for i, it := range l.items {
		if it.ID == id {
			return i, it, true
		}
	}
	return -1, nil, false
}

// Items returns a snapshot of the sequence. The items themselves are shared.
func (l *List) Items() []*model.ListItem {
	return slices.Clone(l.items)
}

// ParentIndex returns the index of the parent of the item at index, or -1 when the
// item is not a child.
func (l *List) ParentIndex(index int) int {
	l.checkIndex("parent", index)
	if !l.items[index].IsChild {
		return -1
	}
	return l.lastNonChild(index - 1)
}

// Children returns the child run of the item at index. It is empty for children and
// for items without a run.
func (l *List) Children(index int) []*model.ListItem {
	l.checkIndex("children", index)
	if l.items[index].IsChild {
		return nil
	}
	end := index + 1 + l.runLen(index)
	return slices.Clone(l.items[index+1 : end])
}

// InitializeChildren establishes the child runs of a freshly loaded batch. Scratch
// children carried by loaded items are spliced in after them, and every child is
// checked against the item it resolves to as parent.
func (l *List) InitializeChildren() {
	if l.initialized {
		panic(invariantf("initialize", -1, "children already initialized"))
	}
	flat, err := flatten(l.items)
	if err != nil {
		err.Op = "initialize"
		panic(err)
	}

	for _, it := range l.items {
		adoptRun(it, scratchRun(it), true)
	}
	l.items = flat
	l.initialized = true
	l.renumber()
}

// CheckBatch reports the first reason a loaded batch cannot be handed to
// InitializeChildren, or nil.
func CheckBatch(items []*model.ListItem) error {
	if _, err := flatten(items); err != nil {
		err.Op = "load"
		return err
	}
	return nil
}

func flatten(items []*model.ListItem) ([]*model.ListItem, *InvariantError) {
	flat := make([]*model.ListItem, 0, len(items))
	for i, it := range items {
		if it == nil {
			return nil, invariantf("", i, "nil item")
		}
		flat = append(flat, it)
		flat = append(flat, scratchRun(it)...)
	}
	if err := checkUnique(flat, nil); err != nil {
		return nil, err
	}
	for i, it := range flat {
		if it.IsChild && lastNonChild(flat, i-1) < 0 {
			return nil, invariantf("", i, "child %q has no parent", it.ID)
		}
	}
	return flat, nil
}

// Insert puts item at atIndex (clamped to [0, Size()]) and returns its final index.
//
// When forceChild is set the item's child flag is forced first; an item turned into a
// child that way releases its scratch children as top-level items. A child needs a
// non-child item before atIndex. Scratch children are spliced right after the item.
func (l *List) Insert(item *model.ListItem, atIndex int, forceChild *bool) int {
	l.mustBeInitialized("insert")
	if item == nil {
		panic(invariantf("insert", atIndex, "nil item"))
	}
	atIndex = max(0, min(atIndex, len(l.items)))

	isChild := item.IsChild
	release := false
	if forceChild != nil && *forceChild != isChild {
		release = !isChild
		isChild = *forceChild
	}
	run := scratchRun(item)
	block := append([]*model.ListItem{item}, run...)
	if err := checkUnique(block, l.items); err != nil {
		err.Op, err.Index = "insert", atIndex
		panic(err)
	}
	if isChild && l.lastNonChild(atIndex-1) < 0 {
		panic(invariantf("insert", atIndex, "child %q has no parent", item.ID))
	}

	item.IsChild = isChild
	adoptRun(item, run, !release)
	l.items = slices.Insert(l.items, atIndex, block...)
	l.renumber()
	return atIndex
}

// Remove takes the item at index out of the sequence. Removing a child is a pure
// excision. Removing a parent releases its run: the children stay in place as
// top-level items and are not handed to another parent.
func (l *List) Remove(index int) *model.ListItem {
	l.mustBeInitialized("remove")
	l.checkIndex("remove", index)
	item := l.items[index]
	if !item.IsChild {
		l.releaseRun(index)
	}
	l.items = slices.Delete(l.items, index, index+1)
	l.renumber()
	return item
}

// UpdateMembership replaces the item at index with newItem after a content or child
// flag change.
//
// A child that stays a child keeps the run it sits in. A child that becomes a
// non-child is promoted: the siblings after it become its own run while earlier
// siblings stay with the old parent. A non-child that becomes a child is demoted: its
// run is cleared first, leaving those items as top-level items. newItem's scratch
// children are spliced in right after it.
func (l *List) UpdateMembership(index int, newItem *model.ListItem) {
	l.mustBeInitialized("update")
	l.checkIndex("update", index)
	if newItem == nil {
		panic(invariantf("update", index, "nil item"))
	}
	old := l.items[index]
	run := scratchRun(newItem)
	others := slices.Concat(l.items[:index], l.items[index+1:])
	if err := checkUnique(append([]*model.ListItem{newItem}, run...), others); err != nil {
		err.Op, err.Index = "update", index
		panic(err)
	}
	if newItem.IsChild && l.lastNonChild(index-1) < 0 {
		panic(invariantf("update", index, "child %q has no parent", newItem.ID))
	}

	if !old.IsChild && newItem.IsChild {
		l.releaseRun(index)
	}
	l.items[index] = newItem
	l.spliceRun(index, run)
	l.renumber()
}

// ForceItemIsChild sets the child flag of an item already in the list, typically
// after it was dragged to a new position.
//
// With resetBefore, an item that was a child is first unlinked from its old parent so
// the old link cannot leak into the new run. Promotion and demotion follow the rules
// of UpdateMembership. An item that ends up a child joins the run implied by its
// current index.
func (l *List) ForceItemIsChild(item *model.ListItem, newValue, resetBefore bool) {
	l.mustBeInitialized("force")
	index := l.indexOf(item)
	if index < 0 {
		panic(invariantf("force", -1, "item %q is not in the list", itemID(item)))
	}
	if newValue && l.lastNonChild(index-1) < 0 {
		panic(invariantf("force", index, "child %q has no parent", item.ID))
	}
	run := scratchRun(item)
	if err := checkUnique(run, l.items); err != nil {
		err.Op, err.Index = "force", index
		panic(err)
	}

	ownsRun := !item.IsChild
	if resetBefore && item.IsChild {
		item.IsChild = false
	}
	if item.IsChild != newValue {
		if newValue && ownsRun {
			l.releaseRun(index)
		}
		item.IsChild = newValue
	}
	l.spliceRun(index, run)
	l.renumber()
}

// Move relocates the item at from so that it lands at index to of the sequence
// without it, then forces its child flag to asChild. A non-child that stays a
// non-child moves together with its run; one that becomes a child leaves its run
// behind as top-level items. It returns the item's final index.
func (l *List) Move(from, to int, asChild bool) int {
	l.mustBeInitialized("move")
	l.checkIndex("move", from)
	item := l.items[from]

	size, to, ok := l.movePlan(from, to, asChild)
	if !ok {
		panic(invariantf("move", to, "child %q has no parent", item.ID))
	}
	if asChild && !item.IsChild {
		// Demoted in place first so the run stays where it was.
		l.releaseRun(from)
		item.IsChild = true
	}

	block := slices.Clone(l.items[from : from+size])
	l.items = slices.Delete(l.items, from, from+size)
	l.items = slices.Insert(l.items, to, block...)
	l.ForceItemIsChild(item, asChild, true)
	return to
}

// CanMove reports whether Move(from, to, asChild) would keep the list valid.
func (l *List) CanMove(from, to int, asChild bool) bool {
	if !l.initialized || from < 0 || from >= len(l.items) {
		return false
	}
	_, _, ok := l.movePlan(from, to, asChild)
	return ok
}

// movePlan returns the size of the moving block and the clamped target index. ok is
// false when the item would land as a child with no parent before it.
func (l *List) movePlan(from, to int, asChild bool) (size, target int, ok bool) {
	item := l.items[from]
	run := 0
	if !item.IsChild {
		run = l.runLen(from)
	}
	size = 1
	if !asChild {
		size += run
	}
	target = max(0, min(to, len(l.items)-size))
	if !asChild {
		return size, target, true
	}
	rest := slices.Concat(l.items[:from], l.items[from+size:])
	if lastNonChild(rest, target-1) >= 0 {
		return size, target, true
	}
	// A released run starts at from in rest and supplies the parent.
	return size, target, run > 0 && target-1 >= from
}

// Validate reports the first broken sequence invariant, or nil.
func (l *List) Validate() error {
	seen := make(map[string]bool, len(l.items))
	for i, it := range l.items {
		if it == nil {
			return invariantf("validate", i, "nil item")
		}
		if seen[it.ID] {
			return invariantf("validate", i, "duplicate id %q", it.ID)
		}
		seen[it.ID] = true
		if i == 0 && it.IsChild {
			return invariantf("validate", i, "first item %q is a child", it.ID)
		}
		if it.Order != i {
			return invariantf("validate", i, "item %q has order %d", it.ID, it.Order)
		}
		if len(it.Children) > 0 {
			return invariantf("validate", i, "item %q holds scratch children", it.ID)
		}
	}
	return nil
}

func (l *List) mustBeInitialized(op string) {
	if !l.initialized {
		panic(invariantf(op, -1, "children not initialized"))
	}
}

func (l *List) checkIndex(op string, index int) {
	if index < 0 || index >= len(l.items) {
		panic(invariantf(op, index, "index out of range [0,%d)", len(l.items)))
	}
}

func (l *List) indexOf(item *model.ListItem) int {
	if item == nil {
		return -1
	}
	for i, it := range l.items {
		if it == item {
			return i
		}
	}
	return -1
}

func (l *List) lastNonChild(index int) int {
	return lastNonChild(l.items, index)
}

// runLen counts the children directly after index.
func (l *List) runLen(index int) int {
	n := 0
	for j := index + 1; j < len(l.items) && l.items[j].IsChild; j++ {
		n++
	}
	return n
}

func (l *List) releaseRun(index int) {
	for j := index + 1; j < len(l.items) && l.items[j].IsChild; j++ {
		l.items[j].IsChild = false
	}
}

// spliceRun inserts run, the scratch children of the item at index, right after it.
func (l *List) spliceRun(index int, run []*model.ListItem) {
	if len(run) == 0 {
		l.items[index].Children = nil
		return
	}
	adoptRun(l.items[index], run, true)
	l.items = slices.Insert(l.items, index+1, run...)
}

func (l *List) renumber() {
	for i, it := range l.items {
		it.Order = i
	}
}

// lastNonChild scans backward from index for the nearest non-child item.
func lastNonChild(items []*model.ListItem, index int) int {
	for i := min(index, len(items)-1); i >= 0; i-- {
		if !items[i].IsChild {
			return i
		}
	}
	return -1
}

// scratchRun returns the scratch children of it, flattened depth first.
func scratchRun(it *model.ListItem) []*model.ListItem {
	var out []*model.ListItem
	for _, c := range it.Children {
		if c == nil {
			continue
		}
		out = append(out, c)
		out = append(out, scratchRun(c)...)
	}
	return out
}

// adoptRun clears the scratch buffers of it and run and sets the run's child flag.
func adoptRun(it *model.ListItem, run []*model.ListItem, asChildren bool) {
	it.Children = nil
	for _, c := range run {
		c.IsChild = asChildren
		c.Children = nil
	}
}

// checkUnique reports a duplicate id within block or between block and existing.
func checkUnique(block, existing []*model.ListItem) *InvariantError {
	seen := make(map[string]bool, len(block)+len(existing))
	for _, it := range existing {
		seen[it.ID] = true
	}
	for _, it := range block {
		if it == nil {
			return invariantf("", -1, "nil item")
		}
		if seen[it.ID] {
			return invariantf("", -1, "duplicate id %q", it.ID)
		}
		seen[it.ID] = true
	}
	return nil
}

func itemID(it *model.ListItem) string {
	if it == nil {
		return ""
	}
	return it.ID
}
