// Package history keeps a bounded undo/redo log of checklist changes.
//
// A Change is plain data: the states of every affected item before and after a
// gesture. The set of affected items always includes whole child runs, so a change
// can be replayed in either direction by removing one side's items and inserting the
// other side's at their recorded indices.
package history

import (
	"errors"

	"github.com/goccy/go-json"
)

// DefaultLimit is the number of changes kept when no limit is configured.
const DefaultLimit = 1000

type Kind string

const (
	KindAdd        Kind = "item.add"
	KindDelete     Kind = "item.delete"
	KindSetBody    Kind = "item.set_body"
	KindSetChecked Kind = "item.set_checked"
	KindIndent     Kind = "item.indent"
	KindOutdent    Kind = "item.outdent"
	KindMove       Kind = "item.move"
	KindSort       Kind = "list.sort_checked"
)

// ItemState is a snapshot of one item at a known position.
type ItemState struct {
	ID      string `json:"id"`
	Body    string `json:"body"`
	Checked bool   `json:"checked"`
	IsChild bool   `json:"isChild"`
	Index   int    `json:"index"`
}

type Change struct {
	Kind    Kind        `json:"kind"`
	ItemIDs []string    `json:"itemIds,omitempty"`
	Before  []ItemState `json:"before"`
	After   []ItemState `json:"after"`
}

// InPlace reports whether the change only touched item content: the same items
// occupy the same positions with the same child flags on both sides.
func (c Change) InPlace() bool {
	if len(c.Before) != len(c.After) {
		return false
	}
	for i := range c.Before {
		b, a := c.Before[i], c.After[i]
		if b.ID != a.ID || b.Index != a.Index || b.IsChild != a.IsChild {
			return false
		}
	}
	return true
}

// Log is an undo/redo stack. Changes before the cursor are applied; changes at or
// after it have been undone and can be redone until a new change is pushed.
type Log struct {
	limit   int
	changes []Change
	cursor  int
}

func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{limit: limit}
}

func (l *Log) Limit() int { return l.limit }

// Len returns the number of changes currently held, including undone ones.
func (l *Log) Len() int { return len(l.changes) }

func (l *Log) CanUndo() bool { return l.cursor > 0 }

func (l *Log) CanRedo() bool { return l.cursor < len(l.changes) }

// Push records c as the newest applied change. Undone changes are discarded and the
// oldest change is dropped once the limit is exceeded.
func (l *Log) Push(c Change) {
	l.changes = append(l.changes[:l.cursor], c)
	if over := len(l.changes) - l.limit; over > 0 {
		l.changes = append([]Change{}, l.changes[over:]...)
	}
	l.cursor = len(l.changes)
}

// Undo moves the cursor back and returns the change to revert.
func (l *Log) Undo() (Change, bool) {
	if !l.CanUndo() {
		return Change{}, false
	}
	l.cursor--
	return l.changes[l.cursor], true
}

// Redo moves the cursor forward and returns the change to re-apply.
func (l *Log) Redo() (Change, bool) {
	if !l.CanRedo() {
		return Change{}, false
	}
	c := l.changes[l.cursor]
	l.cursor++
	return c, true
}

// SetLimit changes the capacity, dropping the oldest changes if needed.
func (l *Log) SetLimit(limit int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	l.limit = limit
	if over := len(l.changes) - limit; over > 0 {
		l.changes = append([]Change{}, l.changes[over:]...)
		l.cursor -= over
		if l.cursor < 0 {
			l.cursor = 0
		}
	}
}

type wireLog struct {
	Limit   int      `json:"limit"`
	Cursor  int      `json:"cursor"`
	Changes []Change `json:"changes"`
}

func (l *Log) MarshalJSON() ([]byte, error) {
	changes := l.changes
	if changes == nil {
		changes = []Change{}
	}
	return json.Marshal(wireLog{Limit: l.limit, Cursor: l.cursor, Changes: changes})
}

func (l *Log) UnmarshalJSON(b []byte) error {
	var w wireLog
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Cursor < 0 || w.Cursor > len(w.Changes) {
		return errors.New("history: cursor out of range")
	}
	l.limit = w.Limit
	if l.limit <= 0 {
		l.limit = DefaultLimit
	}
	l.changes = w.Changes
	l.cursor = w.Cursor
	if over := len(l.changes) - l.limit; over > 0 {
		l.changes = l.changes[over:]
		l.cursor -= over
		if l.cursor < 0 {
			l.cursor = 0
		}
	}
	return nil
}
