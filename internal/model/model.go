package model

import (
	"time"

	"checklist-cli/internal/history"
)

// ListItem is one row of a checklist note.
//
// Parent/child membership is positional: a child belongs to the nearest preceding
// item whose IsChild is false. Children is never persisted; it only carries a run of
// items while they are being transferred to a new owner.
type ListItem struct {
	ID      string `json:"id"`
	Body    string `json:"body"`
	Checked bool   `json:"checked"`
	IsChild bool   `json:"isChild"`
	Order   int    `json:"order"`

	Children []*ListItem `json:"-"`
}

// Clone returns a copy of it without its scratch children.
func (it *ListItem) Clone() *ListItem {
	if it == nil {
		return nil
	}
	cp := *it
	cp.Children = nil
	return &cp
}

// Folders a note can live in. Deleting a note removes it for good, so there is
// no trash folder.
const (
	FolderNotes    = "notes"
	FolderArchived = "archived"
)

type Note struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Pinned    bool         `json:"pinned"`
	Folder    string       `json:"folder"`
	Items     []ListItem   `json:"items"`
	History   *history.Log `json:"history,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NoteSummary is the listing view of a note.
type NoteSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Pinned    bool      `json:"pinned"`
	Folder    string    `json:"folder"`
	Items     int       `json:"items"`
	Checked   int       `json:"checked"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (n *Note) Summary() NoteSummary {
	s := NoteSummary{
		ID:        n.ID,
		Title:     n.Title,
		Pinned:    n.Pinned,
		Folder:    n.Folder,
		Items:     len(n.Items),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	for _, it := range n.Items {
		if it.Checked {
			s.Checked++
		}
	}
	return s
}

type Event struct {
	ID      string    `json:"id"`
	NoteID  string    `json:"noteId"`
	Seq     int64     `json:"seq"`
	TS      time.Time `json:"ts"`
	Type    string    `json:"type"`
	ItemID  string    `json:"itemId,omitempty"`
	Payload any       `json:"payload,omitempty"`
}
