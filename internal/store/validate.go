package store

import (
	"errors"
	"fmt"
	"strings"

	"checklist-cli/internal/checklist"
	"checklist-cli/internal/model"
)

// ValidationError reports a stored note whose items cannot form a valid list, or
// whose id or folder is malformed.
type ValidationError struct {
	NoteID string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("note %s: invalid items: %v", e.NoteID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidateNote checks the parts of a note that must hold before it is handed to the
// list engine.
func ValidateNote(n *model.Note) error {
	if n == nil {
		return errors.New("nil note")
	}
	if !IsNoteID(n.ID) {
		return &ValidationError{NoteID: n.ID, Err: errors.New("bad note id")}
	}
	if err := checkFolder(n.Folder); err != nil {
		return &ValidationError{NoteID: n.ID, Err: err}
	}
	items := make([]*model.ListItem, 0, len(n.Items))
	for i := range n.Items {
		if strings.TrimSpace(n.Items[i].ID) == "" {
			return &ValidationError{NoteID: n.ID, Err: fmt.Errorf("item %d has no id", i)}
		}
		items = append(items, &n.Items[i])
	}
	if err := checklist.CheckBatch(items); err != nil {
		return &ValidationError{NoteID: n.ID, Err: err}
	}
	return nil
}
