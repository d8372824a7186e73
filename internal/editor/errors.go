package editor

import (
	"errors"
	"fmt"
)

var ErrNothingToUndo = errors.New("nothing to undo")
var ErrNothingToRedo = errors.New("nothing to redo")
var ErrCannotIndent = errors.New("item has no parent to indent under")
var ErrInvalidMove = errors.New("item cannot become a child at that position")

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

type IndexError struct {
	Index int
	Size  int
}

func (e IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0,%d)", e.Index, e.Size)
}

// HistoryMismatchError is returned when a recorded change no longer matches the
// list it is replayed against, e.g. after the note was edited outside the history.
type HistoryMismatchError struct {
	Index int
	Want  string
	Got   string
}

func (e HistoryMismatchError) Error() string {
	return fmt.Sprintf("history does not match list at %d: want %s, got %s", e.Index, e.Want, e.Got)
}
