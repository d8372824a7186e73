package cli

import (
	"errors"
	"fmt"
)

var errNoNote = errors.New("no note given and no current note; pass a note id or run `checklist notes use <note-id>`")

type usageError struct {
	msg string
}

func (e usageError) Error() string {
	return e.msg
}

func errUsage(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}
