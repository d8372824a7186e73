package checklist

import "fmt"

// InvariantError is the panic value raised when a caller breaks a List precondition,
// e.g. inserting a child with no non-child item before it. The list is left unchanged
// when it is raised.
type InvariantError struct {
	Op     string
	Index  int
	Reason string
}

func (e *InvariantError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("checklist: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("checklist: %s at %d: %s", e.Op, e.Index, e.Reason)
}

func invariantf(op string, index int, format string, args ...any) *InvariantError {
	return &InvariantError{Op: op, Index: index, Reason: fmt.Sprintf(format, args...)}
}
