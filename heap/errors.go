package heap

import "fmt"

// ViolationError reports a precondition violation in the collector:
// reentrant collection, unbalanced handle/vector/weak-container
// registration, or an allocation request larger than the largest size
// class. These are fatal by convention (the collector panics with one
// rather than returning an error) because the heap's invariants cannot
// be trusted to hold once violated.
type ViolationError struct {
	Msg string
}

func (e *ViolationError) Error() string { return e.Msg }

func violatef(format string, args ...any) {
	panic(&ViolationError{fmt.Sprintf(format, args...)})
}
