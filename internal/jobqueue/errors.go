package jobqueue

import "fmt"

// TransactionError reports a Server call made in the wrong transaction
// state. It is a programming error in the caller, never retried.
type TransactionError struct {
	Op    string
	State string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("jobqueue: %s called while transaction is %s", e.Op, e.State)
}

// SelectionError reports that a requested job backend is not registered
// or not usable in the current environment. It is surfaced before any
// submission is attempted.
type SelectionError struct {
	Backend string
	Reason  string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("jobqueue: backend %q not selectable: %s", e.Backend, e.Reason)
}
