package jobqueue

// Txn is the transaction state machine shared by backends: Idle → Begin →
// Open → Commit → Idle. Backends embed it and call the guard methods at
// the top of each Server operation.
type Txn struct {
	open bool
}

// BeginTxn transitions Idle → Open.
func (t *Txn) BeginTxn() error {
	if t.open {
		return &TransactionError{Op: "Begin", State: "open"}
	}
	t.open = true
	return nil
}

// CommitTxn transitions Open → Idle.
func (t *Txn) CommitTxn() error {
	if !t.open {
		return &TransactionError{Op: "Commit", State: "idle"}
	}
	t.open = false
	return nil
}

// EnsureOpen guards operations that require an open transaction.
func (t *Txn) EnsureOpen(op string) error {
	if !t.open {
		return &TransactionError{Op: op, State: "idle"}
	}
	return nil
}
