package syncer

import "fmt"

type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
)

// SyncError carries enough context (destination, card name) to diagnose a
// failed run and safely repeat it.
type SyncError struct {
	Op          Op
	Destination string
	Card        string
	Err         error
}

func (e *SyncError) Error() string {
	if e.Card != "" {
		return fmt.Sprintf("sync: %s %q in %s: %v", e.Op, e.Card, e.Destination, e.Err)
	}
	return fmt.Sprintf("sync: %s cards in %s: %v", e.Op, e.Destination, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
