// ABOUTME: Error types raised by the pipeline processes
// ABOUTME: OracleError is recoverable per unit of work; DuplicateIDError stops the run
package core

import (
	"errors"
	"fmt"
)

// ErrDuplicateID matches every DuplicateIDError via errors.Is
var ErrDuplicateID = errors.New("duplicate id conflict")

// DuplicateIDError reports a document id already recorded for another file
type DuplicateIDError struct {
	ID       string
	Recorded string
	Incoming string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("document id %s is recorded for %q, refusing to reuse it for %q", e.ID, e.Recorded, e.Incoming)
}

// Is reports whether target is ErrDuplicateID
func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID
}

// Oracle operation names
const (
	OpScore    = "score"
	OpRewrite  = "rewrite"
	OpNegate   = "negate"
	OpDialogue = "write_dialogue"
)

// OracleError wraps a failure of an external generation capability.
// Rule is -1 when the operation is not tied to a rule.
type OracleError struct {
	Op   string
	Rule int
	Err  error
}

func (e *OracleError) Error() string {
	if e.Rule < 0 {
		return fmt.Sprintf("oracle %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("oracle %s (rule %d): %v", e.Op, e.Rule, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// isOracleError reports whether err is an OracleError
func isOracleError(err error) bool {
	var oe *OracleError
	return errors.As(err, &oe)
}
