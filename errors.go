package finapp

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a record that does not exist in the ledger store.
var ErrNotFound = errors.New("not found")

// ErrPriceUnavailable reports a failed price lookup. It is non-fatal: the
// instrument keeps its last known price.
var ErrPriceUnavailable = errors.New("price unavailable")

// ParseError reports a malformed or unexpected statement file: a missing
// expected column, an undecryptable PDF, a layout the parser cannot apply.
// It is recoverable and scoped to one source file; the sibling file of a
// combined upload is still processed.
type ParseError struct {
	File string
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.File, e.Msg, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.File, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// parseErrorf builds a ParseError with a formatted message.
func parseErrorf(file string, format string, args ...any) *ParseError {
	return &ParseError{File: file, Msg: fmt.Sprintf(format, args...)}
}

// LedgerError reports a failed ledger store operation. Any LedgerError during
// a reconciliation triggers a full rollback of the active transaction scope.
type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string { return fmt.Sprintf("ledger %s: %v", e.Op, e.Err) }

func (e *LedgerError) Unwrap() error { return e.Err }
