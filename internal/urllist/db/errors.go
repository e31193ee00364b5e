package db

import (
	"fmt"

	"github.com/rohmanhakim/polite-crawler/pkg/failure"
)

type StoreErrorCause string

const (
	ErrCauseSchema = "schema migration failed"
	ErrCauseQuery  = "query failed"
	ErrCauseExec   = "statement failed"
)

// StoreError wraps database failures. Store failures abort the tick chain
// that observed them, so they are always fatal.
type StoreError struct {
	Message string
	Cause   StoreErrorCause
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("url store error: %s: %s", e.Cause, e.Message)
}

func (e *StoreError) Severity() failure.Severity {
	return failure.SeverityFatal
}
