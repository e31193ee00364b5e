package storage

import (
	"fmt"

	"github.com/rohmanhakim/polite-crawler/pkg/failure"
)

type StorageErrorCause string

const (
	ErrCauseWriteFailure          = "write failure"
	ErrCausePathError             = "path error"
	ErrCauseHashComputationFailed = "hash computation failed"
)

type StorageError struct {
	Message   string
	Retryable bool
	Cause     StorageErrorCause
	Path      string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %s", e.Cause, e.Message)
}

func (e *StorageError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
