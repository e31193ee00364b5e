package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/polite-crawler/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseBadRequest            = "failed before making fetch"
	ErrCauseNetworkFailure        = "network failure"
	ErrCauseReadResponseBodyError = "failed to read response body"
	ErrCauseBodyTooLarge          = "response body too large"
)

type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
