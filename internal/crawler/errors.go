package crawler

import (
	"fmt"

	"github.com/rohmanhakim/polite-crawler/pkg/failure"
)

// Error taxonomy. Each tag is what the outcome record's errorCode stores.
const (
	ErrorCodeRobotsNotAllowed = "ROBOTS_NOT_ALLOWED"
	ErrorCodeHTTP             = "HTTP_ERROR"
	ErrorCodeRequest          = "REQUEST_ERROR"
	ErrorCodeHandlers         = "HANDLERS_ERROR"
	ErrorCodeOther            = "OTHER_ERROR"
)

// RobotsNotAllowedError: robots policy disallows the URL, or the robots fetch
// returned a server error under the strict setting.
type RobotsNotAllowedError struct {
	URL    string
	Reason string
}

func (e *RobotsNotAllowedError) Error() string {
	return fmt.Sprintf("robots.txt disallows %s: %s", e.URL, e.Reason)
}

func (e *RobotsNotAllowedError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// HTTPStatusError: a response arrived with status >= 400.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP status code %d for %s", e.StatusCode, e.URL)
}

func (e *HTTPStatusError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// RequestError: a transport-level failure (DNS, connect, TLS, read,
// oversized body).
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request for %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// HandlersError: a matched handler failed while processing the response.
// Err is the first such failure; later handlers did not run.
type HandlersError struct {
	URL string
	Err error
}

func (e *HandlersError) Error() string {
	return fmt.Sprintf("handlers failed for %s: %v", e.URL, e.Err)
}

func (e *HandlersError) Unwrap() error {
	return e.Err
}

func (e *HandlersError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
