package urllist

import "errors"

// ErrQueueEmpty is returned by GetNextURL when no undispatched entry exists.
// It is a condition, not a failure: callers typically back off and poll again.
var ErrQueueEmpty = errors.New("url list: queue empty")
