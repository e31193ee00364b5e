package urllist

import (
	"context"

	"github.com/rohmanhakim/polite-crawler/pkg/hashutil"
)

/*
URLList Responsibilities
- Own all queue entries and their crawled state
- Deduplicate URLs (a URL enters the queue at most once over its lifetime)
- Hand each entry to exactly one caller of GetNextURL across all callers
- Persist outcomes
- Knows nothing about:
	- fetching
	- robots policy
	- handlers

It is a capability interface, not a pipeline executor.
*/

// URLList is the queue backend contract consumed by the crawl engine.
// Implementations must be safe for concurrent callers.
type URLList interface {
	// InsertIfNotExists adds the record if its URL is not already present;
	// otherwise it is a no-op. Never fails for duplicates.
	InsertIfNotExists(ctx context.Context, record URLRecord) error

	// GetNextURL returns one entry that has not been dispatched yet,
	// atomically marking it dispatched. Returns ErrQueueEmpty when no such
	// entry exists. Two concurrent calls must return distinct entries.
	GetNextURL(ctx context.Context) (URLRecord, error)

	// Upsert stores the outcome for the record's URL, creating the entry if
	// missing. Implementations preserve the NumErrors invariant: it
	// increments on failure and resets to 0 on success.
	Upsert(ctx context.Context, record URLRecord) error
}

// BulkInserter is an optional capability: when implemented, semantically
// equivalent to per-record InsertIfNotExists but with one round-trip to the
// store. The engine detects it via type assertion.
type BulkInserter interface {
	InsertIfNotExistsBulk(ctx context.Context, records []URLRecord) error
}

// Key returns the stable dedup key for a URL: its SHA-1 digest in hex.
func Key(rawURL string) string {
	digest, _ := hashutil.HashString(rawURL, hashutil.HashAlgoSHA1)
	return digest
}
