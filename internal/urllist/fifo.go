package urllist

import (
	"context"
	"sync"
)

// FIFOURLList is the in-memory URLList implementation: an append-only
// insertion-order queue with a side map from URL hash to entry. Dequeue is
// serialised internally; the list is not shareable across processes.
type FIFOURLList struct {
	mu      sync.Mutex
	order   *FIFOQueue[string]
	entries map[string]*fifoEntry
}

type fifoEntry struct {
	record  URLRecord
	crawled bool
}

func NewFIFOURLList() *FIFOURLList {
	return &FIFOURLList{
		order:   NewFIFOQueue[string](),
		entries: make(map[string]*fifoEntry),
	}
}

func (l *FIFOURLList) InsertIfNotExists(ctx context.Context, record URLRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.insertLocked(record)
	return nil
}

// InsertIfNotExistsBulk inserts every record, skipping URLs already present.
// For the in-memory list this is the same loop as per-record insertion; it
// exists so callers exercising the bulk capability hit one lock acquisition.
func (l *FIFOURLList) InsertIfNotExistsBulk(ctx context.Context, records []URLRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, record := range records {
		l.insertLocked(record)
	}
	return nil
}

func (l *FIFOURLList) insertLocked(record URLRecord) {
	key := Key(record.URL())
	if _, exists := l.entries[key]; exists {
		return
	}
	l.entries[key] = &fifoEntry{record: record}
	l.order.Enqueue(key)
}

func (l *FIFOURLList) GetNextURL(ctx context.Context) (URLRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		key, ok := l.order.Dequeue()
		if !ok {
			return URLRecord{}, ErrQueueEmpty
		}
		entry, exists := l.entries[key]
		if !exists || entry.crawled {
			// entry consumed through Upsert while still queued
			continue
		}
		entry.crawled = true
		return entry.record, nil
	}
}

func (l *FIFOURLList) Upsert(ctx context.Context, record URLRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := Key(record.URL())
	entry, exists := l.entries[key]
	if !exists {
		// an outcome for a URL never enqueued: store it as already consumed
		l.entries[key] = &fifoEntry{
			record:  applyNumErrors(record, URLRecord{}),
			crawled: true,
		}
		return nil
	}
	entry.record = applyNumErrors(record, entry.record)
	entry.crawled = true
	return nil
}

// applyNumErrors enforces the NumErrors invariant against the previously
// stored record: reset to 0 on success, previous+1 on failure.
func applyNumErrors(incoming URLRecord, prior URLRecord) URLRecord {
	if incoming.ErrorCode() == "" {
		return NewOutcome(incoming.URL(), incoming.StatusCode(), "", "", 0)
	}
	return NewOutcome(
		incoming.URL(),
		incoming.StatusCode(),
		incoming.ErrorCode(),
		incoming.ErrorMessage(),
		prior.NumErrors()+1,
	)
}

// RecordFor returns the stored record for a URL.
// This method is primarily useful for testing and diagnostics.
func (l *FIFOURLList) RecordFor(rawURL string) (URLRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[Key(rawURL)]
	if !exists {
		return URLRecord{}, false
	}
	return entry.record, true
}

// Size returns the number of entries ever inserted.
// This method is primarily useful for testing and diagnostics.
func (l *FIFOURLList) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
