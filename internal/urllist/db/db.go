// Package db provides the durable URLList implementation backed by a
// relational store, reachable from multiple workers and processes at once.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rohmanhakim/polite-crawler/internal/urllist"
)

/*
DbURLList Responsibilities
- Persist queue entries keyed by the URL hash
- Keep FIFO order through a monotonic insertion id
- Claim entries for exactly one worker via a conditional update
- Preserve the NumErrors invariant across upserts

Dequeue protocol:
 1. Select the row with the smallest id where crawled = 0
 2. UPDATE ... SET crawled = 1 WHERE id = ? AND crawled = 0
 3. Zero affected rows means another worker won the race; retry from 1
 4. Otherwise the selected row is the dequeued entry

This gives optimistic, at-most-once dispatch without holding a long
transaction.
*/

const DefaultTableName = "url"

// DefaultInitialRetryTime seeds the backoff schedule used by RequeueFailed.
const DefaultInitialRetryTime = time.Hour

type DbURLList struct {
	db    *sql.DB
	table string

	// failed entries stay claimed until RequeueFailed is invoked explicitly
	initialRetryTime time.Duration

	initOnce sync.Once
	initErr  error
}

// NewDbURLList creates a list over the given database handle. The schema is
// created lazily on first access and the migration check is skipped afterwards.
func NewDbURLList(database *sql.DB, opts ...Option) *DbURLList {
	list := &DbURLList{
		db:               database,
		table:            DefaultTableName,
		initialRetryTime: DefaultInitialRetryTime,
	}
	for _, opt := range opts {
		opt(list)
	}
	return list
}

type Option func(*DbURLList)

// WithTableName overrides the default table name.
func WithTableName(name string) Option {
	return func(l *DbURLList) {
		l.table = name
	}
}

// WithInitialRetryTime overrides the base delay of the RequeueFailed backoff
// schedule.
func WithInitialRetryTime(d time.Duration) Option {
	return func(l *DbURLList) {
		l.initialRetryTime = d
	}
}

func (l *DbURLList) ensureSchema(ctx context.Context) error {
	l.initOnce.Do(func() {
		schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url_hash TEXT NOT NULL UNIQUE,
	url TEXT NOT NULL,
	status_code INTEGER,
	error_code TEXT,
	error_message TEXT,
	num_errors INTEGER NOT NULL DEFAULT 0,
	crawled INTEGER NOT NULL DEFAULT 0,
	last_attempt_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_crawled ON %[1]s (crawled);`, l.table)

		if _, err := l.db.ExecContext(ctx, schema); err != nil {
			l.initErr = &StoreError{
				Message: err.Error(),
				Cause:   ErrCauseSchema,
			}
		}
	})
	return l.initErr
}

func (l *DbURLList) InsertIfNotExists(ctx context.Context, record urllist.URLRecord) error {
	if err := l.ensureSchema(ctx); err != nil {
		return err
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (url_hash, url) VALUES (?, ?) ON CONFLICT(url_hash) DO NOTHING`,
		l.table,
	)
	if _, err := l.db.ExecContext(ctx, query, urllist.Key(record.URL()), record.URL()); err != nil {
		return &StoreError{Message: err.Error(), Cause: ErrCauseExec}
	}
	return nil
}

// InsertIfNotExistsBulk inserts all records in one statement. Duplicate URLs,
// both against the table and within the batch, are ignored.
func (l *DbURLList) InsertIfNotExistsBulk(ctx context.Context, records []urllist.URLRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := l.ensureSchema(ctx); err != nil {
		return err
	}

	placeholders := make([]string, 0, len(records))
	args := make([]any, 0, len(records)*2)
	seen := urllist.NewSet[string]()
	for _, record := range records {
		key := urllist.Key(record.URL())
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)
		placeholders = append(placeholders, "(?, ?)")
		args = append(args, key, record.URL())
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (url_hash, url) VALUES %s ON CONFLICT(url_hash) DO NOTHING`,
		l.table,
		strings.Join(placeholders, ", "),
	)
	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return &StoreError{Message: err.Error(), Cause: ErrCauseExec}
	}
	return nil
}

func (l *DbURLList) GetNextURL(ctx context.Context) (urllist.URLRecord, error) {
	if err := l.ensureSchema(ctx); err != nil {
		return urllist.URLRecord{}, err
	}

	selectQuery := fmt.Sprintf(
		`SELECT id, url, status_code, error_code, error_message, num_errors
		 FROM %s WHERE crawled = 0 ORDER BY id LIMIT 1`,
		l.table,
	)
	claimQuery := fmt.Sprintf(
		`UPDATE %s SET crawled = 1 WHERE id = ? AND crawled = 0`,
		l.table,
	)

	for {
		var (
			id           int64
			rawURL       string
			statusCode   sql.NullInt64
			errorCode    sql.NullString
			errorMessage sql.NullString
			numErrors    int
		)
		row := l.db.QueryRowContext(ctx, selectQuery)
		err := row.Scan(&id, &rawURL, &statusCode, &errorCode, &errorMessage, &numErrors)
		if errors.Is(err, sql.ErrNoRows) {
			return urllist.URLRecord{}, urllist.ErrQueueEmpty
		}
		if err != nil {
			return urllist.URLRecord{}, &StoreError{Message: err.Error(), Cause: ErrCauseQuery}
		}

		result, err := l.db.ExecContext(ctx, claimQuery, id)
		if err != nil {
			return urllist.URLRecord{}, &StoreError{Message: err.Error(), Cause: ErrCauseExec}
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return urllist.URLRecord{}, &StoreError{Message: err.Error(), Cause: ErrCauseExec}
		}
		if affected == 0 {
			// another worker claimed the row between select and update
			continue
		}

		return urllist.NewOutcome(
			rawURL,
			int(statusCode.Int64),
			errorCode.String,
			errorMessage.String,
			numErrors,
		), nil
	}
}

func (l *DbURLList) Upsert(ctx context.Context, record urllist.URLRecord) error {
	if err := l.ensureSchema(ctx); err != nil {
		return err
	}

	key := urllist.Key(record.URL())
	numErrors := 0
	if record.ErrorCode() != "" {
		prior, err := l.numErrorsFor(ctx, key)
		if err != nil {
			return err
		}
		numErrors = prior + 1
	}

	query := fmt.Sprintf(`
INSERT INTO %s (url_hash, url, status_code, error_code, error_message, num_errors, crawled, last_attempt_at)
VALUES (?, ?, ?, ?, ?, ?, 1, ?)
ON CONFLICT(url_hash) DO UPDATE SET
	status_code = excluded.status_code,
	error_code = excluded.error_code,
	error_message = excluded.error_message,
	num_errors = excluded.num_errors,
	last_attempt_at = excluded.last_attempt_at`,
		l.table,
	)

	_, err := l.db.ExecContext(ctx, query,
		key,
		record.URL(),
		nullableInt(record.StatusCode()),
		nullableString(record.ErrorCode()),
		nullableString(record.ErrorMessage()),
		numErrors,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return &StoreError{Message: err.Error(), Cause: ErrCauseExec}
	}
	return nil
}

func (l *DbURLList) numErrorsFor(ctx context.Context, key string) (int, error) {
	query := fmt.Sprintf(`SELECT num_errors FROM %s WHERE url_hash = ?`, l.table)
	var numErrors int
	err := l.db.QueryRowContext(ctx, query, key).Scan(&numErrors)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, &StoreError{Message: err.Error(), Cause: ErrCauseQuery}
	}
	return numErrors, nil
}

// RequeueFailed re-exposes failed entries to dequeue. An entry qualifies when
// its error code is set and its age exceeds
// initialRetryTime * 2^(numErrors-1); the exponent is bounded at 62.
//
// The engine never calls this; schedule it from the owning process when
// re-crawling failures is wanted. Returns the number of re-enabled entries.
func (l *DbURLList) RequeueFailed(ctx context.Context) (int, error) {
	if err := l.ensureSchema(ctx); err != nil {
		return 0, err
	}

	now := time.Now().UnixMilli()

	// num_errors is bounded small in practice; 62 keeps the shift defined
	query := fmt.Sprintf(`
UPDATE %s SET crawled = 0
WHERE crawled = 1
  AND error_code IS NOT NULL
  AND last_attempt_at IS NOT NULL
  AND ? - last_attempt_at >= ? * (1 << MIN(num_errors - 1, 62))`,
		l.table,
	)

	result, err := l.db.ExecContext(ctx, query, now, l.initialRetryTime.Milliseconds())
	if err != nil {
		return 0, &StoreError{Message: err.Error(), Cause: ErrCauseExec}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, &StoreError{Message: err.Error(), Cause: ErrCauseExec}
	}
	return int(affected), nil
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
