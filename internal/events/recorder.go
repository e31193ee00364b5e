package events

import (
	"sync"
	"time"
)

/*
StatsRecorder

- Represents a derived summary of a crawl in progress
- Contains only aggregate counts and durations
- Must not influence scheduling, retries, or crawl termination
*/

type StatsRecorder struct {
	mu             sync.Mutex
	startedAt      time.Time
	totalCrawled   int
	totalErrors    int
	totalRedirects int
	totalLinks     int
	errorsByCode   map[string]int
}

func NewStatsRecorder() *StatsRecorder {
	return &StatsRecorder{
		startedAt:    time.Now(),
		errorsByCode: make(map[string]int),
	}
}

var _ Sink = (*StatsRecorder)(nil)

func (r *StatsRecorder) CrawlURL(string) {}

func (r *StatsRecorder) CrawledURL(url string, errorCode string, statusCode int, errorMessage string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalCrawled++
	if errorCode != "" {
		r.totalErrors++
		r.errorsByCode[errorCode]++
	}
}

func (r *StatsRecorder) Redirect(url string, location string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalRedirects++
}

func (r *StatsRecorder) Links(url string, links []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalLinks += len(links)
}

func (r *StatsRecorder) HTTPError(string, int)       {}
func (r *StatsRecorder) HandlersError(string, error) {}
func (r *StatsRecorder) URLListEmpty()               {}
func (r *StatsRecorder) URLListComplete()            {}

// Stats returns a snapshot of the aggregates so far.
func (r *StatsRecorder) Stats() CrawlStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	byCode := make(map[string]int, len(r.errorsByCode))
	for code, n := range r.errorsByCode {
		byCode[code] = n
	}
	return CrawlStats{
		TotalCrawled:   r.totalCrawled,
		TotalErrors:    r.totalErrors,
		TotalRedirects: r.totalRedirects,
		TotalLinks:     r.totalLinks,
		ErrorsByCode:   byCode,
		Duration:       time.Since(r.startedAt),
	}
}

// CrawlStats is a terminal, derived summary of a crawl.
type CrawlStats struct {
	TotalCrawled   int
	TotalErrors    int
	TotalRedirects int
	TotalLinks     int
	ErrorsByCode   map[string]int
	Duration       time.Duration
}
