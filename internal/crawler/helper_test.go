package crawler_test

import (
	"sync"
	"time"
)

// recordingSink captures every emission for assertions.
type recordingSink struct {
	mu sync.Mutex

	crawlURLs   []string
	outcomes    []outcomeEvent
	redirects   []redirectEvent
	links       []linksEvent
	httpErrors  []httpErrorEvent
	handlerErrs []handlerErrorEvent

	emptyCount    int
	completeCount int

	// onComplete runs outside the sink lock the first time the list drains
	onComplete   func()
	completeOnce sync.Once
}

type outcomeEvent struct {
	url          string
	errorCode    string
	statusCode   int
	errorMessage string
	at           time.Time
}

type redirectEvent struct {
	url      string
	location string
}

type linksEvent struct {
	url   string
	links []string
}

type httpErrorEvent struct {
	url        string
	statusCode int
}

type handlerErrorEvent struct {
	url string
	err error
}

func (s *recordingSink) CrawlURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crawlURLs = append(s.crawlURLs, url)
}

func (s *recordingSink) CrawledURL(url string, errorCode string, statusCode int, errorMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcomeEvent{
		url:          url,
		errorCode:    errorCode,
		statusCode:   statusCode,
		errorMessage: errorMessage,
		at:           time.Now(),
	})
}

func (s *recordingSink) Redirect(url string, location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirects = append(s.redirects, redirectEvent{url: url, location: location})
}

func (s *recordingSink) Links(url string, links []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = append(s.links, linksEvent{url: url, links: links})
}

func (s *recordingSink) HTTPError(url string, statusCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.httpErrors = append(s.httpErrors, httpErrorEvent{url: url, statusCode: statusCode})
}

func (s *recordingSink) HandlersError(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlerErrs = append(s.handlerErrs, handlerErrorEvent{url: url, err: err})
}

func (s *recordingSink) URLListEmpty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emptyCount++
}

func (s *recordingSink) URLListComplete() {
	s.mu.Lock()
	s.completeCount++
	s.mu.Unlock()

	if s.onComplete != nil {
		s.completeOnce.Do(s.onComplete)
	}
}

func (s *recordingSink) outcomeFor(url string) (outcomeEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.outcomes {
		if o.url == url {
			return o, true
		}
	}
	return outcomeEvent{}, false
}

func (s *recordingSink) outcomeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

func (s *recordingSink) completions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeCount
}

// countingServer tracks requests by path.
type countingServer struct {
	mu     sync.Mutex
	counts map[string]int
	starts []time.Time
}

func newCountingServer() *countingServer {
	return &countingServer{counts: make(map[string]int)}
}

func (c *countingServer) record(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[path]++
	c.starts = append(c.starts, time.Now())
}

func (c *countingServer) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[path]
}

func (c *countingServer) requestTimes() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	times := make([]time.Time, len(c.starts))
	copy(times, c.starts)
	return times
}
