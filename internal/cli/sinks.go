package cmd

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rohmanhakim/polite-crawler/internal/events"
)

func newClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// printSink writes one line per event of interest.
type printSink struct {
	mu  sync.Mutex
	out io.Writer
}

func newPrintSink(out io.Writer) *printSink {
	return &printSink{out: out}
}

var _ events.Sink = (*printSink)(nil)

func (p *printSink) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printSink) CrawlURL(url string) {
	p.printf("crawling %s", url)
}

func (p *printSink) CrawledURL(url string, errorCode string, statusCode int, errorMessage string) {
	if errorCode == "" {
		p.printf("crawled %s (%d)", url, statusCode)
		return
	}
	p.printf("crawled %s (%s: %s)", url, errorCode, errorMessage)
}

func (p *printSink) Redirect(url string, location string) {
	p.printf("redirect %s -> %s", url, location)
}

func (p *printSink) Links(string, []string) {}

func (p *printSink) HTTPError(string, int)       {}
func (p *printSink) HandlersError(string, error) {}
func (p *printSink) URLListEmpty()               {}
func (p *printSink) URLListComplete()            {}

// completionSink stops the engine once the list drains with nothing in
// flight.
type completionSink struct {
	events.NopSink
	once sync.Once
	stop func()
}

func (c *completionSink) URLListComplete() {
	c.once.Do(func() {
		if c.stop != nil {
			c.stop()
		}
	})
}
