package events

/*
Observability surface of the crawl engine.

Rules:
- Emission is observational only and MUST NOT influence scheduling,
  retries, or crawl termination (the engine never inspects a sink's state)
- Within one URL the order is crawlurl -> (redirect | httpError |
  handlersError)* -> links -> crawledurl; links is emitted only when the URL
  was processed without a failure
- No ordering guarantee between events of different in-flight URLs

Sinks may be invoked from multiple tick chains concurrently and must be safe
for that.
*/

// Sink receives engine events. Implement the subset you care about by
// embedding NopSink.
type Sink interface {
	// CrawlURL fires when a URL begins processing.
	CrawlURL(url string)

	// CrawledURL fires when a URL's outcome is known. errorCode is "" on
	// success; statusCode is 0 when no response was received.
	CrawledURL(url string, errorCode string, statusCode int, errorMessage string)

	// Redirect fires for a 3xx response; location is the raw Location header.
	Redirect(url string, location string)

	// Links fires with every URL discovered while processing url.
	Links(url string, links []string)

	// HTTPError fires for responses with status >= 400, in addition to the
	// outcome being recorded.
	HTTPError(url string, statusCode int)

	// HandlersError fires when a matched handler failed, in addition to the
	// outcome being recorded.
	HandlersError(url string, err error)

	// URLListEmpty fires when a tick found no entry to dequeue.
	URLListEmpty()

	// URLListComplete fires when the list is empty and no requests are in
	// flight.
	URLListComplete()
}

// NopSink implements Sink with no-ops. Embed it to implement a partial sink.
type NopSink struct{}

func (NopSink) CrawlURL(string)                     {}
func (NopSink) CrawledURL(string, string, int, string) {}
func (NopSink) Redirect(string, string)             {}
func (NopSink) Links(string, []string)              {}
func (NopSink) HTTPError(string, int)               {}
func (NopSink) HandlersError(string, error)         {}
func (NopSink) URLListEmpty()                       {}
func (NopSink) URLListComplete()                    {}

// Multi fans every event out to each sink in order.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) CrawlURL(url string) {
	for _, s := range m.sinks {
		s.CrawlURL(url)
	}
}

func (m *Multi) CrawledURL(url string, errorCode string, statusCode int, errorMessage string) {
	for _, s := range m.sinks {
		s.CrawledURL(url, errorCode, statusCode, errorMessage)
	}
}

func (m *Multi) Redirect(url string, location string) {
	for _, s := range m.sinks {
		s.Redirect(url, location)
	}
}

func (m *Multi) Links(url string, links []string) {
	for _, s := range m.sinks {
		s.Links(url, links)
	}
}

func (m *Multi) HTTPError(url string, statusCode int) {
	for _, s := range m.sinks {
		s.HTTPError(url, statusCode)
	}
}

func (m *Multi) HandlersError(url string, err error) {
	for _, s := range m.sinks {
		s.HandlersError(url, err)
	}
}

func (m *Multi) URLListEmpty() {
	for _, s := range m.sinks {
		s.URLListEmpty()
	}
}

func (m *Multi) URLListComplete() {
	for _, s := range m.sinks {
		s.URLListComplete()
	}
}
