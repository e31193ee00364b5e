package crawler

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/rohmanhakim/polite-crawler/internal/config"
	"github.com/rohmanhakim/polite-crawler/internal/events"
	"github.com/rohmanhakim/polite-crawler/internal/fetcher"
	"github.com/rohmanhakim/polite-crawler/internal/handler"
	"github.com/rohmanhakim/polite-crawler/internal/robots"
	"github.com/rohmanhakim/polite-crawler/internal/robots/cache"
	"github.com/rohmanhakim/polite-crawler/internal/urllist"
	"github.com/rohmanhakim/polite-crawler/pkg/timeutil"
	"github.com/rohmanhakim/polite-crawler/pkg/urlutil"
)

/*
 Crawler is the sole control-plane authority of the crawl.

 Responsibilities:
 - Pace request starts across all tick chains
 - Bound in-flight requests
 - Run the per-URL pipeline: robots check, fetch, redirect-or-dispatch,
   outcome classification
 - Feed discovered URLs back into the list
 - Persist outcomes
 - Emit events

 All classified pipeline failures are converted into outcome records and never
 surface to the tick loop. Failures in the URL list itself (insert, upsert)
 are fatal for the tick chain that observed them.
*/

type Crawler struct {
	list        urllist.URLList
	registry    *handler.Registry
	htmlFetcher fetcher.Fetcher
	robotsCache cache.Cache
	sink        events.Sink
	sleeper     timeutil.Sleeper

	interval                config.Interval
	concurrency             int
	userAgent               config.PerURL[string]
	maxContentLength        config.PerURL[int64]
	requestHeader           map[string]string
	robotsEnabled           bool
	robotsIgnoreServerError bool

	// pacing state shared by all tick chains
	mu               sync.Mutex
	started          bool
	lastRequestStart time.Time
	hasRequested     bool
	outstanding      int

	wg       sync.WaitGroup
	fatalMu  sync.Mutex
	fatalErr error
}

// NewCrawler builds an engine from config with default collaborators: the
// in-memory FIFO list, the HTTP fetcher, an in-memory robots cache, an empty
// handler registry and no event sink.
func NewCrawler(cfg config.Config) *Crawler {
	sleeper := timeutil.NewRealSleeper()
	return NewCrawlerWithDeps(
		cfg,
		urllist.NewFIFOURLList(),
		handler.NewRegistry(),
		fetcher.NewHTTPFetcher(),
		cache.NewMemoryCache(cfg.RobotsCacheTime()),
		events.NopSink{},
		&sleeper,
	)
}

// NewCrawlerWithDeps creates a Crawler with injected dependencies.
// This constructor allows callers to substitute the queue backend, the
// transport, the robots cache, the sink and the sleeper.
func NewCrawlerWithDeps(
	cfg config.Config,
	list urllist.URLList,
	registry *handler.Registry,
	htmlFetcher fetcher.Fetcher,
	robotsCache cache.Cache,
	sink events.Sink,
	sleeper timeutil.Sleeper,
) *Crawler {
	concurrency := cfg.ConcurrentRequestsLimit()
	if concurrency < 1 {
		concurrency = 1
	}
	return &Crawler{
		list:                    list,
		registry:                registry,
		htmlFetcher:             htmlFetcher,
		robotsCache:             robotsCache,
		sink:                    sink,
		sleeper:                 sleeper,
		interval:                cfg.Interval(),
		concurrency:             concurrency,
		userAgent:               cfg.UserAgent(),
		maxContentLength:        cfg.MaxContentLength(),
		requestHeader:           cfg.RequestHeader(),
		robotsEnabled:           cfg.RobotsEnabled(),
		robotsIgnoreServerError: cfg.RobotsIgnoreServerError(),
	}
}

// URLList exposes the queue backend, e.g. for seeding before Start.
func (c *Crawler) URLList() urllist.URLList {
	return c.list
}

// AddHandler registers a content handler. Registration after Start is
// allowed and takes effect on subsequent dispatches.
func (c *Crawler) AddHandler(matcher handler.Matcher, h handler.Handler) {
	c.registry.Register(matcher, h)
}

// Seed inserts the given URLs into the list (bulk when supported).
func (c *Crawler) Seed(ctx context.Context, rawURLs []string) error {
	records := make([]urllist.URLRecord, 0, len(rawURLs))
	for _, raw := range rawURLs {
		records = append(records, urllist.NewURLRecord(raw))
	}
	return c.insertRecords(ctx, records)
}

// Start spawns the tick chains. It returns immediately; use Wait to block
// until the chains exit after Stop.
func (c *Crawler) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("crawler already started")
	}
	c.started = true
	c.mu.Unlock()

	for i := 0; i < c.concurrency; i++ {
		c.wg.Add(1)
		go c.runChain(ctx)
	}
	return nil
}

// Stop halts future dequeues. In-flight work runs to completion; callers
// wanting hard cancellation cancel the context passed to Start.
func (c *Crawler) Stop() {
	c.mu.Lock()
	c.started = false
	c.mu.Unlock()
}

// Wait blocks until every tick chain has exited and returns the first fatal
// list error observed, if any.
func (c *Crawler) Wait() error {
	c.wg.Wait()
	c.fatalMu.Lock()
	defer c.fatalMu.Unlock()
	return c.fatalErr
}

func (c *Crawler) recordFatal(err error) {
	c.fatalMu.Lock()
	defer c.fatalMu.Unlock()
	if c.fatalErr == nil {
		c.fatalErr = err
	}
}

// runChain drives one tick chain: pace, dequeue, process, record, repeat.
func (c *Crawler) runChain(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		if !c.started {
			c.mu.Unlock()
			return
		}
		now := time.Now()
		if c.hasRequested {
			nextAllowed := c.lastRequestStart.Add(c.interval.Resolve())
			if nextAllowed.After(now) {
				c.mu.Unlock()
				c.sleeper.SleepContext(ctx, nextAllowed.Sub(now))
				continue
			}
		}
		// Written before any yield so concurrent chains observe it: this
		// serialises pacing across all chains.
		c.lastRequestStart = now
		c.hasRequested = true
		c.mu.Unlock()

		record, err := c.list.GetNextURL(ctx)
		if errors.Is(err, urllist.ErrQueueEmpty) {
			c.sink.URLListEmpty()
			c.mu.Lock()
			idle := c.outstanding == 0
			c.mu.Unlock()
			if idle {
				c.sink.URLListComplete()
			}
			c.sleeper.SleepContext(ctx, c.interval.Resolve())
			continue
		}
		if err != nil {
			c.recordFatal(err)
			return
		}

		c.mu.Lock()
		c.outstanding++
		c.mu.Unlock()

		outcome, procErr := c.processURL(ctx, record)
		var upsertErr error
		if procErr == nil {
			upsertErr = c.list.Upsert(ctx, outcome)
		}

		c.mu.Lock()
		c.outstanding--
		c.mu.Unlock()

		if procErr != nil {
			c.recordFatal(procErr)
			return
		}
		if upsertErr != nil {
			c.recordFatal(upsertErr)
			return
		}
	}
}

// processURL runs the per-URL pipeline and returns the outcome record.
// The returned error is non-nil only for list failures, which are fatal for
// the calling chain; every classified crawl failure is folded into the
// outcome instead.
func (c *Crawler) processURL(ctx context.Context, record urllist.URLRecord) (urllist.URLRecord, error) {
	rawURL := record.URL()
	c.sink.CrawlURL(rawURL)

	statusCode, links, crawlErr, listErr := c.crawl(ctx, rawURL)
	if listErr != nil {
		return urllist.URLRecord{}, listErr
	}

	if crawlErr == nil {
		c.sink.Links(rawURL, links)
		if err := c.insertLinks(ctx, links); err != nil {
			return urllist.URLRecord{}, err
		}
	}

	outcome := c.outcomeFor(record, statusCode, crawlErr)
	c.sink.CrawledURL(rawURL, outcome.ErrorCode(), outcome.StatusCode(), outcome.ErrorMessage())
	return outcome, nil
}

// crawl performs robots check, fetch, and redirect-or-dispatch for one URL.
// crawlErr carries the classified failure; listErr carries fatal list
// failures encountered while enqueueing the robots URL.
func (c *Crawler) crawl(ctx context.Context, rawURL string) (statusCode int, links []string, crawlErr error, listErr error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, err, nil
	}

	if c.robotsEnabled {
		body, robotsErr, insertErr := c.robotsBody(ctx, *target)
		if insertErr != nil {
			return 0, nil, nil, insertErr
		}
		if robotsErr != nil {
			return 0, nil, robotsErr, nil
		}
		if !robots.Allowed(body, c.userAgent.Resolve(*target), *target) {
			return 0, nil, &RobotsNotAllowedError{URL: rawURL, Reason: "disallowed by robots policy"}, nil
		}
	}

	param := fetcher.NewFetchParam(*target, c.userAgent.Resolve(*target)).
		WithMaxBodySize(c.maxContentLength.Resolve(*target)).
		WithExtraHeader(c.requestHeader)
	result, fetchErr := c.htmlFetcher.Fetch(ctx, param)
	if fetchErr != nil {
		return 0, nil, &RequestError{URL: rawURL, Err: fetchErr}, nil
	}

	statusCode = result.Code()

	// Redirects are not followed for target URLs: the destination becomes the
	// sole discovered link.
	if statusCode >= 300 && statusCode < 400 {
		location := result.Header("Location")
		c.sink.Redirect(rawURL, location)
		if destination, ok := urlutil.Resolve(*target, location); ok && location != "" {
			links = []string{destination.String()}
		}
		return statusCode, links, nil, nil
	}

	if statusCode >= 400 {
		c.sink.HTTPError(rawURL, statusCode)
		return statusCode, nil, &HTTPStatusError{URL: rawURL, StatusCode: statusCode}, nil
	}

	contentType := handler.CleanContentType(result.Header("Content-Type"))
	if contentType == "" {
		contentType = handler.GuessContentType(*target)
	}

	links, dispatchErr := c.registry.Dispatch(ctx, handler.NewContext(*target, contentType, result.Body()))
	if dispatchErr != nil {
		c.sink.HandlersError(rawURL, dispatchErr)
		return statusCode, nil, &HandlersError{URL: rawURL, Err: dispatchErr}, nil
	}

	return statusCode, links, nil, nil
}

// robotsBody returns the robots.txt body governing the target, consulting the
// cache first. On a miss the robots URL is enqueued (so user handlers may see
// it) and then fetched with redirect following enabled, the only place
// redirects are followed automatically. Retrieval problems other than a
// server error are swallowed as permissive.
func (c *Crawler) robotsBody(ctx context.Context, target url.URL) (string, error, error) {
	robotsURL := urlutil.RobotsURL(target)
	key := robotsURL.String()

	if body, ok := c.robotsCache.Get(key); ok {
		return body, nil, nil
	}

	if err := c.list.InsertIfNotExists(ctx, urllist.NewURLRecord(key)); err != nil {
		return "", nil, err
	}

	param := fetcher.NewFetchParam(robotsURL, c.userAgent.Resolve(robotsURL)).
		WithMaxBodySize(c.maxContentLength.Resolve(robotsURL)).
		WithExtraHeader(c.requestHeader).
		WithFollowRedirects(true)
	result, fetchErr := c.htmlFetcher.Fetch(ctx, param)
	if fetchErr != nil {
		// permissive, and uncached so the next URL retries the retrieval
		return "", nil, nil
	}

	var body string
	switch {
	case result.Code() >= 500:
		if !c.robotsIgnoreServerError {
			return "", &RobotsNotAllowedError{
				URL:    target.String(),
				Reason: "robots.txt request returned a server error",
			}, nil
		}
		body = ""
	case result.Code() >= 400:
		// no robots.txt means no restrictions
		body = ""
	default:
		body = string(result.Body())
	}

	c.robotsCache.Put(key, body)
	return body, nil, nil
}

// outcomeFor builds the outcome record from the classified failure, if any.
func (c *Crawler) outcomeFor(record urllist.URLRecord, statusCode int, crawlErr error) urllist.URLRecord {
	if crawlErr == nil {
		return urllist.NewOutcome(record.URL(), statusCode, "", "", 0)
	}

	var errorCode string
	switch crawlErr.(type) {
	case *RobotsNotAllowedError:
		errorCode = ErrorCodeRobotsNotAllowed
	case *HTTPStatusError:
		errorCode = ErrorCodeHTTP
	case *RequestError:
		errorCode = ErrorCodeRequest
	case *HandlersError:
		errorCode = ErrorCodeHandlers
	default:
		errorCode = ErrorCodeOther
	}

	return urllist.NewOutcome(
		record.URL(),
		statusCode,
		errorCode,
		crawlErr.Error(),
		record.NumErrors()+1,
	)
}

// insertLinks enqueues discovered links, deduplicated within the batch.
func (c *Crawler) insertLinks(ctx context.Context, links []string) error {
	seen := urllist.NewSet[string]()
	records := make([]urllist.URLRecord, 0, len(links))
	for _, link := range links {
		if seen.Contains(link) {
			continue
		}
		seen.Add(link)
		records = append(records, urllist.NewURLRecord(link))
	}
	return c.insertRecords(ctx, records)
}

// insertRecords prefers the optional bulk capability and falls back to
// per-record insertion.
func (c *Crawler) insertRecords(ctx context.Context, records []urllist.URLRecord) error {
	if len(records) == 0 {
		return nil
	}
	if bulk, ok := c.list.(urllist.BulkInserter); ok {
		return bulk.InsertIfNotExistsBulk(ctx, records)
	}
	for _, record := range records {
		if err := c.list.InsertIfNotExists(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
