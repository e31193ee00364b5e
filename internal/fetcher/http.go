package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rohmanhakim/polite-crawler/pkg/failure"
	"github.com/rohmanhakim/polite-crawler/pkg/hashutil"
)

/*
Responsibilities

- Perform HTTP GET requests
- Apply the user agent and any configured extra headers
- Enforce the body size cap
- Return bytes and response metadata; never classify statuses

Redirect Semantics

- Target fetches return 3xx responses to the caller untouched
- Robots fetches follow redirects, bounded by the client's limit

The fetcher never parses content and never decides what a status code means;
that is the engine's job.
*/

type HTTPFetcher struct {
	// direct returns 3xx responses as-is; redirecting follows them
	direct      *http.Client
	redirecting *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return NewHTTPFetcherWithClient(&http.Client{Timeout: 30 * time.Second})
}

// NewHTTPFetcherWithClient builds a fetcher from a base client. The client's
// transport, jar and timeout are shared between the redirect-following and
// non-following variants.
func NewHTTPFetcherWithClient(base *http.Client) *HTTPFetcher {
	direct := *base
	direct.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	redirecting := *base
	redirecting.CheckRedirect = nil
	return &HTTPFetcher{
		direct:      &direct,
		redirecting: &redirecting,
	}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, fetchParam FetchParam) (FetchResult, failure.ClassifiedError) {
	fetchUrl := fetchParam.fetchUrl
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseBadRequest,
		}
	}

	req.Header.Set("User-Agent", fetchParam.userAgent)
	for key, value := range fetchParam.extraHeader {
		req.Header.Set(key, value)
	}

	client := h.direct
	if fetchParam.followRedirects {
		client = h.redirecting
	}

	resp, err := client.Do(req)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	defer resp.Body.Close()

	body, ferr := readBody(resp.Body, fetchParam.maxBodySize)
	if ferr != nil {
		return FetchResult{}, ferr
	}

	responseHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			responseHeaders[key] = values[0]
		}
	}

	digest, _ := hashutil.HashBytes(body, hashutil.HashAlgoBLAKE3)

	return FetchResult{
		url:       fetchUrl,
		body:      body,
		digest:    digest,
		fetchedAt: time.Now(),
		meta: ResponseMeta{
			statusCode:      resp.StatusCode,
			responseHeaders: responseHeaders,
		},
	}, nil
}

// readBody reads up to maxBodySize bytes. A limit of zero or less means
// unlimited. Exceeding the limit is a transport-level failure.
func readBody(r io.Reader, maxBodySize int64) ([]byte, failure.ClassifiedError) {
	if maxBodySize > 0 {
		r = io.LimitReader(r, maxBodySize+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}
	if maxBodySize > 0 && int64(len(body)) > maxBodySize {
		return nil, &FetchError{
			Message:   fmt.Sprintf("response body exceeds %d bytes", maxBodySize),
			Retryable: false,
			Cause:     ErrCauseBodyTooLarge,
		}
	}
	return body, nil
}
