package fetcher

import (
	"net/url"
	"time"
)

// HTTP boundary

type FetchParam struct {
	fetchUrl        url.URL
	userAgent       string
	maxBodySize     int64
	followRedirects bool
	extraHeader     map[string]string
}

func NewFetchParam(fetchUrl url.URL, userAgent string) FetchParam {
	return FetchParam{
		fetchUrl:  fetchUrl,
		userAgent: userAgent,
	}
}

// WithMaxBodySize caps the number of body bytes read. Zero or negative means
// unlimited.
func (p FetchParam) WithMaxBodySize(limit int64) FetchParam {
	p.maxBodySize = limit
	return p
}

// WithFollowRedirects enables bounded redirect following for this fetch.
// The default is to return 3xx responses to the caller untouched.
func (p FetchParam) WithFollowRedirects(follow bool) FetchParam {
	p.followRedirects = follow
	return p
}

// WithExtraHeader merges additional request headers into the fetch.
func (p FetchParam) WithExtraHeader(header map[string]string) FetchParam {
	p.extraHeader = header
	return p
}

func (p *FetchParam) URL() url.URL {
	return p.fetchUrl
}

func (p *FetchParam) UserAgent() string {
	return p.userAgent
}

type FetchResult struct {
	url       url.URL
	body      []byte
	meta      ResponseMeta
	digest    string
	fetchedAt time.Time
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) SizeByte() uint64 {
	return uint64(len(f.body))
}

func (f *FetchResult) Headers() map[string]string {
	return f.meta.responseHeaders
}

// Header returns the first value of the named response header, or "".
func (f *FetchResult) Header(name string) string {
	return f.meta.responseHeaders[name]
}

// BodyDigest returns the BLAKE3 digest of the body in hex.
func (f *FetchResult) BodyDigest() string {
	return f.digest
}

func (f *FetchResult) FetchedAt() time.Time {
	return f.fetchedAt
}

type ResponseMeta struct {
	statusCode      int
	responseHeaders map[string]string
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	url url.URL,
	body []byte,
	statusCode int,
	responseHeaders map[string]string,
	fetchedAt time.Time,
) FetchResult {
	return FetchResult{
		url:       url,
		body:      body,
		fetchedAt: fetchedAt,
		meta: ResponseMeta{
			statusCode:      statusCode,
			responseHeaders: responseHeaders,
		},
	}
}
