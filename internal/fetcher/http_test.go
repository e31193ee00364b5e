package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/polite-crawler/internal/fetcher"
)

func mustParse(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func TestFetchAppliesUserAgentAndHeaders(t *testing.T) {
	var gotUserAgent, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := fetcher.NewHTTPFetcher()
	param := fetcher.NewFetchParam(mustParse(t, server.URL), "testbot/1.0").
		WithExtraHeader(map[string]string{"Accept": "text/html"})

	result, err := f.Fetch(context.Background(), param)
	require.Nil(t, err)
	assert.Equal(t, "testbot/1.0", gotUserAgent)
	assert.Equal(t, "text/html", gotAccept)
	assert.Equal(t, 200, result.Code())
	assert.Equal(t, []byte("ok"), result.Body())
}

func TestFetchDoesNotFollowRedirectsByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/from" {
			w.Header().Set("Location", "/to")
			w.WriteHeader(http.StatusMovedPermanently)
			return
		}
		w.Write([]byte("destination"))
	}))
	defer server.Close()

	f := fetcher.NewHTTPFetcher()
	param := fetcher.NewFetchParam(mustParse(t, server.URL+"/from"), "testbot/1.0")

	result, err := f.Fetch(context.Background(), param)
	require.Nil(t, err)
	assert.Equal(t, http.StatusMovedPermanently, result.Code())
	assert.Equal(t, "/to", result.Header("Location"))
}

func TestFetchFollowsRedirectsWhenAsked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/from" {
			http.Redirect(w, r, "/to", http.StatusFound)
			return
		}
		w.Write([]byte("destination"))
	}))
	defer server.Close()

	f := fetcher.NewHTTPFetcher()
	param := fetcher.NewFetchParam(mustParse(t, server.URL+"/from"), "testbot/1.0").
		WithFollowRedirects(true)

	result, err := f.Fetch(context.Background(), param)
	require.Nil(t, err)
	assert.Equal(t, 200, result.Code())
	assert.Equal(t, []byte("destination"), result.Body())
}

func TestFetchEnforcesBodySizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer server.Close()

	f := fetcher.NewHTTPFetcher()
	param := fetcher.NewFetchParam(mustParse(t, server.URL), "testbot/1.0").
		WithMaxBodySize(1024)

	_, err := f.Fetch(context.Background(), param)
	require.NotNil(t, err)
	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, fetcher.FetchErrorCause(fetcher.ErrCauseBodyTooLarge), fetchErr.Cause)
}

func TestFetchUnlimitedWhenCapNonPositive(t *testing.T) {
	payload := strings.Repeat("y", 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	f := fetcher.NewHTTPFetcher()
	param := fetcher.NewFetchParam(mustParse(t, server.URL), "testbot/1.0").
		WithMaxBodySize(0)

	result, err := f.Fetch(context.Background(), param)
	require.Nil(t, err)
	assert.Len(t, result.Body(), len(payload))
}

func TestFetchTransportFailure(t *testing.T) {
	f := fetcher.NewHTTPFetcher()
	param := fetcher.NewFetchParam(mustParse(t, "http://127.0.0.1:1/"), "testbot/1.0")

	_, err := f.Fetch(context.Background(), param)
	require.NotNil(t, err)
	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, fetcher.FetchErrorCause(fetcher.ErrCauseNetworkFailure), fetchErr.Cause)
}

func TestFetchComputesBodyDigest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("stable content"))
	}))
	defer server.Close()

	f := fetcher.NewHTTPFetcher()
	param := fetcher.NewFetchParam(mustParse(t, server.URL), "testbot/1.0")

	first, err := f.Fetch(context.Background(), param)
	require.Nil(t, err)
	second, err := f.Fetch(context.Background(), param)
	require.Nil(t, err)

	assert.NotEmpty(t, first.BodyDigest())
	assert.Equal(t, first.BodyDigest(), second.BodyDigest())
}
