package handler_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/polite-crawler/internal/handler"
)

func testContext(contentType string) *handler.Context {
	u, _ := url.Parse("http://example.com/page")
	return handler.NewContext(*u, contentType, []byte("body"))
}

func staticHandler(links ...string) handler.Handler {
	return handler.HandlerFunc(func(ctx context.Context, crawl *handler.Context) ([]string, error) {
		return links, nil
	})
}

func TestMatcherRules(t *testing.T) {
	tests := []struct {
		name        string
		matcher     handler.Matcher
		contentType string
		want        bool
	}{
		{"wildcard matches anything", handler.MatchAll(), "application/octet-stream", true},
		{"wildcard matches empty", handler.MatchAll(), "", true},
		{"exact single match", handler.MatchType("text/html"), "text/html", true},
		{"single mismatch", handler.MatchType("text/html"), "text/plain", false},
		{"type prefix matches subtype", handler.MatchType("text"), "text/html", true},
		{"type prefix equals", handler.MatchType("text"), "text", true},
		{"type prefix does not match partial token", handler.MatchType("text"), "textual/thing", false},
		{"list matches member", handler.MatchTypes("text/html", "text/plain"), "text/plain", true},
		{"list does not prefix-match", handler.MatchTypes("text"), "text/html", false},
		{"list mismatch", handler.MatchTypes("text/html"), "application/json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.matcher.Matches(tt.contentType))
		})
	}
}

func TestDispatchConcatenatesInRegistrationOrder(t *testing.T) {
	registry := handler.NewRegistry()
	registry.Register(handler.MatchType("text/html"), staticHandler("http://example.com/a"))
	registry.Register(handler.MatchType("text/html"), staticHandler("http://example.com/b", "http://example.com/c"))

	links, err := registry.Dispatch(context.Background(), testContext("text/html"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://example.com/a",
		"http://example.com/b",
		"http://example.com/c",
	}, links)
}

func TestDispatchSkipsNonMatchingHandlers(t *testing.T) {
	registry := handler.NewRegistry()
	registry.Register(handler.MatchType("text/plain"), staticHandler("http://example.com/plain"))
	registry.Register(handler.MatchType("text/html"), staticHandler("http://example.com/html"))

	links, err := registry.Dispatch(context.Background(), testContext("text/html"))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com/html"}, links)
}

func TestDispatchNilContributionIsEmpty(t *testing.T) {
	registry := handler.NewRegistry()
	registry.Register(handler.MatchAll(), staticHandler())
	registry.Register(handler.MatchAll(), staticHandler("http://example.com/x"))

	links, err := registry.Dispatch(context.Background(), testContext("text/html"))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com/x"}, links)
}

func TestDispatchStopsAtFirstFailure(t *testing.T) {
	firstErr := errors.New("first failure")
	laterRan := false

	registry := handler.NewRegistry()
	registry.Register(handler.MatchAll(), staticHandler("http://example.com/early"))
	registry.Register(handler.MatchAll(), handler.HandlerFunc(
		func(ctx context.Context, crawl *handler.Context) ([]string, error) {
			return nil, firstErr
		},
	))
	registry.Register(handler.MatchAll(), handler.HandlerFunc(
		func(ctx context.Context, crawl *handler.Context) ([]string, error) {
			laterRan = true
			return []string{"http://example.com/late"}, nil
		},
	))

	links, err := registry.Dispatch(context.Background(), testContext("text/html"))
	assert.ErrorIs(t, err, firstErr)
	assert.Nil(t, links)
	assert.False(t, laterRan, "handlers after a failure must not run")
}

func TestDispatchNoHandlers(t *testing.T) {
	registry := handler.NewRegistry()
	links, err := registry.Dispatch(context.Background(), testContext("text/html"))
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestCleanContentType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"text/html; charset=utf-8", "text/html"},
		{"text/html;charset=utf-8", "text/html"},
		{"text/html", "text/html"},
		{" text/plain ", "text/plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, handler.CleanContentType(tt.in))
	}
}

func TestGuessContentType(t *testing.T) {
	htmlURL, _ := url.Parse("http://example.com/page.html")
	assert.Equal(t, "text/html", handler.GuessContentType(*htmlURL))

	bareURL, _ := url.Parse("http://example.com/page")
	assert.Empty(t, handler.GuessContentType(*bareURL))

	xmlURL, _ := url.Parse("http://example.com/sitemap.xml")
	assert.Contains(t, []string{"application/xml", "text/xml"}, handler.GuessContentType(*xmlURL))
}
