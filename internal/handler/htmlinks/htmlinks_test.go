package htmlinks_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/polite-crawler/internal/handler"
	"github.com/rohmanhakim/polite-crawler/internal/handler/htmlinks"
)

func extract(t *testing.T, pageURL string, body string) []string {
	t.Helper()
	u, err := url.Parse(pageURL)
	require.NoError(t, err)

	links, herr := htmlinks.New().Handle(context.Background(), handler.NewContext(*u, "text/html", []byte(body)))
	require.NoError(t, herr)
	return links
}

func TestExtractAbsoluteAndRelativeAnchors(t *testing.T) {
	body := `<html><body>
		<a href="http://other.com/abs">abs</a>
		<a href="/rel">rel</a>
		<a href="sub/page">sub</a>
	</body></html>`

	links := extract(t, "http://example.com/dir/", body)
	assert.Equal(t, []string{
		"http://other.com/abs",
		"http://example.com/rel",
		"http://example.com/dir/sub/page",
	}, links)
}

func TestExtractHonorsBaseHref(t *testing.T) {
	body := `<html><head><base href="http://cdn.example.com/root/"></head>
		<body><a href="page">page</a></body></html>`

	links := extract(t, "http://example.com/", body)
	assert.Equal(t, []string{"http://cdn.example.com/root/page"}, links)
}

func TestExtractSkipsNonHTTPSchemes(t *testing.T) {
	body := `<html><body>
		<a href="mailto:someone@example.com">mail</a>
		<a href="javascript:void(0)">js</a>
		<a href="ftp://example.com/file">ftp</a>
		<a href="https://example.com/keep">keep</a>
	</body></html>`

	links := extract(t, "http://example.com/", body)
	assert.Equal(t, []string{"https://example.com/keep"}, links)
}

func TestExtractEmptyDocument(t *testing.T) {
	links := extract(t, "http://example.com/", "<html><body>no anchors here</body></html>")
	assert.Empty(t, links)
}

func TestExtractIgnoresEmptyHrefs(t *testing.T) {
	links := extract(t, "http://example.com/", `<html><a href="">empty</a><a href="   ">blank</a></html>`)
	assert.Empty(t, links)
}
