// Package sitemaps discovers URLs from robots.txt Sitemap directives and from
// sitemap XML documents (urlset and sitemapindex).
package sitemaps

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"strings"

	"github.com/rohmanhakim/polite-crawler/internal/handler"
)

// ContentTypes lists the content types this handler should be registered for.
func ContentTypes() []string {
	return []string{"text/plain", "application/xml", "text/xml"}
}

// Parser handles robots.txt bodies (text/plain, extracting Sitemap: lines)
// and sitemap XML bodies (urlset/sitemapindex, extracting <loc> entries).
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

var _ handler.Handler = (*Parser)(nil)

func (p *Parser) Handle(ctx context.Context, crawl *handler.Context) ([]string, error) {
	body := crawl.Body()
	if looksLikeXML(body) {
		return parseSitemapXML(body)
	}
	return parseSitemapDirectives(body), nil
}

func looksLikeXML(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// parseSitemapDirectives scans a robots.txt body for Sitemap: lines.
func parseSitemapDirectives(body []byte) []string {
	var links []string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			continue
		}
		directive := strings.TrimSpace(strings.ToLower(line[:colonIdx]))
		if directive != "sitemap" {
			continue
		}
		value := strings.TrimSpace(line[colonIdx+1:])
		if value != "" {
			links = append(links, value)
		}
	}
	return links
}

type sitemapDoc struct {
	Entries []sitemapLoc `xml:"url"`
	Nested  []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// parseSitemapXML extracts <loc> values from a urlset or sitemapindex
// document. A body that is not sitemap XML contributes nothing.
func parseSitemapXML(body []byte) ([]string, error) {
	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, nil
	}

	var links []string
	for _, entry := range doc.Entries {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			links = append(links, loc)
		}
	}
	for _, nested := range doc.Nested {
		if loc := strings.TrimSpace(nested.Loc); loc != "" {
			links = append(links, loc)
		}
	}
	return links, nil
}
