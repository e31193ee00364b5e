// Package htmlinks discovers hyperlinks in HTML documents.
package htmlinks

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/polite-crawler/internal/handler"
	"github.com/rohmanhakim/polite-crawler/pkg/urlutil"
)

// Extractor is a handler for "text/html" that returns the absolute form of
// every non-empty anchor href that resolves to an http or https URL; other
// schemes are skipped. A <base href> element, when present,
// overrides the document URL as the resolution base.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

var _ handler.Handler = (*Extractor)(nil)

func (e *Extractor) Handle(ctx context.Context, crawl *handler.Context) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(crawl.Body()))
	if err != nil {
		return nil, err
	}

	base := crawl.URL()
	if href, exists := doc.Find("base[href]").First().Attr("href"); exists {
		if resolved, ok := urlutil.Resolve(base, href); ok {
			base = resolved
		}
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		resolved, ok := urlutil.Resolve(base, href)
		if !ok {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		links = append(links, resolved.String())
	})

	return links, nil
}
