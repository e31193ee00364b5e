// Package mdarchive archives crawled HTML pages as Markdown files.
package mdarchive

import (
	"context"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/rohmanhakim/polite-crawler/internal/handler"
	"github.com/rohmanhakim/polite-crawler/internal/storage"
)

/*
Design Principles
- Semantic fidelity over visual fidelity
- No inferred structure
- GitHub-Flavored Markdown compatibility

The archiver discovers nothing: link extraction stays with the htmlinks
handler. Register it for "text/html".
*/

type Archiver struct {
	sink storage.Sink
	conv *converter.Converter
}

func New(sink storage.Sink) *Archiver {
	return &Archiver{
		sink: sink,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

var _ handler.Handler = (*Archiver)(nil)

func (a *Archiver) Handle(ctx context.Context, crawl *handler.Context) ([]string, error) {
	markdown, err := a.conv.ConvertString(string(crawl.Body()))
	if err != nil {
		return nil, err
	}

	artifact := storage.NewArtifact(crawl.URL(), []byte(markdown), "md")
	if _, werr := a.sink.Write(artifact); werr != nil {
		return nil, werr
	}
	return nil, nil
}
