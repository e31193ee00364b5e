package storage

import "net/url"

// Artifact is one unit of output: bytes attributed to the URL they came from.
type Artifact struct {
	sourceURL url.URL
	content   []byte
	extension string
}

func NewArtifact(sourceURL url.URL, content []byte, extension string) Artifact {
	return Artifact{
		sourceURL: sourceURL,
		content:   content,
		extension: extension,
	}
}

func (a *Artifact) SourceURL() url.URL {
	return a.sourceURL
}

func (a *Artifact) Content() []byte {
	return a.content
}

func (a *Artifact) Extension() string {
	return a.extension
}

type WriteResult struct {
	path        string
	urlHash     string
	contentHash string
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) URLHash() string {
	return w.urlHash
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}
