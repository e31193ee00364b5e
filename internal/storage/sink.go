package storage

import (
	"os"
	"path/filepath"

	"github.com/rohmanhakim/polite-crawler/pkg/failure"
	"github.com/rohmanhakim/polite-crawler/pkg/fileutil"
	"github.com/rohmanhakim/polite-crawler/pkg/hashutil"
	"github.com/rohmanhakim/polite-crawler/pkg/urlutil"
)

/*
Responsibilities
- Persist crawl artifacts to the local filesystem
- Ensure deterministic filenames

Output Characteristics
- Stable directory layout
- Idempotent writes
- Overwrite-safe reruns
*/

type Sink interface {
	Write(artifact Artifact) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	outputDir string
}

func NewLocalSink(outputDir string) LocalSink {
	return LocalSink{
		outputDir: outputDir,
	}
}

var _ Sink = (*LocalSink)(nil)

// Write stores the artifact under a filename derived from the canonical form
// of its source URL, so reruns overwrite rather than accumulate.
func (s *LocalSink) Write(artifact Artifact) (WriteResult, failure.ClassifiedError) {
	canonical := urlutil.Canonicalize(artifact.SourceURL())

	urlHashFull, err := hashutil.HashString(canonical.String(), hashutil.HashAlgoSHA256)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}
	// first 12 hex characters keep filenames short while staying unique
	urlHash := urlHashFull[:12]

	if derr := fileutil.EnsureDir(s.outputDir); derr != nil {
		return WriteResult{}, &StorageError{
			Message:   derr.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      s.outputDir,
		}
	}

	path := filepath.Join(s.outputDir, urlHash+"."+artifact.Extension())
	if werr := os.WriteFile(path, artifact.Content(), 0644); werr != nil {
		return WriteResult{}, &StorageError{
			Message:   werr.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      path,
		}
	}

	contentHash, _ := hashutil.HashBytes(artifact.Content(), hashutil.HashAlgoBLAKE3)
	return WriteResult{
		path:        path,
		urlHash:     urlHash,
		contentHash: contentHash,
	}, nil
}
