package fetcher

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one file fetch inside a batch.
type BatchResult struct {
	File    FileEntry
	Records []RawRecord
	Err     error
}

// OK reports whether the fetch succeeded with at least one record.
func (r BatchResult) OK() bool {
	return r.Err == nil && len(r.Records) > 0
}

// FetchAll fetches every file concurrently and returns results in the order
// of files. A failed fetch never cancels its siblings; it is recorded as an
// ErrUpstream result with no records. limit <= 0 means unbounded.
func FetchAll(ctx context.Context, f DataFetcher, files []FileEntry, limit int) []BatchResult {
	results := make([]BatchResult, len(files))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			records, err := f.FetchRecords(ctx, file.ID)
			if err != nil {
				if !errors.Is(err, ErrUpstream) {
					err = fmt.Errorf("%w: file %s: %v", ErrUpstream, file.ID, err)
				}
				results[i] = BatchResult{File: file, Err: err}
				return nil
			}
			results[i] = BatchResult{File: file, Records: records}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
