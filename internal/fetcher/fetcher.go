package fetcher

import (
	"context"
	"errors"

	"sessionchart/internal/live"
)

var (
	// ErrUpstream marks a failed per-file data fetch.
	ErrUpstream = errors.New("upstream failure")
	// ErrTransport marks a failed poll of the live feed.
	ErrTransport = errors.New("transport failure")
)

// FileQuery filters the recorded session listing. Empty fields are unfiltered.
type FileQuery struct {
	StartDate string
	EndDate   string
	Strategy  string
}

// FileLister lists recorded session files.
type FileLister interface {
	ListFiles(ctx context.Context, query FileQuery) ([]FileEntry, error)
}

// DataFetcher retrieves the records of one session file.
type DataFetcher interface {
	FetchRecords(ctx context.Context, fileID string) ([]RawRecord, error)
}

// LiveFetcher pulls the current live feed snapshot.
type LiveFetcher interface {
	FetchLive(ctx context.Context) ([]live.Record, error)
}

// Source bundles every data contract the dashboard consumes.
type Source interface {
	FileLister
	DataFetcher
	LiveFetcher
}
