package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"sessionchart/internal/fetcher"
)

// Session loads single recorded sessions.
type Session struct {
	fetcher fetcher.DataFetcher
	logger  zerolog.Logger
}

// NewSession wires a Session service.
func NewSession(f fetcher.DataFetcher, logger zerolog.Logger) *Session {
	return &Session{fetcher: f, logger: logger.With().Str("component", "session").Logger()}
}

// Load fetches the records of one file.
func (s *Session) Load(ctx context.Context, fileID string) ([]fetcher.RawRecord, error) {
	records, err := s.fetcher.FetchRecords(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file %s", ErrNoRecords, fileID)
	}
	s.logger.Debug().Str("file_id", fileID).Int("records", len(records)).Msg("session loaded")
	return records, nil
}
