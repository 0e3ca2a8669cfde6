// Package service composes fetching, computation and rendering into the
// operations exposed by the CLI.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"sessionchart/internal/fetcher"
	"sessionchart/internal/series"
)

var (
	// ErrNoSeries means no selected file produced usable data.
	ErrNoSeries = errors.New("no usable series")
	// ErrNoRecords means a session file held no records.
	ErrNoRecords = errors.New("no records")
)

// Input is one surviving series of an average computation.
type Input struct {
	File   fetcher.FileEntry
	Values []float64
}

// AverageReport is the outcome of averaging a field across sessions.
type AverageReport struct {
	Field  string
	Inputs []Input
	Result series.Result
	Failed []fetcher.FileEntry
}

// Average averages one field across many recorded sessions.
type Average struct {
	fetcher     fetcher.DataFetcher
	concurrency int
	logger      zerolog.Logger
}

// NewAverage wires an Average service. concurrency <= 0 fetches every file at once.
func NewAverage(f fetcher.DataFetcher, concurrency int, logger zerolog.Logger) *Average {
	return &Average{
		fetcher:     f,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "average").Logger(),
	}
}

// Compute fetches files concurrently, drops failures and empty series, and
// aligns the survivors. It returns ErrNoSeries when nothing survives.
func (a *Average) Compute(ctx context.Context, files []fetcher.FileEntry, field string) (AverageReport, error) {
	if len(files) == 0 {
		return AverageReport{}, fmt.Errorf("%w: no files selected", series.ErrInvalidInput)
	}

	report := AverageReport{Field: field}
	for _, res := range fetcher.FetchAll(ctx, a.fetcher, files, a.concurrency) {
		if res.Err != nil {
			a.logger.Warn().Err(res.Err).Str("file_id", res.File.ID).Msg("fetch failed, substituting empty series")
			report.Failed = append(report.Failed, res.File)
			continue
		}
		values, skipped := ExtractField(res.Records, field)
		if skipped > 0 && len(values) > 0 {
			a.logger.Warn().
				Str("file_id", res.File.ID).
				Str("field", field).
				Int("skipped", skipped).
				Int("records", len(res.Records)).
				Msg("records missing field, later values shift left")
		}
		if len(values) == 0 {
			a.logger.Warn().Str("file_id", res.File.ID).Str("field", field).Msg("empty series dropped")
			report.Failed = append(report.Failed, res.File)
			continue
		}
		report.Inputs = append(report.Inputs, Input{File: res.File, Values: values})
	}

	if len(report.Inputs) == 0 {
		return report, fmt.Errorf("%w: %d files, field %s", ErrNoSeries, len(files), field)
	}

	raw := make([][]float64, len(report.Inputs))
	for i, in := range report.Inputs {
		raw[i] = in.Values
	}
	result, err := series.AlignAndAverage(raw)
	if err != nil {
		return report, err
	}
	report.Result = result

	a.logger.Info().
		Int("inputs", len(report.Inputs)).
		Int("failed", len(report.Failed)).
		Int("length", result.Len()).
		Int("max_index", result.Extreme.Index).
		Float64("max_value", result.Extreme.Value).
		Msg("average computed")
	return report, nil
}

// ExtractField collects field from each record in order. Records that lack
// it are skipped and counted.
func ExtractField(records []fetcher.RawRecord, field string) ([]float64, int) {
	values := make([]float64, 0, len(records))
	skipped := 0
	for _, rec := range records {
		v, ok := rec.Field(field)
		if !ok {
			skipped++
			continue
		}
		values = append(values, v.InexactFloat64())
	}
	return values, skipped
}
