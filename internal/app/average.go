package app

import (
	"context"
	"errors"
	"fmt"

	"sessionchart/internal/fetcher"
	"sessionchart/internal/render"
	"sessionchart/internal/service"
)

// Average averages a field across sessions, prints the maximum, and writes
// the requested outputs.
func (a *App) Average(ctx context.Context, opts AverageOptions) error {
	source, release, err := a.openSource(ctx)
	if err != nil {
		return err
	}
	defer release()

	files, err := a.selectFiles(ctx, source, opts)
	if err != nil {
		return err
	}

	field := a.Config.ResolveField(opts.Field)
	svc := service.NewAverage(source, a.Config.Average.Concurrency, a.Logger)
	report, err := svc.Compute(ctx, files, field)
	if err != nil {
		return err
	}

	ext := report.Result.Extreme
	a.printf("Max Average %s: %.2f at index %d\n", displayField(field), ext.Value, ext.Index)
	if len(report.Failed) > 0 {
		a.printf("skipped %d of %d files\n", len(report.Failed), len(files))
	}

	if opts.CSVPath != "" {
		if err := writeAverageCSV(opts.CSVPath, report); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		lines := make([]render.Line, len(report.Inputs))
		for i, in := range report.Inputs {
			lines[i] = render.Line{Name: in.File.Label(), Values: in.Values}
		}
		graph := render.AverageChart(lines, report.Result, a.chartSize())
		if err := render.NewPublisher(opts.PNGPath).Publish(graph); err != nil {
			return err
		}
	}
	return nil
}

// selectFiles resolves explicit ids, or lists every file matching the query.
func (a *App) selectFiles(ctx context.Context, lister fetcher.FileLister, opts AverageOptions) ([]fetcher.FileEntry, error) {
	if len(opts.FileIDs) > 0 {
		files := make([]fetcher.FileEntry, len(opts.FileIDs))
		for i, id := range opts.FileIDs {
			files[i] = fetcher.FileEntry{ID: id}
		}
		return files, nil
	}

	files, err := lister.ListFiles(ctx, opts.Query)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no files match the selection")
	}
	return files, nil
}

func displayField(field string) string {
	if field == "prf" {
		return "PRF"
	}
	return fmt.Sprintf("%q", field)
}
