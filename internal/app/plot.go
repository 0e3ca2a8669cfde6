package app

import (
	"context"
	"errors"
	"time"

	"sessionchart/internal/render"
	"sessionchart/internal/service"
)

// Plot renders one recorded session as PNG and/or CSV.
func (a *App) Plot(ctx context.Context, opts PlotOptions) error {
	if opts.PNGPath == "" && opts.CSVPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	loc, err := a.Config.Location()
	if err != nil {
		return err
	}
	day := time.Now().In(loc)
	if opts.Date != nil {
		day = opts.Date.In(loc)
	}

	source, release, err := a.openSource(ctx)
	if err != nil {
		return err
	}
	defer release()

	records, err := service.NewSession(source, a.Logger).Load(ctx, opts.FileID)
	if err != nil {
		return err
	}

	cols, err := render.Columns(records, day)
	if err != nil {
		return err
	}
	a.Logger.Info().Str("file_id", opts.FileID).Int("records", len(records)).Msg("plotting session")

	if opts.CSVPath != "" {
		if err := writeSessionCSV(opts.CSVPath, records, cols); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := render.NewPublisher(opts.PNGPath).Publish(render.SessionChart(cols, a.chartSize())); err != nil {
			return err
		}
	}
	return nil
}
