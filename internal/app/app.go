package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"sessionchart/internal/alerting"
	"sessionchart/internal/config"
	"sessionchart/internal/fetcher"
	"sessionchart/internal/render"
	"sessionchart/internal/scheduler"
	"sessionchart/internal/service"
	"sessionchart/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer

	// source overrides the configured data source when set.
	source fetcher.Source
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

// openSource returns the configured data source and its release func.
func (a *App) openSource(ctx context.Context) (fetcher.Source, func(), error) {
	if a.source != nil {
		return a.source, func() {}, nil
	}

	switch a.Config.Source.Kind {
	case config.SourcePostgres:
		pool, err := storage.NewPool(ctx, a.Config.Database)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewStore(pool, a.Config.Live.SnapshotLimit)
		return store, store.Close, nil
	default:
		backend := fetcher.NewBackend(fetcher.BackendOptions{
			BaseURL:   a.Config.Backend.BaseURL,
			Timeout:   a.Config.Backend.RequestTimeout,
			UserAgent: a.Config.Backend.UserAgent,
		}, a.Logger)
		return backend, func() {}, nil
	}
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
	}
	return nil
}

func (a *App) chartSize() render.Size {
	return render.Size{Width: a.Config.Chart.Width, Height: a.Config.Chart.Height}
}

// Live runs the live feed poller until interrupted.
func (a *App) Live(ctx context.Context, opts LiveOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loc, err := a.Config.Location()
	if err != nil {
		return err
	}

	source, release, err := a.openSource(ctx)
	if err != nil {
		return err
	}
	defer release()

	pngPath := opts.PNGPath
	if pngPath == "" {
		pngPath = a.Config.Live.OutputPNG
	}
	publisher := render.NewPublisher(pngPath)

	svc := service.NewLive(source, publisher, a.newNotifier(), service.LiveOptions{
		Location: loc,
		Size:     a.chartSize(),
	}, a.Logger)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Live.Interval,
		AlignToStart: a.Config.Live.AlignToBucket,
		StartupDelay: a.Config.Live.StartupDelay,
	}, a.Logger)

	a.Logger.Info().
		Str("png", publisher.Path()).
		Dur("interval", a.Config.Live.Interval).
		Msg("starting live poller")
	err = sched.Run(ctx, svc.Poll)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("live poller terminated with error")
		return err
	}

	a.Logger.Info().Int64("dropped_ticks", sched.Dropped()).Msg("live poller stopped")
	return nil
}

// FilesOptions configure the files command.
type FilesOptions struct {
	Query fetcher.FileQuery
}

// PlotOptions configure the single-session chart.
type PlotOptions struct {
	FileID  string
	Date    *time.Time
	PNGPath string
	CSVPath string
}

// AverageOptions configure the multi-session average.
type AverageOptions struct {
	FileIDs []string
	Query   fetcher.FileQuery
	Field   string
	PNGPath string
	CSVPath string
}

// LiveOptions configure the live poller.
type LiveOptions struct {
	PNGPath string
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}
