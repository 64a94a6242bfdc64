package app

import (
	"context"
	"log/slog"
	"time"

	"WikiPagesBot/internal/catalog"
	"WikiPagesBot/internal/config"
	"WikiPagesBot/internal/fetch"
	"WikiPagesBot/internal/infrastructure/telegram"
	"WikiPagesBot/internal/logging"
	"WikiPagesBot/internal/sentlog"
	"WikiPagesBot/internal/usecase"
	"WikiPagesBot/internal/wiki"
)

// Application wires configuration to the pipeline workflows.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	fetcher := fetch.NewClient(nil)

	canonicalizer := wiki.NewCanonicalizer(fetcher, baseLogger.With("component", "canonicalizer"))
	aggregator := wiki.NewAggregator(fetcher, wiki.AggregatorConfig{
		Project:  cfg.Wiki.StatsProject,
		FromDate: cfg.Wiki.ViewsFrom,
		ToDate:   cfg.Wiki.ViewsTo,
	}, baseLogger.With("component", "views"))

	builder := catalog.NewBuilder(fetcher, canonicalizer, aggregator, cfg.Wiki.Project,
		baseLogger.With("component", "builder"))
	store := catalog.NewStore(baseLogger.With("component", "store"))
	sent := sentlog.New(cfg.Files.Messages, baseLogger.With("component", "sentlog"))
	notifier := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Builder:    builder,
		Store:      store,
		SentLog:    sent,
		Notifier:   notifier,
		Fetcher:    fetcher,
		Categories: cfg.Categories,
		ExportPath: cfg.Files.Export,
		ImportPath: cfg.Files.Import,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline}
}

// RunExport performs a full catalog build and writes the catalog file.
func (a *Application) RunExport(ctx context.Context) error {
	return a.pipeline.ExportCatalog(ctx)
}

// RunDaily performs one selection-announce-record cycle.
func (a *Application) RunDaily(ctx context.Context) error {
	return a.pipeline.AnnounceDaily(ctx, time.Now())
}
