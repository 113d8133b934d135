package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"regintel/internal/config"
	"regintel/internal/domain"
	"regintel/internal/infrastructure/classifier"
	"regintel/internal/infrastructure/fetcher"
	"regintel/internal/infrastructure/parser"
	"regintel/internal/infrastructure/scheduler"
	"regintel/internal/infrastructure/storage"
	"regintel/internal/logging"
	"regintel/internal/ports"
	"regintel/internal/registry"
	"regintel/internal/rules"
	"regintel/internal/server"
	"regintel/internal/usecase"
)

// Application wires configuration to the four poller pipelines and the
// HTTP trigger surface.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.PostgresStore
	pipelines []*usecase.Pipeline
}

// New connects the database, loads the registry, and builds one pipeline
// per poller domain.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	httpFetcher := fetcher.New(nil, cfg.Poller.FetchRetries, cfg.Poller.FetchTimeout,
		baseLogger.With("component", "fetcher"))
	feedParser := parser.NewFeed(baseLogger.With("component", "parser.feed"))
	pageParser := parser.NewPage(baseLogger.With("component", "parser.page"))

	pipelines := make([]*usecase.Pipeline, 0, len(rules.All()))
	for _, ruleSet := range rules.All() {
		var cls ports.Classifier = classifier.NewHeuristic(ruleSet)
		if cfg.Model.APIKey != "" {
			cls = classifier.NewModel(cfg.Model, ruleSet, cls,
				baseLogger.With("component", "classifier", "domain", ruleSet.Domain))
		}

		pipelines = append(pipelines, usecase.NewPipeline(usecase.PipelineDeps{
			Rules:             ruleSet,
			Registry:          reg,
			Fetcher:           httpFetcher,
			FeedParser:        feedParser,
			PageParser:        pageParser,
			Classifier:        cls,
			Records:           store,
			RunLogs:           store,
			Progress:          store,
			Logger:            baseLogger.With("component", "pipeline", "domain", ruleSet.Domain),
			MaxItemsPerSource: cfg.Poller.MaxItemsPerSource,
			ClassifyInterval:  cfg.Poller.ClassifyInterval,
		}))
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		pipelines: pipelines,
	}, nil
}

// Close releases the database connection.
func (a *Application) Close() error {
	return a.store.Close()
}

// RunOnce executes a single poller invocation for the named domain.
func (a *Application) RunOnce(ctx context.Context, pollerDomain string, req usecase.RunRequest) (domain.RunSummary, error) {
	for _, pipeline := range a.pipelines {
		if pipeline.Domain() == pollerDomain {
			return pipeline.Run(ctx, req)
		}
	}
	return domain.RunSummary{}, fmt.Errorf("unknown poller domain: %s", pollerDomain)
}

// Serve runs the HTTP trigger server until interrupted, with the interval
// scheduler alongside when enabled.
func (a *Application) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.Scheduler.Enabled {
		runner := usecase.NewRunner(
			scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval),
			a.pipelines,
			a.logger.With("component", "runner"),
		)
		if err := runner.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() { _ = runner.Stop(context.Background()) }()
	}

	srv := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: server.New(a.pipelines, a.cfg, a.logger.With("component", "server")).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("trigger server listening", "addr", a.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
