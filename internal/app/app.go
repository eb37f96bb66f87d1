// Package app initializes and holds the application's long-lived services,
// acting as a dependency injection container for the harvester.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fixwire/fixharvest/internal/api"
	"github.com/fixwire/fixharvest/internal/clock/system"
	"github.com/fixwire/fixharvest/internal/config"
	"github.com/fixwire/fixharvest/internal/docstore"
	"github.com/fixwire/fixharvest/internal/docstore/local"
	collyfetcher "github.com/fixwire/fixharvest/internal/fetcher/colly"
	"github.com/fixwire/fixharvest/internal/harvest"
	"github.com/fixwire/fixharvest/internal/hash/sha256"
	"github.com/fixwire/fixharvest/internal/id/uuid"
	"github.com/fixwire/fixharvest/internal/logging"
	"github.com/fixwire/fixharvest/internal/metrics"
	"github.com/fixwire/fixharvest/internal/progress"
	progresssinks "github.com/fixwire/fixharvest/internal/progress/sinks"
)

// savedMessageFormat wraps the saved-path notice in ANSI green, matching the
// long-standing CLI output consumers grep for.
const savedMessageFormat = "\x1b[32mData has been saved to %s\x1b[0m\n"

// App contains the harvester's wired dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	clock     harvest.Clock
	orch      *harvest.Orchestrator
	store     harvest.DocumentStore
	runs      *progress.RunStore
	hub       *progress.Hub
	apiServer *api.Server
	out       io.Writer
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	a := &App{
		cfg:    cfg,
		logger: logger,
		clock:  system.New(),
		runs:   progress.NewRunStore(),
		out:    os.Stdout,
	}
	a.logger.Info("building application dependencies")

	emitter, err := a.setupProgress(ctx)
	if err != nil {
		return nil, err
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.PerRequestTimeout(),
	})
	a.logger.Info("using colly fetcher", zap.String("user_agent", cfg.HTTP.UserAgent))

	opts := harvest.Options{
		IndexURL:          cfg.Harvest.IndexURL,
		PerRequestTimeout: cfg.PerRequestTimeout(),
		TotalTimeout:      cfg.TotalTimeout(),
		Workers:           cfg.EffectiveWorkers(),
	}
	a.orch = harvest.NewOrchestrator(fetcher, uuid.New(), a.clock, emitter, logger.Named("harvest"), opts)
	a.logger.Info("harvest options",
		zap.String("index_url", opts.IndexURL),
		zap.Duration("per_request_timeout", opts.PerRequestTimeout),
		zap.Duration("total_timeout", opts.TotalTimeout),
		zap.Int("workers", opts.Workers),
	)

	a.store, err = docstore.New(
		cfg.Output.Backend,
		local.Config{Dir: cfg.Output.Dir, Filename: cfg.Output.Filename},
		sha256.New(),
		logger.Named("docstore"),
	)
	if err != nil {
		return nil, fmt.Errorf("document store init failed: %w", err)
	}

	if cfg.Server.Enabled {
		a.apiServer = api.NewServer(a.runs, logger.Named("api"))
	}

	return a, nil
}

func (a *App) setupProgress(ctx context.Context) (progress.Emitter, error) {
	if !a.cfg.Progress.Enabled {
		a.logger.Info("progress tracking disabled")
		return nil, nil
	}

	sinkList := []progress.Sink{progresssinks.NewSnapshotSink(a.runs)}
	if a.cfg.Progress.ConsoleEnabled {
		sinkList = append(sinkList, progresssinks.NewConsoleSink(nil))
		a.logger.Debug("added progress console sink")
	}
	if a.cfg.Progress.LogEnabled {
		sinkList = append(sinkList, progresssinks.NewLogSink(a.logger.Named("progress_log")))
		a.logger.Debug("added progress log sink")
	}
	promSink, err := progresssinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("progress metrics sink init failed: %w", err)
	}
	sinkList = append(sinkList, promSink)

	hubCfg := progress.Config{
		BufferSize:     a.cfg.Progress.BufferSize,
		MaxBatchEvents: a.cfg.Progress.Batch.MaxEvents,
		MaxBatchWait:   time.Duration(a.cfg.Progress.Batch.MaxWaitMs) * time.Millisecond,
		SinkTimeout:    time.Duration(a.cfg.Progress.SinkTimeoutMs) * time.Millisecond,
		BaseContext:    ctx,
		Logger:         a.logger.Named("progress_hub"),
	}
	a.hub = progress.NewHub(hubCfg, sinkList...)
	a.logger.Info("progress hub initialized",
		zap.Int("buffer_size", hubCfg.BufferSize),
		zap.Int("max_batch_events", hubCfg.MaxBatchEvents),
		zap.Duration("max_batch_wait", hubCfg.MaxBatchWait),
		zap.Duration("sink_timeout", hubCfg.SinkTimeout),
	)
	return a.hub, nil
}

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Harvest runs one end-to-end pass: fetch the index, fan out the detail
// fetches, assemble the document, and persist it. SIGINT/SIGTERM cancel the
// run; a canceled run discards the partial document.
func (a *App) Harvest(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.apiServer != nil {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
			Handler:           a.apiServer.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("status server started", zap.Int("port", a.cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("status server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("status server shutdown error", zap.Error(err))
			}
		}()
	}

	outcome, err := a.orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}
	if ctx.Err() != nil {
		a.logger.Warn("run canceled, discarding partial document", zap.String("run_id", outcome.RunID.String()))
		return fmt.Errorf("harvest canceled: %w", ctx.Err())
	}

	meta := harvest.Metadata{
		VersionName: a.cfg.Harvest.VersionName,
		Author:      a.cfg.Harvest.Author,
	}
	doc, failures := harvest.Assemble(outcome.Index, outcome.Results, meta, a.clock.Now())
	for _, f := range failures {
		a.logger.Warn("category failed",
			zap.String("name", f.Name),
			zap.String("kind", string(f.Kind)),
			zap.String("locator", f.Locator.String()),
			zap.Error(f),
		)
	}
	if outcome.GlobalTimedOut {
		a.logger.Warn("total deadline reached before all detail pages completed")
	}

	path, err := a.store.Save(ctx, doc)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	a.logger.Info("run summary",
		zap.String("run_id", outcome.RunID.String()),
		zap.String("version", doc.Version),
		zap.Int("categories", len(outcome.Index)),
		zap.Int("failed", len(failures)),
		zap.Bool("timed_out", outcome.GlobalTimedOut),
		zap.String("path", path),
	)
	if path != "" {
		fmt.Fprintf(a.out, savedMessageFormat, path)
	}
	return nil
}

// Close gracefully shuts down the application's services.
func (a *App) Close(ctx context.Context) error {
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			a.logger.Warn("progress hub close failed", zap.Error(err))
		}
	}
	if err := a.logger.Sync(); err != nil {
		a.logger.Warn("logger sync failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
	return nil
}
