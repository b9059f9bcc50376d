package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/sync/errgroup"

	"github.com/sift-lab/project-sift/internal/analysis"
	corecfg "github.com/sift-lab/project-sift/internal/core/config"
	"github.com/sift-lab/project-sift/internal/core/storage"
	"github.com/sift-lab/project-sift/internal/core/storage/postgres"
	"github.com/sift-lab/project-sift/internal/ingestion"
	"github.com/sift-lab/project-sift/internal/jobs"
	"github.com/sift-lab/project-sift/internal/migrations"
	"github.com/sift-lab/project-sift/internal/schema"
	"github.com/sift-lab/project-sift/internal/server"
	"github.com/sift-lab/project-sift/internal/sink"
)

func main() {
	configPath := flag.String("config", "sift.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "sink_type", cfg.Sink.Type, "jobs_enabled", cfg.Jobs.Enabled)

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Initialize Schema Registry + Validator
	defs, err := schema.LoadDir(cfg.Schema.Path)
	if err != nil {
		slog.Error("Failed to load schema definitions", "error", err, "path", cfg.Schema.Path)
		os.Exit(1)
	}
	registry, err := schema.NewRegistry(defs)
	if err != nil {
		slog.Error("Invalid schema definitions", "error", err)
		os.Exit(1)
	}
	slog.Info("Schema registry loaded", "schemas", registry.Size())

	validator := schema.NewValidator(registry, cfg.Ingestion.MaxAttributes)

	// 4. Initialize the active SignalSink
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := sink.Dependencies{Store: dbAdapter}

	var cache *badger.DB
	if cfg.Sink.Type == "cache" || cfg.Sink.Type == "hybrid" {
		cache, err = badger.Open(badger.DefaultOptions(cfg.Sink.CachePath))
		if err != nil {
			slog.Error("Failed to open cache database", "error", err, "path", cfg.Sink.CachePath)
			os.Exit(1)
		}
		defer cache.Close()
		deps.Cache = cache
	}

	memLog := sink.NewMemLog()
	deps.Publisher = memLog

	if cfg.Sink.Type == "archive" {
		objects, err := sink.NewGCSObjectStore(ctx, cfg.Sink.ArchiveBucket, cfg.Sink.ArchiveCredentials)
		if err != nil {
			slog.Error("Failed to initialize object store", "error", err, "bucket", cfg.Sink.ArchiveBucket)
			os.Exit(1)
		}
		defer objects.Close()
		deps.Objects = objects
	}

	cacheTTL, err := cfg.Sink.EffectiveCacheTTL()
	if err != nil {
		slog.Error("Invalid cache TTL", "error", err)
		os.Exit(1)
	}
	activeSink, err := sink.New(cfg.Sink.Type, deps, sink.Options{
		CacheTTL:        cacheTTL,
		HotTTL:          cfg.Sink.EffectiveHotTTL(),
		ArchivePrefix:   cfg.Sink.ArchivePrefix,
		ArchiveCompress: cfg.Sink.ArchiveCompress,
	})
	if err != nil {
		slog.Error("Failed to initialize sink", "error", err)
		os.Exit(1)
	}
	slog.Info("Sink initialized", "type", activeSink.SinkType())

	// 5. Initialize Analysis
	window, err := cfg.Analysis.EffectiveValidityWindow()
	if err != nil {
		slog.Error("Invalid validity window", "error", err)
		os.Exit(1)
	}
	analysisAdapter := postgres.NewAnalysisAdapter(dbAdapter.DB())
	pattern := analysis.NewPatternAnalyzer(registry, analysis.DefaultProjectors(cfg.Analysis.HighlightedDomains), window)
	anomaly := analysis.NewAnomalyAnalyzer(registry, cfg.Analysis.HighValueThreshold)
	analysisSvc := analysis.NewService(dbAdapter, analysisAdapter, analysisAdapter, dbAdapter, pattern, anomaly, cfg.Analysis.Sensitivity)

	// 6. Initialize Job Orchestration
	orchestrator := jobs.NewOrchestrator(analysisSvc, analysisSvc)
	defer orchestrator.Shutdown()

	// 7. Initialize Ingestion
	var reader storage.SignalStore
	if cfg.Sink.Type == "durable" || cfg.Sink.Type == "hybrid" {
		reader = dbAdapter
	}
	var notifier ingestion.Notifier
	if cfg.Ingestion.PublishEvents {
		notifier = ingestion.NewPublisherNotifier(memLog)
	}
	ingestionSvc := ingestion.NewService(validator, activeSink, reader, notifier,
		cfg.Ingestion.MaxBatchSize, cfg.Server.MaxBodySizeMB)

	// 8. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	analysisSvc.RegisterRoutes(srv.Engine)
	jobs.NewHandler(orchestrator).RegisterRoutes(srv.Engine)

	// 9. Run the HTTP server and, if enabled, the scheduled analysis path.
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Jobs.Enabled {
		interval, _ := time.ParseDuration(cfg.Jobs.Interval)
		maxBatchDuration := parseDurationOrZero(cfg.Jobs.MaxBatchDuration)
		delay := parseDurationOrZero(cfg.Jobs.DelayBetweenUsers)

		scheduler := jobs.NewScheduler(orchestrator, jobs.SchedulerOptions{
			Interval:          interval,
			UsersPerBatch:     cfg.Jobs.UsersPerBatch,
			MaxBatchDuration:  maxBatchDuration,
			DelayBetweenUsers: delay,
		})
		g.Go(func() error { return scheduler.Start(gctx) })
	} else {
		slog.Info("Scheduled analysis disabled by config")
	}

	g.Go(func() error { return srv.Run(gctx) })

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// parseDurationOrZero is for fields already validated by config.Load.
func parseDurationOrZero(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}
