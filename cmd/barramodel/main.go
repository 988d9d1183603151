// Command barramodel runs the Barra-style multi-factor risk model
// pipeline: it builds factor exposures and cross-sectional regressions
// from a sqlite panel store and publishes factor returns, factor
// covariance, and specific risk as on-disk artifacts.
//
// Three modes are supported, selected by flag:
//
//	-mode=full         run a full build once and exit
//	-mode=incremental  run a single incremental append and exit
//	-mode=serve        run an initial full build, then run incremental
//	                    append on the configured cron schedule until
//	                    signalled to stop
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/barramodel/internal/config"
	"github.com/aristath/barramodel/internal/panel"
	"github.com/aristath/barramodel/internal/pipeline"
	"github.com/aristath/barramodel/internal/scheduler"
	"github.com/aristath/barramodel/internal/store"
	"github.com/aristath/barramodel/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	mode := flag.String("mode", "full", "full, incremental, or serve")
	dataDir := flag.String("data-dir", "", "override BARRA_DATA_DIR")
	flag.Parse()

	cfg, err := config.Load(*dataDir)
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
	log.Info().Str("mode", *mode).Msg("starting barra risk model pipeline")

	db, err := store.New(store.Config{Path: cfg.DataDir + "/panel.db", Name: "panel"})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open panel database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate panel schema")
	}

	panelStore := panel.NewSQLStore(db, log)
	orch := pipeline.New(cfg, panelStore, log)

	switch *mode {
	case "full":
		runOnce(ctx, log, "full build", orch.FullBuild)
	case "incremental":
		runOnce(ctx, log, "incremental append", orch.IncrementalAppend)
	case "serve":
		runOnce(ctx, log, "initial full build", orch.FullBuild)
		serve(ctx, cancel, log, cfg, orch)
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

// runOnce runs a single pipeline stage to completion. A fatal error
// (database unreachable, artifact directory unwritable) aborts the
// process; a Report with validation issues logs a warning but exits
// cleanly, since "completed with warnings" is a valid terminal state
// for this pipeline.
func runOnce(ctx context.Context, log zerolog.Logger, label string, run func(context.Context) (pipeline.Report, error)) {
	report, err := run(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("stage", label).Msg("pipeline stage aborted")
	}

	event := log.Info()
	if report.Status() != "clean" {
		event = log.Warn()
	}
	event.
		Str("stage", label).
		Str("status", report.Status()).
		Int("securities", report.SecuritiesIn).
		Int("days_published", report.DaysPublished).
		Int("issues", len(report.Issues)).
		Msg("pipeline stage complete")
}

// serve keeps the process alive running incremental-append on the
// configured cron schedule until SIGINT or SIGTERM. An empty
// CronSchedule disables the scheduler entirely: the initial full build
// already ran, and the process simply waits to be stopped.
func serve(ctx context.Context, cancel context.CancelFunc, log zerolog.Logger, cfg *config.Config, orch *pipeline.Orchestrator) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sched := scheduler.New(log)
	if cfg.CronSchedule != "" {
		job := scheduler.NewIncrementalJob(func(jobCtx context.Context) error {
			_, err := orch.IncrementalAppend(jobCtx)
			return err
		})
		if err := sched.AddJob(cfg.CronSchedule, job); err != nil {
			log.Fatal().Err(err).Msg("failed to register incremental append job")
		}
		sched.Start()
		log.Info().Str("schedule", cfg.CronSchedule).Msg("incremental append scheduled")
	} else {
		log.Warn().Msg("no cron schedule configured, running initial build only")
	}

	<-quit
	log.Info().Msg("shutdown signal received")
	cancel()
	if cfg.CronSchedule != "" {
		sched.Stop()
	}
	log.Info().Msg("pipeline shut down")
}
