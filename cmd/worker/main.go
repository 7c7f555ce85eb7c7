package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/data/db"
	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	"github.com/yungbote/coursecraft-backend/internal/generator"
	"github.com/yungbote/coursecraft-backend/internal/jobs/pipeline"
	"github.com/yungbote/coursecraft-backend/internal/platform/envutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/temporalx"
	"github.com/yungbote/coursecraft-backend/internal/temporalx/temporalworker"
)

func main() {
	logg, err := logger.New(os.Getenv("APP_MODE"))
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logg.Sync()

	pg, err := db.NewPostgresService(logg)
	if err != nil {
		logg.Fatal("Postgres init failed", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		logg.Fatal("Migration failed", "error", err)
	}

	tc, err := temporalx.NewClient(logg)
	if err != nil {
		logg.Fatal("Temporal dial failed", "error", err)
	}
	if tc == nil {
		logg.Fatal("TEMPORAL_ADDRESS is required for the worker")
	}
	defer tc.Close()

	drafts := repos.NewDraftRepo(pg.DB(), logg)
	jobRuns := repos.NewJobRunRepo(pg.DB(), logg)

	delay := time.Duration(envutil.GetEnvAsInt("GENERATOR_DELAY_MS", 1500, logg)) * time.Millisecond
	gen := generator.NewStubGenerator(logg, delay)
	registry, err := pipeline.BuildRegistry(logg, pg.DB(), drafts, gen)
	if err != nil {
		logg.Fatal("Handler registration failed", "error", err)
	}

	runner, err := temporalworker.NewRunner(logg, tc, pg.DB(), jobRuns, drafts, registry)
	if err != nil {
		logg.Fatal("Worker init failed", "error", err)
	}
	if err := runner.Start(context.Background()); err != nil {
		logg.Fatal("Worker start failed", "error", err)
	}
	defer runner.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logg.Info("Worker shutting down", "signal", sig.String())
}
