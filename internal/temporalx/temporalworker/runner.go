package temporalworker

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	jobrt "github.com/yungbote/coursecraft-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecraft-backend/internal/platform/envutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/temporalx"
	"github.com/yungbote/coursecraft-backend/internal/temporalx/jobrun"
)

type Runner struct {
	log *logger.Logger

	tc       temporalsdkclient.Client
	db       *gorm.DB
	jobRepo  repos.JobRunRepo
	drafts   repos.DraftRepo
	registry *jobrt.Registry

	w worker.Worker
}

func NewRunner(
	log *logger.Logger,
	tc temporalsdkclient.Client,
	db *gorm.DB,
	jobRepo repos.JobRunRepo,
	drafts repos.DraftRepo,
	registry *jobrt.Registry,
) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if db == nil || jobRepo == nil || drafts == nil || registry == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{
		log:      log.With("service", "TemporalWorker"),
		tc:       tc,
		db:       db,
		jobRepo:  jobRepo,
		drafts:   drafts,
		registry: registry,
	}, nil
}

// Start brings the worker up with bounded retry, then returns; the worker
// polls in background goroutines until Stop.
func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}
	cfg := temporalx.LoadConfig()
	r.log.Info("Starting Temporal worker", "address", cfg.Address, "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)

	maxWait := time.Duration(envutil.GetEnvAsInt("TEMPORAL_WORKER_START_MAX_WAIT_SECONDS", 60, r.log)) * time.Second
	backoff := 250 * time.Millisecond
	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w := r.newWorker(cfg.TaskQueue)
		err := w.Start()
		if err == nil {
			r.w = w
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("temporal worker start failed: %w", err)
		}
		r.log.Warn("Temporal worker start retrying", "attempt", attempt, "error", err)
		time.Sleep(backoff)
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}
}

func (r *Runner) Stop() {
	if r == nil || r.w == nil {
		return
	}
	r.w.Stop()
	r.w = nil
}

func (r *Runner) newWorker(taskQueue string) worker.Worker {
	w := worker.New(r.tc, taskQueue, worker.Options{})

	w.RegisterWorkflowWithOptions(jobrun.Workflow, workflow.RegisterOptions{Name: "JobRunWorkflow"})

	acts := &jobrun.Activities{
		Log:      r.log,
		DB:       r.db,
		Jobs:     r.jobRepo,
		Drafts:   r.drafts,
		Registry: r.registry,
	}
	w.RegisterActivityWithOptions(acts.Run, activity.RegisterOptions{Name: jobrun.ActivityRun})

	return w
}
