package jobrun

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	jobrt "github.com/yungbote/coursecraft-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// ErrTypeTerminal marks activity errors the retry policy must not retry.
const ErrTypeTerminal = "terminal"

type Activities struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Jobs     repos.JobRunRepo
	Drafts   repos.DraftRepo
	Registry *jobrt.Registry
}

// Run executes one attempt of a job. Business failures mark the row
// failed and complete the activity; only transient failures (retryable
// handler errors) propagate so Temporal retries with backoff.
func (a *Activities) Run(ctx context.Context, jobID string) error {
	if a == nil || a.DB == nil || a.Jobs == nil || a.Registry == nil {
		return temporal.NewNonRetryableApplicationError("jobrun: activity not configured", ErrTypeTerminal, nil)
	}

	parsedJobID, err := uuid.Parse(strings.TrimSpace(jobID))
	if err != nil || parsedJobID == uuid.Nil {
		return temporal.NewNonRetryableApplicationError("jobrun: invalid job_id", ErrTypeTerminal, err)
	}

	job, err := a.Jobs.GetByID(dbctx.Context{Ctx: ctx}, parsedJobID)
	if err != nil {
		return fmt.Errorf("jobrun: load job: %w", err)
	}
	if job == nil {
		return temporal.NewNonRetryableApplicationError("jobrun: job not found", ErrTypeTerminal, nil)
	}
	// Re-delivery after completion is a no-op.
	if job.Terminal() {
		return nil
	}

	stopHB := a.startHeartbeat(ctx, parsedJobID)
	defer stopHB()

	attempt := job.Attempts + 1
	now := time.Now().UTC()
	_, _ = a.Jobs.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, parsedJobID, []string{types.JobStatusCanceled}, map[string]interface{}{
		"status":       types.JobStatusRunning,
		"attempts":     gorm.Expr("attempts + 1"),
		"locked_at":    now,
		"heartbeat_at": now,
	})
	job.Status = types.JobStatusRunning
	job.LockedAt = &now
	job.HeartbeatAt = &now

	jc := jobrt.NewContext(ctx, a.DB, job, a.Jobs)

	var runErr error
	h, ok := a.Registry.Get(job.JobType)
	if !ok {
		jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
	} else {
		func() {
			defer func() {
				if r := recover(); r != nil {
					trace := string(debug.Stack())
					if a.Log != nil {
						a.Log.Error("Job handler panic", "job_id", parsedJobID, "job_type", job.JobType, "panic", r, "stack", trace)
					}
					jc.Fail("panic", fmt.Errorf("panic: %v", r))
					a.recordTaskError(ctx, job, fmt.Sprintf("panic: %v", r), trace)
				}
			}()
			runErr = h.Run(jc)
		}()
	}

	if runErr != nil {
		if jobrt.IsRetryable(runErr) && attempt < MaxAttempts {
			// Transient: record, park the row back in queued, and let the
			// queue's backoff policy re-deliver.
			errAt := time.Now().UTC()
			_, _ = a.Jobs.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, parsedJobID, []string{types.JobStatusCanceled}, map[string]interface{}{
				"status":        types.JobStatusQueued,
				"error":         runErr.Error(),
				"last_error_at": errAt,
				"locked_at":     nil,
			})
			a.recordTaskError(ctx, job, runErr.Error(), "")
			return runErr
		}
		// Either a business failure or the last allowed attempt of a
		// transient one: the row must land terminal so polls stop
		// reporting pending.
		if jobrt.IsRetryable(runErr) {
			runErr = fmt.Errorf("gave up after %d attempts: %w", attempt, runErr)
		}
		jc.Fail("run", runErr)
	}

	updated, err := a.Jobs.GetByID(dbctx.Context{Ctx: ctx}, parsedJobID)
	if err != nil {
		return fmt.Errorf("jobrun: reload job: %w", err)
	}
	if updated == nil {
		return temporal.NewNonRetryableApplicationError("jobrun: job vanished", ErrTypeTerminal, nil)
	}

	switch updated.Status {
	case types.JobStatusFailed:
		a.recordTaskError(ctx, updated, updated.Error, "")
	case types.JobStatusRunning:
		// Handler returned nil without a terminal transition; treat as
		// success so the row cannot wedge in running forever.
		if a.Log != nil {
			a.Log.Warn("Job handler returned nil without terminal status; marking succeeded", "job_id", parsedJobID, "job_type", updated.JobType)
		}
		jc.Succeed(updated.Stage, nil)
	}
	return nil
}

// recordTaskError is the global failure hook: best-effort write of the
// failure into the owning draft's generation metadata. Its own failure
// must never mask the original error.
func (a *Activities) recordTaskError(ctx context.Context, job *types.JobRun, msg, trace string) {
	if a == nil || a.Drafts == nil || job == nil || job.EntityID == nil || *job.EntityID == uuid.Nil {
		return
	}
	if job.EntityType != types.EntityTypeCourseDraft {
		return
	}
	taskID := job.ID.String()
	err := a.Drafts.MergeGenerationMeta(dbctx.Context{Ctx: ctx}, *job.EntityID, func(meta *types.GenerationMeta) {
		if meta.TaskErrors == nil {
			meta.TaskErrors = map[string]types.TaskError{}
		}
		meta.TaskErrors[taskID] = types.TaskError{
			Message:   msg,
			Timestamp: time.Now().UTC(),
			Traceback: trace,
		}
	})
	if err != nil && a.Log != nil {
		a.Log.Warn("Failed to record task error on draft", "job_id", taskID, "draft_id", job.EntityID, "error", err)
	}
}

func (a *Activities) startHeartbeat(ctx context.Context, jobID uuid.UUID) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				activity.RecordHeartbeat(ctx)
				_ = a.Jobs.Heartbeat(dbctx.Context{Ctx: ctx}, jobID)
			}
		}
	}()
	return func() { close(done) }
}
