package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/temporalx"
)

type JobService interface {
	// Enqueue creates the job_run row. When dbc carries a transaction the
	// caller must Dispatch after commit; otherwise Enqueue dispatches
	// immediately.
	Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID uuid.UUID, payload map[string]interface{}) (*types.JobRun, error)
	// Dispatch starts the workflow for an already-committed job row.
	Dispatch(dbc dbctx.Context, jobID uuid.UUID) error
	GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db   *gorm.DB
	log  *logger.Logger
	jobs repos.JobRunRepo
	tc   client.Client
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, jobs repos.JobRunRepo, tc client.Client) JobService {
	return &jobService{
		db:   db,
		log:  baseLog.With("service", "JobService"),
		jobs: jobs,
		tc:   tc,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID uuid.UUID, payload map[string]interface{}) (*types.JobRun, error) {
	if jobType == "" {
		return nil, fmt.Errorf("jobs: job_type is required")
	}
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		Status:      types.JobStatusQueued,
		Stage:       "queued",
		Progress:    0,
		Message:     "Queued",
		Payload:     datatypes.JSON(types.MustJSON(payload)),
	}
	if entityID != uuid.Nil {
		job.EntityType = entityType
		eid := entityID
		job.EntityID = &eid
	}
	if _, err := s.jobs.Create(dbc, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("jobs: create: %w", err)
	}
	if dbc.Tx == nil {
		if err := s.Dispatch(dbc, job.ID); err != nil {
			return nil, err
		}
	}
	return job, nil
}

func (s *jobService) Dispatch(dbc dbctx.Context, jobID uuid.UUID) error {
	if s.tc == nil {
		s.markDispatchFailed(dbc, jobID, "task queue is not configured")
		return apierr.New(503, "queue_unavailable", fmt.Errorf("task queue is not configured"))
	}
	job, err := s.jobs.GetByID(dbctx.Context{Ctx: dbc.Ctx}, jobID)
	if err != nil {
		return fmt.Errorf("jobs: load for dispatch: %w", err)
	}
	if job == nil {
		return fmt.Errorf("jobs: job %s not found for dispatch", jobID)
	}

	cfg := temporalx.LoadConfig()
	opts := client.StartWorkflowOptions{
		ID:                    job.ID.String(),
		TaskQueue:             cfg.TaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	_, err = s.tc.ExecuteWorkflow(dbc.Ctx, opts, "JobRunWorkflow", job.JobType)
	if err != nil {
		if isWorkflowAlreadyStarted(err) {
			// A previous dispatch won the race; the job is running.
			return nil
		}
		s.log.Error("Workflow dispatch failed", "job_id", job.ID, "job_type", job.JobType, "error", err)
		s.markDispatchFailed(dbc, job.ID, err.Error())
		return apierr.New(503, "queue_unavailable", fmt.Errorf("failed to start job: %w", err))
	}
	return nil
}

func (s *jobService) markDispatchFailed(dbc dbctx.Context, jobID uuid.UUID, msg string) {
	now := time.Now().UTC()
	_, err := s.jobs.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: dbc.Ctx}, jobID, []string{types.JobStatusCanceled}, map[string]interface{}{
		"status":        types.JobStatusFailed,
		"stage":         "dispatch",
		"message":       "Failed to start",
		"error":         msg,
		"last_error_at": now,
	})
	if err != nil {
		s.log.Warn("Failed to mark job dispatch failure", "job_id", jobID, "error", err)
	}
}

func (s *jobService) GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	userID := ctxutil.RequestUserID(dbc.Ctx)
	if userID == uuid.Nil {
		return nil, apierr.New(401, "unauthenticated", fmt.Errorf("authentication required"))
	}
	job, err := s.jobs.GetByID(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apierr.NotFound("job_not_found", fmt.Errorf("job not found"))
	}
	if job.OwnerUserID != userID {
		return nil, apierr.Forbidden("not_owner", fmt.Errorf("you do not have access to this job"))
	}
	return job, nil
}

func isWorkflowAlreadyStarted(err error) bool {
	if err == nil {
		return false
	}
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	return errors.As(err, &alreadyStarted)
}
