package assessments_generate_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/generator"
	"github.com/yungbote/coursecraft-backend/internal/jobs/pipeline/assessments_generate"
	jobrt "github.com/yungbote/coursecraft-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
)

func seedJob(t *testing.T, tx *gorm.DB, ownerID, draftID uuid.UUID) *types.JobRun {
	t.Helper()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		JobType:     types.JobTypeAssessmentsGenerate,
		EntityType:  types.EntityTypeCourseDraft,
		EntityID:    &draftID,
		Status:      types.JobStatusRunning,
		Stage:       "queued",
		Payload:     types.MustJSON(map[string]any{"draft_id": draftID.String()}),
	}
	if err := tx.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestAssessmentsGenerateSuccess(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	drafts := repos.NewDraftRepo(tx, log)
	jobRepo := repos.NewJobRunRepo(tx, log)
	gen := generator.NewStubGenerator(log, 0)
	h := assessments_generate.New(log, tx, drafts, gen, time.Minute)

	owner := testutil.SeedUser(t, ctx, tx, "assess-ok@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	testutil.SeedOutline(t, ctx, tx, draft.ID, 2, 2)
	if err := tx.Model(&types.CourseDraft{}).Where("id = ?", draft.ID).
		Updates(map[string]interface{}{"has_modules": true, "has_lessons": true}).Error; err != nil {
		t.Fatalf("seed flags: %v", err)
	}

	job := seedJob(t, tx, owner.ID, draft.ID)
	jc := jobrt.NewContext(ctx, tx, job, jobRepo)
	if err := h.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := drafts.GetByID(dbctx.Context{Ctx: ctx}, draft.ID)
	if err != nil {
		t.Fatalf("reload draft: %v", err)
	}
	if !got.HasAssessments {
		t.Fatalf("has_assessments not set")
	}
	set, err := got.DecodeAssessments()
	if err != nil || set == nil {
		t.Fatalf("assessments not stored: %v", err)
	}
	if len(set.Quizzes) != 2 {
		t.Fatalf("quizzes = %d, want one per module", len(set.Quizzes))
	}
}

func TestAssessmentsGenerateRequiresPriorStages(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	drafts := repos.NewDraftRepo(tx, log)
	jobRepo := repos.NewJobRunRepo(tx, log)
	gen := generator.NewStubGenerator(log, 0)
	h := assessments_generate.New(log, tx, drafts, gen, time.Minute)

	owner := testutil.SeedUser(t, ctx, tx, "assess-early@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	// Outline only; modules and lessons not generated yet.
	testutil.SeedOutline(t, ctx, tx, draft.ID, 1, 1)

	job := seedJob(t, tx, owner.ID, draft.ID)
	jc := jobrt.NewContext(ctx, tx, job, jobRepo)
	if err := h.Run(jc); err != nil {
		t.Fatalf("precondition failure must not be retryable, got %v", err)
	}

	reloaded, err := jobRepo.GetByID(dbctx.Context{Ctx: ctx}, job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != types.JobStatusFailed {
		t.Fatalf("job status = %q, want failed", reloaded.Status)
	}
	got, err := drafts.GetByID(dbctx.Context{Ctx: ctx}, draft.ID)
	if err != nil {
		t.Fatalf("reload draft: %v", err)
	}
	if got.HasAssessments {
		t.Fatalf("failed run must not flip has_assessments")
	}
}
