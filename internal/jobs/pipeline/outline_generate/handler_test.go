package outline_generate_test

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
	"github.com/yungbote/coursecraft-backend/internal/jobs/pipeline/outline_generate"
	jobrt "github.com/yungbote/coursecraft-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
)

func seedJob(t *testing.T, tx *gorm.DB, ownerID, draftID uuid.UUID, payload map[string]any) *types.JobRun {
	t.Helper()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		JobType:     types.JobTypeOutlineGenerate,
		EntityType:  types.EntityTypeCourseDraft,
		EntityID:    &draftID,
		Status:      types.JobStatusRunning,
		Stage:       "queued",
		Payload:     types.MustJSON(payload),
	}
	if err := tx.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestOutlineGenerateSuccess(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	drafts := repos.NewDraftRepo(tx, log)
	jobRepo := repos.NewJobRunRepo(tx, log)
	gen := generator.NewStubGenerator(log, 0)
	h := outline_generate.New(log, tx, drafts, gen, time.Minute)

	owner := testutil.SeedUser(t, ctx, tx, "outline-ok@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	job := seedJob(t, tx, owner.ID, draft.ID, map[string]any{"draft_id": draft.ID.String()})

	jc := jobrt.NewContext(ctx, tx, job, jobRepo)
	if err := h.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := drafts.GetByID(dbctx.Context{Ctx: ctx}, draft.ID)
	if err != nil {
		t.Fatalf("reload draft: %v", err)
	}
	if !got.HasOutline {
		t.Fatalf("has_outline not set")
	}
	outline, err := got.DecodeOutline()
	if err != nil || outline == nil || len(outline.Modules) == 0 {
		t.Fatalf("outline not stored: %v %+v", err, outline)
	}

	reloaded, err := jobRepo.GetByID(dbctx.Context{Ctx: ctx}, job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != types.JobStatusSucceeded {
		t.Fatalf("job status = %q, want succeeded (error=%q)", reloaded.Status, reloaded.Error)
	}
	if reloaded.Progress != 100 {
		t.Fatalf("progress = %d, want 100", reloaded.Progress)
	}
}

func TestOutlineGenerateDraftNotFound(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	drafts := repos.NewDraftRepo(tx, log)
	jobRepo := repos.NewJobRunRepo(tx, log)
	gen := generator.NewStubGenerator(log, 0)
	h := outline_generate.New(log, tx, drafts, gen, time.Minute)

	owner := testutil.SeedUser(t, ctx, tx, "outline-missing@example.com")
	missing := uuid.New()
	job := seedJob(t, tx, owner.ID, missing, map[string]any{"draft_id": missing.String()})

	jc := jobrt.NewContext(ctx, tx, job, jobRepo)
	if err := h.Run(jc); err != nil {
		t.Fatalf("missing draft must not be retryable, got %v", err)
	}

	reloaded, err := jobRepo.GetByID(dbctx.Context{Ctx: ctx}, job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != types.JobStatusFailed {
		t.Fatalf("job status = %q, want failed", reloaded.Status)
	}
	if reloaded.Error == "" {
		t.Fatalf("failed job must record an error message")
	}
}

func TestOutlineGenerateSoftLimitIsRetryable(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	drafts := repos.NewDraftRepo(tx, log)
	jobRepo := repos.NewJobRunRepo(tx, log)
	// A generator slower than the soft limit forces the deadline path.
	gen := generator.NewStubGenerator(log, 200*time.Millisecond)
	h := outline_generate.New(log, tx, drafts, gen, time.Millisecond)

	owner := testutil.SeedUser(t, ctx, tx, "outline-slow@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	job := seedJob(t, tx, owner.ID, draft.ID, map[string]any{"draft_id": draft.ID.String()})

	jc := jobrt.NewContext(ctx, tx, job, jobRepo)
	err := h.Run(jc)
	if err == nil {
		t.Fatalf("expected retryable error from soft limit")
	}
	if !jobrt.IsRetryable(err) {
		t.Fatalf("soft limit error must be retryable, got %v", err)
	}

	got, err := drafts.GetByID(dbctx.Context{Ctx: ctx}, draft.ID)
	if err != nil {
		t.Fatalf("reload draft: %v", err)
	}
	if got.HasOutline {
		t.Fatalf("timed-out run must not write the outline")
	}
}
