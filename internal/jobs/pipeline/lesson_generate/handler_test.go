package lesson_generate_test

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
	"github.com/yungbote/coursecraft-backend/internal/jobs/pipeline/lesson_generate"
	jobrt "github.com/yungbote/coursecraft-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
)

func seedJob(t *testing.T, tx *gorm.DB, ownerID, draftID uuid.UUID, payload map[string]any) *types.JobRun {
	t.Helper()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		JobType:     types.JobTypeLessonGenerate,
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

func TestLessonGenerateSuccessAndReadyTransition(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	drafts := repos.NewDraftRepo(tx, log)
	jobRepo := repos.NewJobRunRepo(tx, log)
	gen := generator.NewStubGenerator(log, 0)
	h := lesson_generate.New(log, tx, drafts, gen, time.Minute)

	owner := testutil.SeedUser(t, ctx, tx, "lesson-ok@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	testutil.SeedOutline(t, ctx, tx, draft.ID, 2, 3)
	if err := tx.Model(&types.CourseDraft{}).Where("id = ?", draft.ID).
		Update("has_modules", true).Error; err != nil {
		t.Fatalf("seed has_modules: %v", err)
	}

	job := seedJob(t, tx, owner.ID, draft.ID, map[string]any{
		"draft_id":     draft.ID.String(),
		"module_index": 0,
		"lesson_index": 1,
	})
	jc := jobrt.NewContext(ctx, tx, job, jobRepo)
	if err := h.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := drafts.GetByID(dbctx.Context{Ctx: ctx}, draft.ID)
	if err != nil {
		t.Fatalf("reload draft: %v", err)
	}
	if !got.HasLessons {
		t.Fatalf("has_lessons not set")
	}
	dc, err := got.DecodeContent()
	if err != nil {
		t.Fatalf("decode content: %v", err)
	}
	lc, ok := dc.Lessons[types.LessonKey(0, 1)]
	if !ok {
		t.Fatalf("lesson content not keyed by composite index: %+v", dc.Lessons)
	}
	if lc.ContentHTML == "" {
		t.Fatalf("lesson body empty")
	}
	if got.Status != types.DraftStatusReady {
		t.Fatalf("status = %q, want ready once outline+modules+lessons exist", got.Status)
	}
}

func TestLessonGenerateNoReadyTransitionWithoutModules(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	drafts := repos.NewDraftRepo(tx, log)
	jobRepo := repos.NewJobRunRepo(tx, log)
	gen := generator.NewStubGenerator(log, 0)
	h := lesson_generate.New(log, tx, drafts, gen, time.Minute)

	owner := testutil.SeedUser(t, ctx, tx, "lesson-noready@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	testutil.SeedOutline(t, ctx, tx, draft.ID, 1, 1)

	job := seedJob(t, tx, owner.ID, draft.ID, map[string]any{
		"draft_id":     draft.ID.String(),
		"module_index": 0,
		"lesson_index": 0,
	})
	jc := jobrt.NewContext(ctx, tx, job, jobRepo)
	if err := h.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := drafts.GetByID(dbctx.Context{Ctx: ctx}, draft.ID)
	if err != nil {
		t.Fatalf("reload draft: %v", err)
	}
	if got.Status != types.DraftStatusDraft {
		t.Fatalf("status = %q, want draft while modules are missing", got.Status)
	}
}

func TestLessonGenerateInvalidIndexFailsFast(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	drafts := repos.NewDraftRepo(tx, log)
	jobRepo := repos.NewJobRunRepo(tx, log)
	gen := generator.NewStubGenerator(log, 0)
	h := lesson_generate.New(log, tx, drafts, gen, time.Minute)

	owner := testutil.SeedUser(t, ctx, tx, "lesson-bad-idx@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	testutil.SeedOutline(t, ctx, tx, draft.ID, 1, 2)

	job := seedJob(t, tx, owner.ID, draft.ID, map[string]any{
		"draft_id":     draft.ID.String(),
		"module_index": 0,
		"lesson_index": 7,
	})
	jc := jobrt.NewContext(ctx, tx, job, jobRepo)
	if err := h.Run(jc); err != nil {
		t.Fatalf("index violation must not be retryable, got %v", err)
	}

	reloaded, err := jobRepo.GetByID(dbctx.Context{Ctx: ctx}, job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != types.JobStatusFailed {
		t.Fatalf("job status = %q, want failed", reloaded.Status)
	}
}
