package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	jobrt "github.com/yungbote/coursecraft-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
)

func TestContextPayloadInt(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := repos.NewJobRunRepo(tx, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "runtime-payload@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	job := testutil.SeedJobRun(t, ctx, tx, owner.ID, types.JobTypeModuleGenerate, draft.ID)
	// JSON decoding produces float64 for numbers; string forms also appear
	// in hand-built payloads.
	job.Payload = types.MustJSON(map[string]any{"a": 3, "b": "7", "c": "x"})

	jc := jobrt.NewContext(ctx, tx, job, repo)
	if v, ok := jc.PayloadInt("a"); !ok || v != 3 {
		t.Fatalf("a = %d,%v", v, ok)
	}
	if v, ok := jc.PayloadInt("b"); !ok || v != 7 {
		t.Fatalf("b = %d,%v", v, ok)
	}
	if _, ok := jc.PayloadInt("c"); ok {
		t.Fatalf("non-numeric string must not parse")
	}
	if _, ok := jc.PayloadInt("missing"); ok {
		t.Fatalf("missing key must not parse")
	}
}

func TestContextTerminalTransitions(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := repos.NewJobRunRepo(tx, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "runtime-term@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	job := testutil.SeedJobRun(t, ctx, tx, owner.ID, types.JobTypeOutlineGenerate, draft.ID)

	jc := jobrt.NewContext(ctx, tx, job, repo)
	jc.Progress("load", 25, "Loading")
	got, _ := repo.GetByID(dbctx.Context{Ctx: ctx}, job.ID)
	if got.Stage != "load" || got.Progress != 25 {
		t.Fatalf("progress not persisted: %+v", got)
	}

	jc.Succeed("done", map[string]any{"status": "success"})
	got, _ = repo.GetByID(dbctx.Context{Ctx: ctx}, job.ID)
	if got.Status != types.JobStatusSucceeded || got.Progress != 100 {
		t.Fatalf("succeed not persisted: %+v", got)
	}
}

func TestContextFailRecordsResult(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := repos.NewJobRunRepo(tx, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "runtime-fail@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	job := testutil.SeedJobRun(t, ctx, tx, owner.ID, types.JobTypeOutlineGenerate, draft.ID)

	jc := jobrt.NewContext(ctx, tx, job, repo)
	jc.Fail("generate", fmt.Errorf("provider exploded"))

	got, _ := repo.GetByID(dbctx.Context{Ctx: ctx}, job.ID)
	if got.Status != types.JobStatusFailed || got.Error != "provider exploded" {
		t.Fatalf("fail not persisted: %+v", got)
	}
	if len(got.Result) == 0 {
		t.Fatalf("fail must also store an error result payload")
	}
}

func TestContextCanceledGuard(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := repos.NewJobRunRepo(tx, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "runtime-cancel@example.com")
	draft := testutil.SeedDraft(t, ctx, tx, owner.ID)
	job := testutil.SeedJobRun(t, ctx, tx, owner.ID, types.JobTypeOutlineGenerate, draft.ID)
	if err := repo.UpdateFields(dbctx.Context{Ctx: ctx}, job.ID, map[string]interface{}{
		"status": types.JobStatusCanceled,
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	jc := jobrt.NewContext(ctx, tx, job, repo)
	jc.Succeed("done", nil)
	jc.Fail("late", fmt.Errorf("too late"))

	got, _ := repo.GetByID(dbctx.Context{Ctx: ctx}, job.ID)
	if got.Status != types.JobStatusCanceled {
		t.Fatalf("canceled row was overwritten: %+v", got)
	}
}

func TestRetryableErrorWrapping(t *testing.T) {
	base := fmt.Errorf("timed out")
	wrapped := jobrt.Retryable(base)
	if !jobrt.IsRetryable(wrapped) {
		t.Fatalf("wrapped error must be retryable")
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("wrapping must preserve the cause")
	}
	if jobrt.IsRetryable(base) {
		t.Fatalf("unwrapped error must not be retryable")
	}
	if jobrt.Retryable(nil) != nil {
		t.Fatalf("nil stays nil")
	}
}
