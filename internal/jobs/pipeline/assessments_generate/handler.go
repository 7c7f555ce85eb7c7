package assessments_generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/generator"
	jobrt "github.com/yungbote/coursecraft-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type Handler struct {
	log       *logger.Logger
	db        *gorm.DB
	drafts    repos.DraftRepo
	gen       generator.ContentGenerator
	softLimit time.Duration
}

func New(log *logger.Logger, db *gorm.DB, drafts repos.DraftRepo, gen generator.ContentGenerator, softLimit time.Duration) *Handler {
	return &Handler{
		log:       log.With("job_type", types.JobTypeAssessmentsGenerate),
		db:        db,
		drafts:    drafts,
		gen:       gen,
		softLimit: softLimit,
	}
}

func (h *Handler) Type() string { return types.JobTypeAssessmentsGenerate }

func (h *Handler) Run(jc *jobrt.Context) error {
	draftID, ok := jc.PayloadUUID("draft_id")
	if !ok {
		jc.Fail("load", fmt.Errorf("missing draft_id"))
		return nil
	}

	jc.Progress("load", 10, "Loading draft")
	draft, err := h.drafts.GetByID(dbctx.Context{Ctx: jc.Ctx}, draftID)
	if err != nil {
		jc.Fail("load", fmt.Errorf("load draft: %w", err))
		return nil
	}
	if draft == nil {
		jc.Fail("load", fmt.Errorf("Draft not found"))
		return nil
	}
	// The API checks this before enqueueing, but flags can only flip
	// forward so a re-check here is a pure invariant guard.
	if !draft.HasOutline || !draft.HasModules || !draft.HasLessons {
		jc.Fail("validate", fmt.Errorf("draft is missing outline, modules, or lessons"))
		return nil
	}

	outline, err := draft.DecodeOutline()
	if err != nil || outline == nil {
		jc.Fail("validate", fmt.Errorf("draft outline unreadable"))
		return nil
	}

	jc.Progress("generate", 30, "Generating assessments")
	genCtx, cancel := context.WithTimeout(jc.Ctx, h.softLimit)
	defer cancel()
	set, err := h.gen.GenerateAssessments(genCtx, *outline)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return jobrt.Retryable(fmt.Errorf("assessments generation timed out: %w", err))
		}
		jc.Fail("generate", err)
		return nil
	}

	jc.Progress("persist", 70, "Saving assessments")
	err = h.db.WithContext(jc.Ctx).Transaction(func(tx *gorm.DB) error {
		return h.drafts.UpdateFields(dbctx.Context{Ctx: jc.Ctx, Tx: tx}, draftID, map[string]interface{}{
			"assessments":     types.MustJSON(set),
			"has_assessments": true,
		})
	})
	if err != nil {
		jc.Fail("persist", fmt.Errorf("save assessments: %w", err))
		return nil
	}

	jc.Progress("finish", 90, "Finalizing assessments")
	jc.Succeed("done", map[string]any{
		"status":     "success",
		"draft_id":   draftID.String(),
		"quiz_count": len(set.Quizzes),
	})
	return nil
}
