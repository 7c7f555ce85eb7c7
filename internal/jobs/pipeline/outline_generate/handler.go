package outline_generate

import (
	"context"
	"encoding/json"
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
		log:       log.With("job_type", types.JobTypeOutlineGenerate),
		db:        db,
		drafts:    drafts,
		gen:       gen,
		softLimit: softLimit,
	}
}

func (h *Handler) Type() string { return types.JobTypeOutlineGenerate }

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

	info := courseInfoFromPayload(jc.Payload(), draft)

	jc.Progress("generate", 30, "Generating course outline")
	genCtx, cancel := context.WithTimeout(jc.Ctx, h.softLimit)
	defer cancel()
	outline, err := h.gen.GenerateOutline(genCtx, info)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return jobrt.Retryable(fmt.Errorf("outline generation timed out: %w", err))
		}
		jc.Fail("generate", err)
		return nil
	}

	jc.Progress("persist", 70, "Saving outline")
	err = h.db.WithContext(jc.Ctx).Transaction(func(tx *gorm.DB) error {
		return h.drafts.UpdateFields(dbctx.Context{Ctx: jc.Ctx, Tx: tx}, draftID, map[string]interface{}{
			"outline":     types.MustJSON(outline),
			"has_outline": true,
		})
	})
	if err != nil {
		jc.Fail("persist", fmt.Errorf("save outline: %w", err))
		return nil
	}

	jc.Progress("finish", 90, "Finalizing outline")
	jc.Succeed("done", map[string]any{
		"status":       "success",
		"draft_id":     draftID.String(),
		"module_count": len(outline.Modules),
		"outline":      outline,
	})
	return nil
}

// courseInfoFromPayload prefers the request-supplied course info and falls
// back to what the draft already stores.
func courseInfoFromPayload(payload map[string]any, draft *types.CourseDraft) generator.CourseInfo {
	if raw, ok := payload["course_info"]; ok && raw != nil {
		b, err := json.Marshal(raw)
		if err == nil {
			var info generator.CourseInfo
			if err := json.Unmarshal(b, &info); err == nil && info.Title != "" {
				return info
			}
		}
	}
	return generator.CourseInfo{
		Title:           draft.Title,
		Description:     draft.Description,
		Objectives:      types.StringList(draft.Objectives),
		TargetAudience:  types.StringList(draft.TargetAudience),
		Level:           draft.Level,
		DurationMinutes: draft.DurationMinutes,
	}
}
