package lesson_generate

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
		log:       log.With("job_type", types.JobTypeLessonGenerate),
		db:        db,
		drafts:    drafts,
		gen:       gen,
		softLimit: softLimit,
	}
}

func (h *Handler) Type() string { return types.JobTypeLessonGenerate }

func (h *Handler) Run(jc *jobrt.Context) error {
	draftID, ok := jc.PayloadUUID("draft_id")
	if !ok {
		jc.Fail("load", fmt.Errorf("missing draft_id"))
		return nil
	}
	moduleIndex, mOK := jc.PayloadInt("module_index")
	lessonIndex, lOK := jc.PayloadInt("lesson_index")
	if !mOK || !lOK {
		jc.Fail("load", fmt.Errorf("missing module_index or lesson_index"))
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

	outline, err := draft.DecodeOutline()
	if err != nil {
		jc.Fail("validate", err)
		return nil
	}
	if outline == nil || moduleIndex < 0 || moduleIndex >= len(outline.Modules) {
		jc.Fail("validate", fmt.Errorf("Invalid module or lesson index"))
		return nil
	}
	mod := outline.Modules[moduleIndex]
	if lessonIndex < 0 || lessonIndex >= len(mod.Lessons) {
		jc.Fail("validate", fmt.Errorf("Invalid module or lesson index"))
		return nil
	}

	key := types.LessonKey(moduleIndex, lessonIndex)
	jc.Progress("generate", 30, fmt.Sprintf("Generating lesson %s", key))
	genCtx, cancel := context.WithTimeout(jc.Ctx, h.softLimit)
	defer cancel()
	content, err := h.gen.GenerateLesson(genCtx, generator.LessonContext{
		CourseTitle: draft.Title,
		Module:      mod,
		ModuleIndex: moduleIndex,
		Lesson:      mod.Lessons[lessonIndex],
		LessonIndex: lessonIndex,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return jobrt.Retryable(fmt.Errorf("lesson generation timed out: %w", err))
		}
		jc.Fail("generate", err)
		return nil
	}

	jc.Progress("persist", 70, "Saving lesson content")
	err = h.db.WithContext(jc.Ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: jc.Ctx, Tx: tx}
		fresh, err := h.drafts.GetByID(dbc, draftID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return fmt.Errorf("Draft not found")
		}
		dc, err := fresh.DecodeContent()
		if err != nil {
			dc = &types.DraftContent{}
		}
		if dc.Lessons == nil {
			dc.Lessons = map[string]types.LessonContent{}
		}
		dc.Lessons[key] = *content
		updates := map[string]interface{}{
			"content":     types.MustJSON(dc),
			"has_lessons": true,
		}
		// Once the skeleton and both content layers exist the draft is
		// complete enough to finalize.
		if fresh.HasOutline && fresh.HasModules && fresh.Status == types.DraftStatusDraft {
			updates["status"] = types.DraftStatusReady
		}
		return h.drafts.UpdateFields(dbc, draftID, updates)
	})
	if err != nil {
		jc.Fail("persist", fmt.Errorf("save lesson content: %w", err))
		return nil
	}

	jc.Progress("finish", 90, "Finalizing lesson")
	jc.Succeed("done", map[string]any{
		"status":       "success",
		"draft_id":     draftID.String(),
		"module_index": moduleIndex,
		"lesson_index": lessonIndex,
		"lesson":       content,
	})
	return nil
}
