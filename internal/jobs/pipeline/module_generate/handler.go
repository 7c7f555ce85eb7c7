package module_generate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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
		log:       log.With("job_type", types.JobTypeModuleGenerate),
		db:        db,
		drafts:    drafts,
		gen:       gen,
		softLimit: softLimit,
	}
}

func (h *Handler) Type() string { return types.JobTypeModuleGenerate }

func (h *Handler) Run(jc *jobrt.Context) error {
	draftID, ok := jc.PayloadUUID("draft_id")
	if !ok {
		jc.Fail("load", fmt.Errorf("missing draft_id"))
		return nil
	}
	moduleIndex, ok := jc.PayloadInt("module_index")
	if !ok {
		jc.Fail("load", fmt.Errorf("missing module_index"))
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
	// Index violations fail fast; the queue must not retry them.
	if outline == nil || moduleIndex < 0 || moduleIndex >= len(outline.Modules) {
		jc.Fail("validate", fmt.Errorf("module index %d not present in outline", moduleIndex))
		return nil
	}

	jc.Progress("generate", 30, fmt.Sprintf("Generating content for module %d", moduleIndex))
	genCtx, cancel := context.WithTimeout(jc.Ctx, h.softLimit)
	defer cancel()
	content, err := h.gen.GenerateModule(genCtx, *outline, moduleIndex)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return jobrt.Retryable(fmt.Errorf("module generation timed out: %w", err))
		}
		jc.Fail("generate", err)
		return nil
	}

	jc.Progress("persist", 70, "Saving module content")
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
		if dc.Modules == nil {
			dc.Modules = map[string]types.ModuleContent{}
		}
		dc.Modules[strconv.Itoa(moduleIndex)] = *content
		return h.drafts.UpdateFields(dbc, draftID, map[string]interface{}{
			"content":     types.MustJSON(dc),
			"has_modules": true,
		})
	})
	if err != nil {
		jc.Fail("persist", fmt.Errorf("save module content: %w", err))
		return nil
	}

	jc.Progress("finish", 90, "Finalizing module")
	jc.Succeed("done", map[string]any{
		"status":       "success",
		"draft_id":     draftID.String(),
		"module_index": moduleIndex,
		"module":       content,
	})
	return nil
}
