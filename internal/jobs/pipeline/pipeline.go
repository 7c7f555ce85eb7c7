// Package pipeline wires the generation job handlers into a registry.
package pipeline

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/generator"
	"github.com/yungbote/coursecraft-backend/internal/jobs/pipeline/assessments_generate"
	"github.com/yungbote/coursecraft-backend/internal/jobs/pipeline/lesson_generate"
	"github.com/yungbote/coursecraft-backend/internal/jobs/pipeline/module_generate"
	"github.com/yungbote/coursecraft-backend/internal/jobs/pipeline/outline_generate"
	jobrt "github.com/yungbote/coursecraft-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/temporalx/jobrun"
)

// BuildRegistry registers every generation handler with its soft limit.
func BuildRegistry(log *logger.Logger, db *gorm.DB, drafts repos.DraftRepo, gen generator.ContentGenerator) (*jobrt.Registry, error) {
	reg := jobrt.NewRegistry()
	handlers := []jobrt.Handler{
		outline_generate.New(log, db, drafts, gen, jobrun.LimitsFor(types.JobTypeOutlineGenerate).Soft),
		module_generate.New(log, db, drafts, gen, jobrun.LimitsFor(types.JobTypeModuleGenerate).Soft),
		lesson_generate.New(log, db, drafts, gen, jobrun.LimitsFor(types.JobTypeLessonGenerate).Soft),
		assessments_generate.New(log, db, drafts, gen, jobrun.LimitsFor(types.JobTypeAssessmentsGenerate).Soft),
	}
	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
