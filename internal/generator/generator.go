package generator

import (
	"context"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
)

// CourseInfo is the prompt context for outline generation, assembled from
// the request body or the stored draft fields.
type CourseInfo struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Objectives      []string `json:"objectives,omitempty"`
	TargetAudience  []string `json:"target_audience,omitempty"`
	Level           string   `json:"level,omitempty"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
}

// LessonContext pins a lesson stub to its position in the outline.
type LessonContext struct {
	CourseTitle string
	Module      types.OutlineModule
	ModuleIndex int
	Lesson      types.LessonStub
	LessonIndex int
}

// ContentGenerator is the capability boundary to the external content
// provider. Implementations must honor ctx cancellation; the job layer
// bounds calls with per-kind soft time limits.
type ContentGenerator interface {
	GenerateOutline(ctx context.Context, info CourseInfo) (*types.Outline, error)
	GenerateModule(ctx context.Context, outline types.Outline, moduleIndex int) (*types.ModuleContent, error)
	GenerateLesson(ctx context.Context, lc LessonContext) (*types.LessonContent, error)
	GenerateAssessments(ctx context.Context, outline types.Outline) (*types.AssessmentSet, error)
}
