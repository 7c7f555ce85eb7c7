package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// StubGenerator stands in for the real AI provider: fixed small delays and
// canned, deterministic payloads shaped like real output. Delay is
// configurable so tests can run it at zero.
type StubGenerator struct {
	log   *logger.Logger
	delay time.Duration
}

func NewStubGenerator(baseLog *logger.Logger, delay time.Duration) *StubGenerator {
	return &StubGenerator{log: baseLog.With("service", "StubGenerator"), delay: delay}
}

func (g *StubGenerator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (g *StubGenerator) GenerateOutline(ctx context.Context, info CourseInfo) (*types.Outline, error) {
	if err := g.sleep(ctx, g.delay); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = "Untitled Course"
	}
	out := &types.Outline{}
	for m := 1; m <= 3; m++ {
		mod := types.OutlineModule{
			Title:       fmt.Sprintf("Module %d: %s Fundamentals", m, title),
			Description: fmt.Sprintf("Core concepts for part %d of %s.", m, title),
		}
		for l := 1; l <= 3; l++ {
			kind := "video"
			if l == 3 {
				kind = "reading"
			}
			mod.Lessons = append(mod.Lessons, types.LessonStub{
				Title: fmt.Sprintf("Lesson %d.%d", m, l),
				Type:  kind,
			})
		}
		out.Modules = append(out.Modules, mod)
	}
	return out, nil
}

func (g *StubGenerator) GenerateModule(ctx context.Context, outline types.Outline, moduleIndex int) (*types.ModuleContent, error) {
	if err := g.sleep(ctx, g.delay); err != nil {
		return nil, err
	}
	if moduleIndex < 0 || moduleIndex >= len(outline.Modules) {
		return nil, fmt.Errorf("module index %d out of range", moduleIndex)
	}
	mod := outline.Modules[moduleIndex]
	return &types.ModuleContent{
		Title:       mod.Title,
		Description: mod.Description + " Expanded with key takeaways and a suggested pace.",
		LearningObjectives: []string{
			"Explain the core ideas covered in " + mod.Title,
			"Apply the techniques from this module to a small example",
		},
	}, nil
}

func (g *StubGenerator) GenerateLesson(ctx context.Context, lc LessonContext) (*types.LessonContent, error) {
	if err := g.sleep(ctx, g.delay); err != nil {
		return nil, err
	}
	return &types.LessonContent{
		ContentHTML: fmt.Sprintf(
			"<h2>%s</h2><p>This lesson belongs to %s and walks through the material step by step.</p>",
			lc.Lesson.Title, lc.Module.Title,
		),
		DurationMinutes: 12,
		Objectives: []string{
			"Understand the topic of " + lc.Lesson.Title,
		},
	}, nil
}

func (g *StubGenerator) GenerateAssessments(ctx context.Context, outline types.Outline) (*types.AssessmentSet, error) {
	if err := g.sleep(ctx, g.delay); err != nil {
		return nil, err
	}
	set := &types.AssessmentSet{}
	for m, mod := range outline.Modules {
		quiz := types.Quiz{
			ModuleIndex: m,
			Title:       mod.Title + " Quiz",
		}
		for q := 1; q <= 3; q++ {
			question := types.QuizQuestion{
				Text: fmt.Sprintf("Question %d about %s?", q, mod.Title),
			}
			for o := 0; o < 4; o++ {
				question.Options = append(question.Options, types.QuizOption{
					Text:    fmt.Sprintf("Option %c", 'A'+o),
					Correct: o == 0,
				})
			}
			quiz.Questions = append(quiz.Questions, question)
		}
		set.Quizzes = append(set.Quizzes, quiz)
	}
	return set, nil
}
