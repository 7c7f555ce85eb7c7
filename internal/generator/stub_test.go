package generator_test

import (
	"context"
	"testing"

	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursecraft-backend/internal/generator"
)

func TestStubGeneratorOutlineShape(t *testing.T) {
	gen := generator.NewStubGenerator(testutil.Logger(t), 0)
	outline, err := gen.GenerateOutline(context.Background(), generator.CourseInfo{Title: "Beekeeping"})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	if len(outline.Modules) == 0 {
		t.Fatalf("outline has no modules")
	}
	for i, m := range outline.Modules {
		if m.Title == "" {
			t.Fatalf("module %d has empty title", i)
		}
		if len(m.Lessons) == 0 {
			t.Fatalf("module %d has no lessons", i)
		}
		for j, l := range m.Lessons {
			if l.Title == "" || l.Type == "" {
				t.Fatalf("lesson %d.%d incomplete: %+v", i, j, l)
			}
		}
	}
}

func TestStubGeneratorModuleAndLesson(t *testing.T) {
	gen := generator.NewStubGenerator(testutil.Logger(t), 0)
	outline, err := gen.GenerateOutline(context.Background(), generator.CourseInfo{Title: "Beekeeping"})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}

	mc, err := gen.GenerateModule(context.Background(), *outline, 0)
	if err != nil {
		t.Fatalf("GenerateModule: %v", err)
	}
	if mc.Title == "" || len(mc.LearningObjectives) == 0 {
		t.Fatalf("module content incomplete: %+v", mc)
	}

	lc, err := gen.GenerateLesson(context.Background(), generator.LessonContext{
		CourseTitle: "Beekeeping",
		Module:      outline.Modules[0],
		ModuleIndex: 0,
		Lesson:      outline.Modules[0].Lessons[0],
		LessonIndex: 0,
	})
	if err != nil {
		t.Fatalf("GenerateLesson: %v", err)
	}
	if lc.ContentHTML == "" || lc.DurationMinutes <= 0 {
		t.Fatalf("lesson content incomplete: %+v", lc)
	}
}

func TestStubGeneratorAssessmentsPerModule(t *testing.T) {
	gen := generator.NewStubGenerator(testutil.Logger(t), 0)
	outline, err := gen.GenerateOutline(context.Background(), generator.CourseInfo{Title: "Beekeeping"})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	set, err := gen.GenerateAssessments(context.Background(), *outline)
	if err != nil {
		t.Fatalf("GenerateAssessments: %v", err)
	}
	if len(set.Quizzes) != len(outline.Modules) {
		t.Fatalf("quizzes = %d, want one per module (%d)", len(set.Quizzes), len(outline.Modules))
	}
	for _, quiz := range set.Quizzes {
		if quiz.ModuleIndex < 0 || quiz.ModuleIndex >= len(outline.Modules) {
			t.Fatalf("quiz references module %d out of range", quiz.ModuleIndex)
		}
		if len(quiz.Questions) == 0 {
			t.Fatalf("quiz %q has no questions", quiz.Title)
		}
		for _, q := range quiz.Questions {
			correct := 0
			for _, opt := range q.Options {
				if opt.Correct {
					correct++
				}
			}
			if correct != 1 {
				t.Fatalf("question %q has %d correct options, want 1", q.Text, correct)
			}
		}
	}
}

func TestStubGeneratorHonorsCancellation(t *testing.T) {
	gen := generator.NewStubGenerator(testutil.Logger(t), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gen.GenerateOutline(ctx, generator.CourseInfo{Title: "X"}); err == nil {
		t.Fatalf("expected error from canceled context")
	}
}
