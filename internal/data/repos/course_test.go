package repos_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
)

func TestCourseRepoTreeOrdering(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := repos.NewCourseRepo(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	owner := testutil.SeedUser(t, ctx, tx, "course-tree@example.com")
	course := &types.Course{
		ID:               uuid.New(),
		LeadInstructorID: owner.ID,
		Title:            "Gardening 101",
		Level:            types.LevelAllLevels,
		Status:           types.CourseStatusPublished,
	}
	if _, err := repo.Create(dbc, []*types.Course{course}); err != nil {
		t.Fatalf("create course: %v", err)
	}

	// Insert modules out of order to prove the preload sorts.
	var modules []*types.CourseModule
	for _, order := range []int{2, 1} {
		m := &types.CourseModule{
			ID:       uuid.New(),
			CourseID: course.ID,
			Order:    order,
			Title:    "Module",
		}
		modules = append(modules, m)
	}
	if _, err := repo.CreateModules(dbc, modules); err != nil {
		t.Fatalf("create modules: %v", err)
	}
	var lessons []*types.Lesson
	for _, m := range modules {
		for _, order := range []int{2, 1} {
			lessons = append(lessons, &types.Lesson{
				ID:       uuid.New(),
				ModuleID: m.ID,
				Order:    order,
				Title:    "Lesson",
				Kind:     "video",
			})
		}
	}
	if _, err := repo.CreateLessons(dbc, lessons); err != nil {
		t.Fatalf("create lessons: %v", err)
	}

	tree, err := repo.GetTreeByID(dbc, course.ID)
	if err != nil {
		t.Fatalf("GetTreeByID: %v", err)
	}
	if tree == nil {
		t.Fatalf("course tree not found")
	}
	if len(tree.Modules) != 2 {
		t.Fatalf("modules = %d, want 2", len(tree.Modules))
	}
	for i, m := range tree.Modules {
		if m.Order != i+1 {
			t.Fatalf("module %d has order %d; preload must sort by order_index", i, m.Order)
		}
		if len(m.Lessons) != 2 {
			t.Fatalf("module %d lessons = %d, want 2", i, len(m.Lessons))
		}
		for j, l := range m.Lessons {
			if l.Order != j+1 {
				t.Fatalf("lesson %d.%d has order %d", i, j, l.Order)
			}
		}
	}
}

func TestCourseRepoAssessmentsRoundTrip(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := repos.NewCourseRepo(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	owner := testutil.SeedUser(t, ctx, tx, "course-assess@example.com")
	course := &types.Course{
		ID:               uuid.New(),
		LeadInstructorID: owner.ID,
		Title:            "Quizzing",
		Level:            types.LevelBeginner,
		Status:           types.CourseStatusPublished,
	}
	if _, err := repo.Create(dbc, []*types.Course{course}); err != nil {
		t.Fatalf("create course: %v", err)
	}
	module := &types.CourseModule{ID: uuid.New(), CourseID: course.ID, Order: 1, Title: "M"}
	if _, err := repo.CreateModules(dbc, []*types.CourseModule{module}); err != nil {
		t.Fatalf("create module: %v", err)
	}
	lesson := &types.Lesson{ID: uuid.New(), ModuleID: module.ID, Order: 1, Title: "L", Kind: "reading"}
	if _, err := repo.CreateLessons(dbc, []*types.Lesson{lesson}); err != nil {
		t.Fatalf("create lesson: %v", err)
	}

	assessment := &types.Assessment{ID: uuid.New(), LessonID: lesson.ID, Title: "Checkpoint"}
	if _, err := repo.CreateAssessments(dbc, []*types.Assessment{assessment}); err != nil {
		t.Fatalf("create assessment: %v", err)
	}
	questions := []*types.Question{
		{ID: uuid.New(), AssessmentID: assessment.ID, Order: 1, Text: "Q1", Options: types.MustJSON([]types.QuizOption{{Text: "A", Correct: true}})},
		{ID: uuid.New(), AssessmentID: assessment.ID, Order: 2, Text: "Q2", Options: types.MustJSON([]types.QuizOption{{Text: "B"}})},
	}
	if _, err := repo.CreateQuestions(dbc, questions); err != nil {
		t.Fatalf("create questions: %v", err)
	}

	var count int64
	if err := tx.WithContext(ctx).Model(&types.Question{}).
		Where("assessment_id = ?", assessment.ID).Count(&count).Error; err != nil {
		t.Fatalf("count questions: %v", err)
	}
	if count != 2 {
		t.Fatalf("questions = %d, want 2", count)
	}
}
