package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedDraft(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) *types.CourseDraft {
	tb.Helper()
	d := &types.CourseDraft{
		ID:                 uuid.New(),
		OwnerUserID:        ownerID,
		Status:             types.DraftStatusDraft,
		Level:              types.LevelAllLevels,
		Objectives:         datatypes.JSON([]byte(`[]`)),
		TargetAudience:     datatypes.JSON([]byte(`[]`)),
		GenerationMetadata: datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed draft: %v", err)
	}
	return d
}

// SeedOutline gives a draft an outline with the requested module/lesson
// counts and marks has_outline.
func SeedOutline(tb testing.TB, ctx context.Context, tx *gorm.DB, draftID uuid.UUID, modules, lessonsPer int) *types.Outline {
	tb.Helper()
	outline := CannedOutline(modules, lessonsPer)
	err := tx.WithContext(ctx).Model(&types.CourseDraft{}).
		Where("id = ?", draftID).
		Updates(map[string]interface{}{
			"outline":     types.MustJSON(outline),
			"has_outline": true,
		}).Error
	if err != nil {
		tb.Fatalf("seed outline: %v", err)
	}
	return outline
}

func CannedOutline(modules, lessonsPer int) *types.Outline {
	o := &types.Outline{}
	for m := 0; m < modules; m++ {
		mod := types.OutlineModule{
			Title:       "Module",
			Description: "About the module",
		}
		for l := 0; l < lessonsPer; l++ {
			mod.Lessons = append(mod.Lessons, types.LessonStub{Title: "Lesson", Type: "video"})
		}
		o.Modules = append(o.Modules, mod)
	}
	return o
}

func SeedJobRun(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, jobType string, entityID uuid.UUID) *types.JobRun {
	tb.Helper()
	j := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		JobType:     jobType,
		EntityType:  types.EntityTypeCourseDraft,
		EntityID:    &entityID,
		Status:      types.JobStatusQueued,
		Stage:       "queued",
		Message:     "Queued",
		Payload:     datatypes.JSON([]byte(`{}`)),
		Result:      datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job run: %v", err)
	}
	return j
}

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }
