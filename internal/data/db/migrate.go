package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Identity
		&types.User{},

		// Drafting
		&types.CourseDraft{},

		// Published course tree
		&types.Course{},
		&types.CourseModule{},
		&types.Lesson{},
		&types.Assessment{},
		&types.Question{},

		// Async jobs
		&types.JobRun{},
	)
}
