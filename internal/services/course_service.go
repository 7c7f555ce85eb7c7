package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type CourseService interface {
	// Get returns the full course tree (modules and lessons in order).
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
}

type courseService struct {
	db      *gorm.DB
	log     *logger.Logger
	courses repos.CourseRepo
}

func NewCourseService(db *gorm.DB, baseLog *logger.Logger, courses repos.CourseRepo) CourseService {
	return &courseService{db: db, log: baseLog.With("service", "CourseService"), courses: courses}
}

func (s *courseService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	course, err := s.courses.GetTreeByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apierr.NotFound("course_not_found", fmt.Errorf("course not found"))
	}
	return course, nil
}
