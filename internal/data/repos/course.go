package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type CourseRepo interface {
	Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error)
	CreateModules(dbc dbctx.Context, modules []*types.CourseModule) ([]*types.CourseModule, error)
	CreateLessons(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error)
	CreateAssessments(dbc dbctx.Context, assessments []*types.Assessment) ([]*types.Assessment, error)
	CreateQuestions(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	GetTreeByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *courseRepo) Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error) {
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	if err := r.conn(dbc).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) CreateModules(dbc dbctx.Context, modules []*types.CourseModule) ([]*types.CourseModule, error) {
	if len(modules) == 0 {
		return []*types.CourseModule{}, nil
	}
	if err := r.conn(dbc).Create(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *courseRepo) CreateLessons(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error) {
	if len(lessons) == 0 {
		return []*types.Lesson{}, nil
	}
	if err := r.conn(dbc).Create(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *courseRepo) CreateAssessments(dbc dbctx.Context, assessments []*types.Assessment) ([]*types.Assessment, error) {
	if len(assessments) == 0 {
		return []*types.Assessment{}, nil
	}
	if err := r.conn(dbc).Create(&assessments).Error; err != nil {
		return nil, err
	}
	return assessments, nil
}

func (r *courseRepo) CreateQuestions(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error) {
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	if err := r.conn(dbc).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var course types.Course
	err := r.conn(dbc).Where("id = ?", id).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetTreeByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var course types.Course
	err := r.conn(dbc).
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		Where("id = ?", id).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}
