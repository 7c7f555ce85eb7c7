package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CourseStatusPublished = "published"
)

// Course is the published product materialized from a CourseDraft.
type Course struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LeadInstructorID uuid.UUID `gorm:"type:uuid;not null;index;column:lead_instructor_id" json:"lead_instructor_id"`
	LeadInstructor   *User     `gorm:"foreignKey:LeadInstructorID;references:ID" json:"lead_instructor,omitempty"`
	SourceDraftID    *uuid.UUID `gorm:"type:uuid;index;column:source_draft_id" json:"source_draft_id,omitempty"`

	Title           string         `gorm:"column:title;not null" json:"title"`
	Description     string         `gorm:"column:description;type:text" json:"description"`
	Objectives      datatypes.JSON `gorm:"column:objectives;type:jsonb" json:"objectives"`
	TargetAudience  datatypes.JSON `gorm:"column:target_audience;type:jsonb" json:"target_audience"`
	Level           string         `gorm:"column:level;not null;default:'all_levels'" json:"level"`
	DurationMinutes int            `gorm:"column:duration_minutes;not null;default:0" json:"duration_minutes"`
	Price           float64        `gorm:"column:price;not null;default:0" json:"price"`
	Status          string         `gorm:"column:status;not null;index" json:"status"`

	Modules []*CourseModule `gorm:"foreignKey:CourseID;references:ID" json:"modules,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

type CourseModule struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`

	Order       int    `gorm:"column:order_index;not null" json:"order"`
	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`

	Lessons []*Lesson `gorm:"foreignKey:ModuleID;references:ID" json:"lessons,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseModule) TableName() string { return "course_module" }

type Lesson struct {
	ID       uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID uuid.UUID     `gorm:"type:uuid;not null;index" json:"module_id"`
	Module   *CourseModule `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`

	Order           int            `gorm:"column:order_index;not null" json:"order"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	Kind            string         `gorm:"column:kind;not null;default:'reading'" json:"kind"`
	ContentHTML     string         `gorm:"column:content_html;type:text" json:"content_html"`
	DurationMinutes int            `gorm:"column:duration_minutes;not null;default:0" json:"duration_minutes"`
	Objectives      datatypes.JSON `gorm:"column:objectives;type:jsonb" json:"objectives"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

type Assessment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID uuid.UUID `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson   *Lesson   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`

	Title string `gorm:"column:title;not null" json:"title"`

	Questions []*Question `gorm:"foreignKey:AssessmentID;references:ID" json:"questions,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Assessment) TableName() string { return "assessment" }

type Question struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID uuid.UUID   `gorm:"type:uuid;not null;index" json:"assessment_id"`
	Assessment   *Assessment `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssessmentID;references:ID" json:"assessment,omitempty"`

	Order   int            `gorm:"column:order_index;not null" json:"order"`
	Text    string         `gorm:"column:text;not null" json:"text"`
	Options datatypes.JSON `gorm:"column:options;type:jsonb" json:"options"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Question) TableName() string { return "question" }
