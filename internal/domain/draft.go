package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Draft lifecycle. Forward-only; published is terminal.
const (
	DraftStatusDraft     = "draft"
	DraftStatusReady     = "ready"
	DraftStatusPublished = "published"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelAllLevels    = "all_levels"
)

// CourseDraft is the working record of an AI-assisted course build. The
// generated sections live in JSON columns that stay empty until the
// corresponding generation job writes them; the has_* flags flip once and
// are never reset.
type CourseDraft struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Owner       *User     `gorm:"foreignKey:OwnerUserID;references:ID" json:"owner,omitempty"`

	Status string `gorm:"column:status;not null;default:'draft';index" json:"status"`

	Title           string         `gorm:"column:title" json:"title"`
	Description     string         `gorm:"column:description;type:text" json:"description"`
	Objectives      datatypes.JSON `gorm:"column:objectives;type:jsonb" json:"objectives"`
	TargetAudience  datatypes.JSON `gorm:"column:target_audience;type:jsonb" json:"target_audience"`
	Level           string         `gorm:"column:level;default:'all_levels'" json:"level"`
	DurationMinutes int            `gorm:"column:duration_minutes" json:"duration_minutes"`
	Price           float64        `gorm:"column:price" json:"price"`

	Outline            datatypes.JSON `gorm:"column:outline;type:jsonb" json:"outline"`
	Content            datatypes.JSON `gorm:"column:content;type:jsonb" json:"content"`
	Assessments        datatypes.JSON `gorm:"column:assessments;type:jsonb" json:"assessments"`
	GenerationMetadata datatypes.JSON `gorm:"column:generation_metadata;type:jsonb" json:"generation_metadata"`

	HasOutline     bool `gorm:"column:has_outline;not null;default:false" json:"has_outline"`
	HasModules     bool `gorm:"column:has_modules;not null;default:false" json:"has_modules"`
	HasLessons     bool `gorm:"column:has_lessons;not null;default:false" json:"has_lessons"`
	HasAssessments bool `gorm:"column:has_assessments;not null;default:false" json:"has_assessments"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseDraft) TableName() string { return "course_draft" }

// Outline is the module/lesson skeleton produced by outline generation.
type Outline struct {
	Modules []OutlineModule `json:"modules"`
}

type OutlineModule struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Lessons     []LessonStub `json:"lessons"`
}

type LessonStub struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// DraftContent holds enriched module data keyed by module index and lesson
// bodies keyed by "<module>-<lesson>".
type DraftContent struct {
	Modules map[string]ModuleContent `json:"modules,omitempty"`
	Lessons map[string]LessonContent `json:"lessons,omitempty"`
}

type ModuleContent struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	LearningObjectives []string `json:"learning_objectives,omitempty"`
}

type LessonContent struct {
	ContentHTML     string   `json:"content"`
	DurationMinutes int      `json:"duration_minutes"`
	Objectives      []string `json:"objectives,omitempty"`
}

type AssessmentSet struct {
	Quizzes []Quiz `json:"quizzes"`
}

type Quiz struct {
	ModuleIndex int            `json:"moduleIndex"`
	Title       string         `json:"title"`
	Questions   []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	Text    string       `json:"text"`
	Options []QuizOption `json:"options"`
}

type QuizOption struct {
	Text    string `json:"text"`
	Correct bool   `json:"is_correct"`
}

// GenerationMeta records the job handle issued per generation kind. The
// recorded handles are the only authorization path for task-status polls.
type GenerationMeta struct {
	OutlineTaskID     string               `json:"outline_task_id,omitempty"`
	ModuleTasks       map[string]string    `json:"module_tasks,omitempty"`
	LessonTasks       map[string]string    `json:"lesson_tasks,omitempty"`
	AssessmentsTaskID string               `json:"assessments_task_id,omitempty"`
	TaskErrors        map[string]TaskError `json:"task_errors,omitempty"`
}

type TaskError struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Traceback string    `json:"traceback,omitempty"`
}

// TaskIDs flattens every recorded handle; order is not significant.
func (m *GenerationMeta) TaskIDs() []string {
	if m == nil {
		return nil
	}
	var out []string
	if m.OutlineTaskID != "" {
		out = append(out, m.OutlineTaskID)
	}
	for _, id := range m.ModuleTasks {
		if id != "" {
			out = append(out, id)
		}
	}
	for _, id := range m.LessonTasks {
		if id != "" {
			out = append(out, id)
		}
	}
	if m.AssessmentsTaskID != "" {
		out = append(out, m.AssessmentsTaskID)
	}
	return out
}

func (m *GenerationMeta) HasTask(taskID string) bool {
	for _, id := range m.TaskIDs() {
		if id == taskID {
			return true
		}
	}
	return false
}

// LessonKey builds the composite content/task key for a lesson.
func LessonKey(moduleIndex, lessonIndex int) string {
	return fmt.Sprintf("%d-%d", moduleIndex, lessonIndex)
}

func (d *CourseDraft) DecodeOutline() (*Outline, error) {
	if d == nil || isEmptyJSON(d.Outline) {
		return nil, nil
	}
	var o Outline
	if err := json.Unmarshal(d.Outline, &o); err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}
	return &o, nil
}

func (d *CourseDraft) DecodeContent() (*DraftContent, error) {
	if d == nil || isEmptyJSON(d.Content) {
		return &DraftContent{}, nil
	}
	var c DraftContent
	if err := json.Unmarshal(d.Content, &c); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return &c, nil
}

func (d *CourseDraft) DecodeAssessments() (*AssessmentSet, error) {
	if d == nil || isEmptyJSON(d.Assessments) {
		return nil, nil
	}
	var a AssessmentSet
	if err := json.Unmarshal(d.Assessments, &a); err != nil {
		return nil, fmt.Errorf("decode assessments: %w", err)
	}
	return &a, nil
}

func (d *CourseDraft) DecodeGenerationMeta() (*GenerationMeta, error) {
	if d == nil || isEmptyJSON(d.GenerationMetadata) {
		return &GenerationMeta{}, nil
	}
	var m GenerationMeta
	if err := json.Unmarshal(d.GenerationMetadata, &m); err != nil {
		return nil, fmt.Errorf("decode generation metadata: %w", err)
	}
	return &m, nil
}

// StringList decodes a JSON array-of-strings column, tolerating null.
func StringList(raw datatypes.JSON) []string {
	if isEmptyJSON(raw) {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func MustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(b)
}

func isEmptyJSON(raw datatypes.JSON) bool {
	s := string(raw)
	return len(raw) == 0 || s == "null" || s == "{}" || s == ""
}
