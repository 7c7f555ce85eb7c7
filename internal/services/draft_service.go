package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// UpdateDraftInput carries merge-style edits; nil fields are untouched.
type UpdateDraftInput struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Objectives      *[]string `json:"objectives"`
	TargetAudience  *[]string `json:"target_audience"`
	Level           *string   `json:"level"`
	DurationMinutes *int      `json:"duration_minutes"`
	Price           *float64  `json:"price"`
}

type TaskProgress struct {
	Stage   string `json:"stage,omitempty"`
	Current int    `json:"current"`
	Message string `json:"message,omitempty"`
}

// TaskStatusView is the poll payload for one generation task handle.
type TaskStatusView struct {
	TaskID   string          `json:"taskId"`
	Status   string          `json:"status"`
	State    string          `json:"state"`
	Progress *TaskProgress   `json:"progress,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

const (
	TaskStatusPending = "pending"
	TaskStatusSuccess = "success"
	TaskStatusError   = "error"
)

type DraftService interface {
	Initialize(dbc dbctx.Context) (*types.CourseDraft, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.CourseDraft, error)
	List(dbc dbctx.Context) ([]*types.CourseDraft, error)
	Update(dbc dbctx.Context, id uuid.UUID, in UpdateDraftInput) (*types.CourseDraft, error)

	RequestOutline(dbc dbctx.Context, id uuid.UUID, courseInfo map[string]interface{}) (*types.JobRun, error)
	RequestModule(dbc dbctx.Context, id uuid.UUID, moduleIndex *int) (*types.JobRun, error)
	RequestLesson(dbc dbctx.Context, id uuid.UUID, moduleIndex, lessonIndex *int) (*types.JobRun, error)
	RequestAssessments(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error)

	TaskStatus(dbc dbctx.Context, id uuid.UUID, taskID string) (*TaskStatusView, error)
	Finalize(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
}

type draftService struct {
	db      *gorm.DB
	log     *logger.Logger
	drafts  repos.DraftRepo
	courses repos.CourseRepo
	jobRows repos.JobRunRepo
	jobs    JobService
}

func NewDraftService(db *gorm.DB, baseLog *logger.Logger, drafts repos.DraftRepo, courses repos.CourseRepo, jobRows repos.JobRunRepo, jobs JobService) DraftService {
	return &draftService{
		db:      db,
		log:     baseLog.With("service", "DraftService"),
		drafts:  drafts,
		courses: courses,
		jobRows: jobRows,
		jobs:    jobs,
	}
}

func (s *draftService) Initialize(dbc dbctx.Context) (*types.CourseDraft, error) {
	userID := ctxutil.RequestUserID(dbc.Ctx)
	if userID == uuid.Nil {
		return nil, apierr.New(401, "unauthenticated", fmt.Errorf("authentication required"))
	}
	draft := &types.CourseDraft{
		ID:          uuid.New(),
		OwnerUserID: userID,
		Status:      types.DraftStatusDraft,
		Level:       types.LevelAllLevels,
	}
	if _, err := s.drafts.Create(dbc, []*types.CourseDraft{draft}); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	s.log.Info("Draft initialized", "draft_id", draft.ID, "owner_user_id", userID)
	return draft, nil
}

func (s *draftService) Get(dbc dbctx.Context, id uuid.UUID) (*types.CourseDraft, error) {
	return s.getOwned(dbc, id)
}

func (s *draftService) List(dbc dbctx.Context) ([]*types.CourseDraft, error) {
	userID := ctxutil.RequestUserID(dbc.Ctx)
	if userID == uuid.Nil {
		return nil, apierr.New(401, "unauthenticated", fmt.Errorf("authentication required"))
	}
	return s.drafts.GetByOwner(dbc, userID)
}

func (s *draftService) Update(dbc dbctx.Context, id uuid.UUID, in UpdateDraftInput) (*types.CourseDraft, error) {
	draft, err := s.getOwned(dbc, id)
	if err != nil {
		return nil, err
	}
	if draft.Status == types.DraftStatusPublished {
		return nil, apierr.Conflict("draft_published", fmt.Errorf("published drafts cannot be edited"))
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Objectives != nil {
		updates["objectives"] = types.MustJSON(*in.Objectives)
	}
	if in.TargetAudience != nil {
		updates["target_audience"] = types.MustJSON(*in.TargetAudience)
	}
	if in.Level != nil {
		if !validLevel(*in.Level) {
			return nil, apierr.BadRequest("invalid_level", fmt.Errorf("level must be one of beginner, intermediate, advanced, all_levels"))
		}
		updates["level"] = *in.Level
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes < 0 {
			return nil, apierr.BadRequest("invalid_duration", fmt.Errorf("duration_minutes must not be negative"))
		}
		updates["duration_minutes"] = *in.DurationMinutes
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, apierr.BadRequest("invalid_price", fmt.Errorf("price must not be negative"))
		}
		updates["price"] = *in.Price
	}
	if len(updates) == 0 {
		return draft, nil
	}
	if err := s.drafts.UpdateFields(dbc, draft.ID, updates); err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return s.drafts.GetByID(dbc, draft.ID)
}

func validLevel(level string) bool {
	switch level {
	case types.LevelBeginner, types.LevelIntermediate, types.LevelAdvanced, types.LevelAllLevels:
		return true
	}
	return false
}

func (s *draftService) RequestOutline(dbc dbctx.Context, id uuid.UUID, courseInfo map[string]interface{}) (*types.JobRun, error) {
	return s.enqueueGeneration(dbc, id, types.JobTypeOutlineGenerate,
		func(draft *types.CourseDraft) (map[string]interface{}, error) {
			payload := map[string]interface{}{"draft_id": draft.ID.String()}
			if len(courseInfo) > 0 {
				payload["course_info"] = courseInfo
			}
			return payload, nil
		},
		func(meta *types.GenerationMeta, taskID string) {
			meta.OutlineTaskID = taskID
		})
}

func (s *draftService) RequestModule(dbc dbctx.Context, id uuid.UUID, moduleIndex *int) (*types.JobRun, error) {
	if moduleIndex == nil {
		return nil, apierr.BadRequest("invalid_module_index", fmt.Errorf("module index is required and must be an integer"))
	}
	idx := *moduleIndex
	return s.enqueueGeneration(dbc, id, types.JobTypeModuleGenerate,
		func(draft *types.CourseDraft) (map[string]interface{}, error) {
			outline, err := draft.DecodeOutline()
			if err != nil {
				return nil, fmt.Errorf("decode outline: %w", err)
			}
			if outline == nil {
				return nil, apierr.BadRequest("no_outline", fmt.Errorf("draft has no outline yet"))
			}
			if idx < 0 || idx >= len(outline.Modules) {
				return nil, apierr.BadRequest("invalid_module_index", fmt.Errorf("module index out of range"))
			}
			return map[string]interface{}{
				"draft_id":     draft.ID.String(),
				"module_index": idx,
			}, nil
		},
		func(meta *types.GenerationMeta, taskID string) {
			if meta.ModuleTasks == nil {
				meta.ModuleTasks = map[string]string{}
			}
			meta.ModuleTasks[strconv.Itoa(idx)] = taskID
		})
}

func (s *draftService) RequestLesson(dbc dbctx.Context, id uuid.UUID, moduleIndex, lessonIndex *int) (*types.JobRun, error) {
	if moduleIndex == nil || lessonIndex == nil {
		return nil, apierr.BadRequest("invalid_lesson_index", fmt.Errorf("invalid module or lesson index"))
	}
	mIdx, lIdx := *moduleIndex, *lessonIndex
	return s.enqueueGeneration(dbc, id, types.JobTypeLessonGenerate,
		func(draft *types.CourseDraft) (map[string]interface{}, error) {
			outline, err := draft.DecodeOutline()
			if err != nil {
				return nil, fmt.Errorf("decode outline: %w", err)
			}
			if outline == nil || mIdx < 0 || mIdx >= len(outline.Modules) {
				return nil, apierr.BadRequest("invalid_lesson_index", fmt.Errorf("invalid module or lesson index"))
			}
			if lIdx < 0 || lIdx >= len(outline.Modules[mIdx].Lessons) {
				return nil, apierr.BadRequest("invalid_lesson_index", fmt.Errorf("invalid module or lesson index"))
			}
			return map[string]interface{}{
				"draft_id":     draft.ID.String(),
				"module_index": mIdx,
				"lesson_index": lIdx,
			}, nil
		},
		func(meta *types.GenerationMeta, taskID string) {
			if meta.LessonTasks == nil {
				meta.LessonTasks = map[string]string{}
			}
			meta.LessonTasks[types.LessonKey(mIdx, lIdx)] = taskID
		})
}

func (s *draftService) RequestAssessments(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error) {
	return s.enqueueGeneration(dbc, id, types.JobTypeAssessmentsGenerate,
		func(draft *types.CourseDraft) (map[string]interface{}, error) {
			var missing []string
			if !draft.HasOutline {
				missing = append(missing, "outline")
			}
			if !draft.HasModules {
				missing = append(missing, "modules")
			}
			if !draft.HasLessons {
				missing = append(missing, "lessons")
			}
			if len(missing) > 0 {
				return nil, apierr.WithDetails(400, "draft_incomplete",
					fmt.Errorf("outline, modules and lessons must be generated before assessments"),
					map[string]interface{}{"missing": missing})
			}
			return map[string]interface{}{"draft_id": draft.ID.String()}, nil
		},
		func(meta *types.GenerationMeta, taskID string) {
			meta.AssessmentsTaskID = taskID
		})
}

// enqueueGeneration runs ownership checks, per-kind validation, job row
// creation and handle recording in one transaction, then starts the
// workflow after commit so the worker can never observe an uncommitted row.
func (s *draftService) enqueueGeneration(
	dbc dbctx.Context,
	id uuid.UUID,
	jobType string,
	buildPayload func(*types.CourseDraft) (map[string]interface{}, error),
	record func(meta *types.GenerationMeta, taskID string),
) (*types.JobRun, error) {
	var job *types.JobRun
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		draft, err := s.getOwned(txc, id)
		if err != nil {
			return err
		}
		if draft.Status == types.DraftStatusPublished {
			return apierr.Conflict("draft_published", fmt.Errorf("published drafts cannot be regenerated"))
		}
		payload, err := buildPayload(draft)
		if err != nil {
			return err
		}
		job, err = s.jobs.Enqueue(txc, draft.OwnerUserID, jobType, types.EntityTypeCourseDraft, draft.ID, payload)
		if err != nil {
			return err
		}
		return s.drafts.MergeGenerationMeta(txc, draft.ID, func(meta *types.GenerationMeta) {
			record(meta, job.ID.String())
		})
	})
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Dispatch(dbctx.Context{Ctx: dbc.Ctx}, job.ID); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *draftService) TaskStatus(dbc dbctx.Context, id uuid.UUID, taskID string) (*TaskStatusView, error) {
	draft, err := s.getOwned(dbc, id)
	if err != nil {
		return nil, err
	}
	meta, err := draft.DecodeGenerationMeta()
	if err != nil {
		return nil, fmt.Errorf("decode generation metadata: %w", err)
	}
	if len(meta.TaskIDs()) == 0 {
		return nil, apierr.NotFound("no_tasks", fmt.Errorf("no generation tasks have been started for this draft"))
	}
	taskID = strings.TrimSpace(taskID)
	if !meta.HasTask(taskID) {
		return nil, apierr.Forbidden("task_not_associated", fmt.Errorf("task ID is not associated with this draft"))
	}
	jobID, err := uuid.Parse(taskID)
	if err != nil {
		return nil, apierr.NotFound("task_not_found", fmt.Errorf("task not found"))
	}
	job, err := s.jobRows.GetByID(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apierr.NotFound("task_not_found", fmt.Errorf("task not found"))
	}

	view := &TaskStatusView{TaskID: taskID, State: job.Status}
	switch job.Status {
	case types.JobStatusSucceeded:
		view.Status = TaskStatusSuccess
		if len(job.Result) > 0 {
			view.Result = json.RawMessage(job.Result)
		}
	case types.JobStatusFailed, types.JobStatusCanceled:
		view.Status = TaskStatusError
		view.Error = job.Error
		if view.Error == "" {
			view.Error = "task failed"
		}
	default:
		view.Status = TaskStatusPending
		view.Progress = &TaskProgress{
			Stage:   job.Stage,
			Current: job.Progress,
			Message: job.Message,
		}
	}
	return view, nil
}

func (s *draftService) Finalize(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	var course *types.Course
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		draft, err := s.getOwned(txc, id)
		if err != nil {
			return err
		}
		if draft.Status == types.DraftStatusPublished {
			return apierr.Conflict("draft_published", fmt.Errorf("draft has already been published"))
		}

		var missing []string
		if strings.TrimSpace(draft.Title) == "" {
			missing = append(missing, "title")
		}
		if strings.TrimSpace(draft.Description) == "" {
			missing = append(missing, "description")
		}
		if !draft.HasOutline {
			missing = append(missing, "outline")
		}
		if !draft.HasModules {
			missing = append(missing, "modules")
		}
		if !draft.HasLessons {
			missing = append(missing, "lessons")
		}
		if len(missing) > 0 {
			return apierr.WithDetails(400, "draft_incomplete",
				fmt.Errorf("draft is missing required components"),
				map[string]interface{}{"missing": missing})
		}

		outline, err := draft.DecodeOutline()
		if err != nil {
			return fmt.Errorf("decode outline: %w", err)
		}
		if outline == nil || len(outline.Modules) == 0 {
			return apierr.WithDetails(400, "draft_incomplete",
				fmt.Errorf("draft outline is empty"),
				map[string]interface{}{"missing": []string{"outline"}})
		}
		content, err := draft.DecodeContent()
		if err != nil {
			return fmt.Errorf("decode content: %w", err)
		}
		assessments, err := draft.DecodeAssessments()
		if err != nil {
			return fmt.Errorf("decode assessments: %w", err)
		}

		course, err = s.materialize(txc, draft, outline, content, assessments)
		if err != nil {
			return err
		}
		return s.drafts.UpdateFields(txc, draft.ID, map[string]interface{}{
			"status": types.DraftStatusPublished,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Draft finalized", "draft_id", id, "course_id", course.ID)
	return course, nil
}

// materialize writes the published course tree. Per-module and per-lesson
// content falls back to the outline skeleton when enrichment is missing so
// a partially generated draft still publishes every outlined row.
func (s *draftService) materialize(
	dbc dbctx.Context,
	draft *types.CourseDraft,
	outline *types.Outline,
	content *types.DraftContent,
	assessments *types.AssessmentSet,
) (*types.Course, error) {
	course := &types.Course{
		ID:               uuid.New(),
		LeadInstructorID: draft.OwnerUserID,
		SourceDraftID:    &draft.ID,
		Title:            draft.Title,
		Description:      draft.Description,
		Objectives:       draft.Objectives,
		TargetAudience:   draft.TargetAudience,
		Level:            draft.Level,
		DurationMinutes:  draft.DurationMinutes,
		Price:            draft.Price,
		Status:           types.CourseStatusPublished,
	}
	if course.Level == "" {
		course.Level = types.LevelAllLevels
	}
	if _, err := s.courses.Create(dbc, []*types.Course{course}); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	lessonsByModule := make(map[int][]*types.Lesson, len(outline.Modules))
	for mIdx, om := range outline.Modules {
		title, description := om.Title, om.Description
		if mc, ok := content.Modules[strconv.Itoa(mIdx)]; ok {
			if mc.Title != "" {
				title = mc.Title
			}
			if mc.Description != "" {
				description = mc.Description
			}
		}
		module := &types.CourseModule{
			ID:          uuid.New(),
			CourseID:    course.ID,
			Order:       mIdx + 1,
			Title:       title,
			Description: description,
		}
		if _, err := s.courses.CreateModules(dbc, []*types.CourseModule{module}); err != nil {
			return nil, fmt.Errorf("create module %d: %w", mIdx, err)
		}

		lessons := make([]*types.Lesson, 0, len(om.Lessons))
		for lIdx, stub := range om.Lessons {
			lesson := &types.Lesson{
				ID:       uuid.New(),
				ModuleID: module.ID,
				Order:    lIdx + 1,
				Title:    stub.Title,
				Kind:     stub.Type,
			}
			if lesson.Kind == "" {
				lesson.Kind = "reading"
			}
			if lc, ok := content.Lessons[types.LessonKey(mIdx, lIdx)]; ok {
				lesson.ContentHTML = lc.ContentHTML
				lesson.DurationMinutes = lc.DurationMinutes
				if len(lc.Objectives) > 0 {
					lesson.Objectives = types.MustJSON(lc.Objectives)
				}
			}
			lessons = append(lessons, lesson)
		}
		if _, err := s.courses.CreateLessons(dbc, lessons); err != nil {
			return nil, fmt.Errorf("create lessons for module %d: %w", mIdx, err)
		}
		lessonsByModule[mIdx] = lessons
	}

	if assessments != nil {
		for _, quiz := range assessments.Quizzes {
			for _, lesson := range lessonsByModule[quiz.ModuleIndex] {
				assessment := &types.Assessment{
					ID:       uuid.New(),
					LessonID: lesson.ID,
					Title:    quiz.Title,
				}
				if _, err := s.courses.CreateAssessments(dbc, []*types.Assessment{assessment}); err != nil {
					return nil, fmt.Errorf("create assessment: %w", err)
				}
				questions := make([]*types.Question, 0, len(quiz.Questions))
				for qIdx, q := range quiz.Questions {
					questions = append(questions, &types.Question{
						ID:           uuid.New(),
						AssessmentID: assessment.ID,
						Order:        qIdx + 1,
						Text:         q.Text,
						Options:      types.MustJSON(q.Options),
					})
				}
				if _, err := s.courses.CreateQuestions(dbc, questions); err != nil {
					return nil, fmt.Errorf("create questions: %w", err)
				}
			}
		}
	}
	return course, nil
}

func (s *draftService) getOwned(dbc dbctx.Context, id uuid.UUID) (*types.CourseDraft, error) {
	userID := ctxutil.RequestUserID(dbc.Ctx)
	if userID == uuid.Nil {
		return nil, apierr.New(401, "unauthenticated", fmt.Errorf("authentication required"))
	}
	draft, err := s.drafts.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, apierr.NotFound("draft_not_found", fmt.Errorf("draft not found"))
	}
	if draft.OwnerUserID != userID {
		return nil, apierr.Forbidden("not_owner", fmt.Errorf("you do not have permission to access this draft"))
	}
	return draft, nil
}
