package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

type DraftHandler struct {
	log    *logger.Logger
	drafts services.DraftService
}

func NewDraftHandler(baseLog *logger.Logger, drafts services.DraftService) *DraftHandler {
	return &DraftHandler{log: baseLog.With("handler", "DraftHandler"), drafts: drafts}
}

func (h *DraftHandler) Initialize(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	draft, err := h.drafts.Initialize(dbc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Draft initialized",
		"draftId": draft.ID,
		"data":    draft,
	})
}

func (h *DraftHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	drafts, err := h.drafts.List(dbc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, gin.H{"drafts": drafts})
}

func (h *DraftHandler) Get(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	draft, err := h.drafts.Get(dbc, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, draft)
}

func (h *DraftHandler) Update(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	var in services.UpdateDraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	draft, err := h.drafts.Update(dbc, id, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, draft)
}

func (h *DraftHandler) GenerateOutline(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	var body struct {
		CourseInfo map[string]interface{} `json:"course_info"`
	}
	// Body is optional; outline generation falls back to the stored draft
	// fields when no course_info is supplied.
	_ = c.ShouldBindJSON(&body)

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.drafts.RequestOutline(dbc, id, body.CourseInfo)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.respondQueued(c, id, job)
}

func (h *DraftHandler) GenerateModule(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	var body struct {
		ModuleIndex *int `json:"module_index"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_module_index", fmt.Errorf("module index is required and must be an integer"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.drafts.RequestModule(dbc, id, body.ModuleIndex)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.respondQueued(c, id, job)
}

func (h *DraftHandler) GenerateLesson(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	var body struct {
		ModuleIndex *int `json:"module_index"`
		LessonIndex *int `json:"lesson_index"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lesson_index", fmt.Errorf("invalid module or lesson index"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.drafts.RequestLesson(dbc, id, body.ModuleIndex, body.LessonIndex)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.respondQueued(c, id, job)
}

func (h *DraftHandler) GenerateAssessments(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	job, err := h.drafts.RequestAssessments(dbc, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.respondQueued(c, id, job)
}

func (h *DraftHandler) TaskStatus(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	taskID := c.Param("taskID")
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	view, err := h.drafts.TaskStatus(dbc, id, taskID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	// A failed task reports through the status code too, so naive pollers
	// that only check HTTP status stop retrying.
	status := http.StatusOK
	if view.Status == services.TaskStatusError {
		status = http.StatusInternalServerError
	}
	response.RespondOK(c, status, view)
}

func (h *DraftHandler) Finalize(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	course, err := h.drafts.Finalize(dbc, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, http.StatusOK, gin.H{
		"status":   "success",
		"courseId": course.ID,
		"course":   course,
	})
}

func (h *DraftHandler) respondQueued(c *gin.Context, draftID uuid.UUID, job *types.JobRun) {
	taskID := job.ID.String()
	response.RespondOK(c, http.StatusAccepted, gin.H{
		"status":  "pending",
		"taskId":  taskID,
		"pollUrl": fmt.Sprintf("/api/drafts/%s/task-status/%s", draftID, taskID),
	})
}

func draftID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid draft id"))
		return uuid.Nil, false
	}
	return id, true
}
