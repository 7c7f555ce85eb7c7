package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/http/handlers"
	"github.com/yungbote/coursecraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

// fakeDraftService scripts service outcomes so the handler layer can be
// exercised without a database or queue.
type fakeDraftService struct {
	job  *types.JobRun
	view *services.TaskStatusView
	err  error
}

func (f *fakeDraftService) Initialize(dbc dbctx.Context) (*types.CourseDraft, error) {
	return &types.CourseDraft{ID: uuid.New(), Status: types.DraftStatusDraft}, f.err
}
func (f *fakeDraftService) Get(dbc dbctx.Context, id uuid.UUID) (*types.CourseDraft, error) {
	return nil, f.err
}
func (f *fakeDraftService) List(dbc dbctx.Context) ([]*types.CourseDraft, error) {
	return nil, f.err
}
func (f *fakeDraftService) Update(dbc dbctx.Context, id uuid.UUID, in services.UpdateDraftInput) (*types.CourseDraft, error) {
	return nil, f.err
}
func (f *fakeDraftService) RequestOutline(dbc dbctx.Context, id uuid.UUID, courseInfo map[string]interface{}) (*types.JobRun, error) {
	return f.job, f.err
}
func (f *fakeDraftService) RequestModule(dbc dbctx.Context, id uuid.UUID, moduleIndex *int) (*types.JobRun, error) {
	return f.job, f.err
}
func (f *fakeDraftService) RequestLesson(dbc dbctx.Context, id uuid.UUID, moduleIndex, lessonIndex *int) (*types.JobRun, error) {
	return f.job, f.err
}
func (f *fakeDraftService) RequestAssessments(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error) {
	return f.job, f.err
}
func (f *fakeDraftService) TaskStatus(dbc dbctx.Context, id uuid.UUID, taskID string) (*services.TaskStatusView, error) {
	return f.view, f.err
}
func (f *fakeDraftService) Finalize(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	return nil, f.err
}

func newDraftRouter(t *testing.T, svc services.DraftService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := handlers.NewDraftHandler(testutil.Logger(t), svc)
	r := gin.New()
	r.POST("/api/drafts/:id/outline", h.GenerateOutline)
	r.GET("/api/drafts/:id/task-status/:taskID", h.TaskStatus)
	return r
}

func TestGenerateOutlineQueuedResponse(t *testing.T) {
	draftID := uuid.New()
	job := &types.JobRun{ID: uuid.New(), Status: types.JobStatusQueued}
	r := newDraftRouter(t, &fakeDraftService{job: job})

	req := httptest.NewRequest(http.MethodPost, "/api/drafts/"+draftID.String()+"/outline", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body=%s)", w.Code, w.Body.String())
	}
	var body struct {
		TaskID  string `json:"taskId"`
		Status  string `json:"status"`
		PollURL string `json:"pollUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.TaskID != job.ID.String() || body.Status != "pending" {
		t.Fatalf("unexpected body: %+v", body)
	}
	wantPoll := fmt.Sprintf("/api/drafts/%s/task-status/%s", draftID, job.ID)
	if body.PollURL != wantPoll {
		t.Fatalf("poll_url = %q, want %q", body.PollURL, wantPoll)
	}
}

func TestTaskStatusCodeMapping(t *testing.T) {
	draftID := uuid.New()
	taskID := uuid.New().String()

	pending := &fakeDraftService{view: &services.TaskStatusView{
		TaskID: taskID, Status: services.TaskStatusPending, State: types.JobStatusRunning,
		Progress: &services.TaskProgress{Stage: "generate", Current: 30},
	}}
	r := newDraftRouter(t, pending)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drafts/"+draftID.String()+"/task-status/"+taskID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("pending status = %d, want 200", w.Code)
	}

	failed := &fakeDraftService{view: &services.TaskStatusView{
		TaskID: taskID, Status: services.TaskStatusError, State: types.JobStatusFailed, Error: "boom",
	}}
	r = newDraftRouter(t, failed)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drafts/"+draftID.String()+"/task-status/"+taskID, nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("failed status = %d, want 500", w.Code)
	}
}

func TestServiceErrorEnvelope(t *testing.T) {
	draftID := uuid.New()
	svc := &fakeDraftService{err: apierr.Forbidden("task_not_associated", fmt.Errorf("task ID is not associated with this draft"))}
	r := newDraftRouter(t, svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drafts/"+draftID.String()+"/task-status/"+uuid.New().String(), nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "task_not_associated" || body.Error.Message == "" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestInvalidDraftID(t *testing.T) {
	r := newDraftRouter(t, &fakeDraftService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/drafts/not-a-uuid/outline", strings.NewReader(`{}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
