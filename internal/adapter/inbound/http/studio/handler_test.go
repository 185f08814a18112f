package studiohttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/domain/pool"
	"github.com/uniedit/reelgen/internal/domain/studio"
	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/outbound"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(svc *MockStudioService) *gin.Engine {
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHandler_Projects(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		svc := new(MockStudioService)
		project := &model.Project{ID: uuid.New(), Name: "Trailer"}
		svc.On("CreateProject", mock.Anything, "Trailer").Return(project, nil)

		w := doJSON(setupRouter(svc), "POST", "/api/v1/projects", map[string]string{"name": "Trailer"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), project.ID.String())
		svc.AssertExpectations(t)
	})

	t.Run("create without name", func(t *testing.T) {
		svc := new(MockStudioService)

		w := doJSON(setupRouter(svc), "POST", "/api/v1/projects", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "BAD_REQUEST", errorCode(t, w))
		assert.Contains(t, w.Body.String(), `"Name":"required"`)
		svc.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
	})

	t.Run("list uses pagination", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("ListProjects", mock.Anything, 10, 20).Return([]*model.Project{{ID: uuid.New()}}, nil)

		w := doJSON(setupRouter(svc), "GET", "/api/v1/projects?page=3&page_size=10", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"has_more":false`)
		svc.AssertExpectations(t)
	})

	t.Run("get unknown project", func(t *testing.T) {
		svc := new(MockStudioService)
		id := uuid.New()
		svc.On("GetProject", mock.Anything, id).Return(nil, studio.ErrProjectNotFound)

		w := doJSON(setupRouter(svc), "GET", "/api/v1/projects/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, w))
	})

	t.Run("malformed project id", func(t *testing.T) {
		w := doJSON(setupRouter(new(MockStudioService)), "GET", "/api/v1/projects/nope", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("set audio", func(t *testing.T) {
		svc := new(MockStudioService)
		id := uuid.New()
		duration := 30.0
		svc.On("SetAudio", mock.Anything, id, "https://cdn/a.mp3", &duration).
			Return(&model.Project{ID: id, AudioURL: "https://cdn/a.mp3", AudioDuration: &duration}, nil)

		w := doJSON(setupRouter(svc), "PUT", "/api/v1/projects/"+id.String()+"/audio",
			map[string]any{"audio_url": "https://cdn/a.mp3", "duration": 30})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestHandler_Generation(t *testing.T) {
	projectID := uuid.New()
	runID := uuid.New()
	base := "/api/v1/projects/" + projectID.String()

	t.Run("start", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("StartGeneration", mock.Anything, projectID, mock.MatchedBy(func(in *studio.GenerateInput) bool {
			return in.Provider == "openai" && len(in.Prompts) == 2 && in.BatchSize == 5
		})).Return(&studio.RunInfo{ID: runID, ProjectID: projectID, Status: studio.RunStatusRunning}, nil)

		w := doJSON(setupRouter(svc), "POST", base+"/generations", map[string]any{
			"provider":   "openai",
			"prompts":    []string{"a cat", "a dog"},
			"batch_size": 5,
		})

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), runID.String())
		svc.AssertExpectations(t)
	})

	t.Run("start while active", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("StartGeneration", mock.Anything, projectID, mock.Anything).Return(nil, studio.ErrRunActive)

		w := doJSON(setupRouter(svc), "POST", base+"/generations", map[string]any{"prompts": []string{"x"}})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("start with unknown provider", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("StartGeneration", mock.Anything, projectID, mock.Anything).
			Return(nil, fmt.Errorf("%w: nope", studio.ErrProviderNotFound))

		w := doJSON(setupRouter(svc), "POST", base+"/generations", map[string]any{"provider": "nope"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("run of another project is hidden", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("Run", runID).Return(&studio.RunInfo{ID: runID, ProjectID: uuid.New()}, nil)

		w := doJSON(setupRouter(svc), "GET", base+"/runs/"+runID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("stop", func(t *testing.T) {
		svc := new(MockStudioService)
		info := &studio.RunInfo{ID: runID, ProjectID: projectID, Status: studio.RunStatusRunning}
		svc.On("Run", runID).Return(info, nil)
		svc.On("StopRun", runID).Return(info, nil)

		w := doJSON(setupRouter(svc), "POST", base+"/runs/"+runID.String()+"/stop", nil)

		assert.Equal(t, http.StatusAccepted, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("retry with nothing failed", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("Run", runID).Return(&studio.RunInfo{ID: runID, ProjectID: projectID}, nil)
		svc.On("RetryFailed", mock.Anything, projectID, runID).Return(nil, studio.ErrNothingToRetry)

		w := doJSON(setupRouter(svc), "POST", base+"/runs/"+runID.String()+"/retry", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandler_StreamRun(t *testing.T) {
	projectID := uuid.New()
	runID := uuid.New()

	events := make(chan generation.Event, 3)
	events <- generation.Event{Type: generation.EventBatchStarted, RunID: runID, BatchIndex: 0, TotalBatches: 1, At: time.Now()}
	events <- generation.Event{Type: generation.EventRunFinished, RunID: runID, TotalBatches: 1, At: time.Now()}
	close(events)

	cancelled := false
	svc := new(MockStudioService)
	svc.On("Run", runID).Return(&studio.RunInfo{ID: runID, ProjectID: projectID}, nil)
	svc.On("Subscribe", runID).Return((<-chan generation.Event)(events), func() { cancelled = true }, nil)

	w := doJSON(setupRouter(svc), "GET",
		"/api/v1/projects/"+projectID.String()+"/runs/"+runID.String()+"/events", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	started := strings.Index(body, "event: batch_started\n")
	finished := strings.Index(body, "event: run_finished\n")
	done := strings.Index(body, "event: done\ndata: [DONE]")
	require.True(t, started >= 0 && finished > started && done > finished, body)
	assert.True(t, cancelled)
}

func TestHandler_Pool(t *testing.T) {
	projectID := uuid.New()
	setID := uuid.New()
	base := "/api/v1/projects/" + projectID.String()

	t.Run("empty pool renders an array", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("Pool", mock.Anything, projectID).Return(nil, nil)

		w := doJSON(setupRouter(svc), "GET", base+"/pool", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"sets":[]}`, w.Body.String())
	})

	t.Run("remove unknown set", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("RemoveSet", mock.Anything, projectID, setID).Return(pool.ErrSetNotFound)

		w := doJSON(setupRouter(svc), "DELETE", base+"/pool/sets/"+setID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("remove set", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("RemoveSet", mock.Anything, projectID, setID).Return(nil)

		w := doJSON(setupRouter(svc), "DELETE", base+"/pool/sets/"+setID.String(), nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("regenerate", func(t *testing.T) {
		svc := new(MockStudioService)
		ref := model.NewMediaRef(setID, 1)
		svc.On("Regenerate", mock.Anything, projectID, ref).
			Return(&model.MediaItem{Index: 1, URL: "https://cdn/new.png", Kind: model.MediaKindImage}, nil)

		w := doJSON(setupRouter(svc), "POST", base+"/pool/regenerate", map[string]string{"ref": ref.String()})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "https://cdn/new.png")
	})

	t.Run("regenerate while provider is unavailable", func(t *testing.T) {
		svc := new(MockStudioService)
		ref := model.NewMediaRef(setID, 0)
		svc.On("Regenerate", mock.Anything, projectID, ref).
			Return(nil, fmt.Errorf("regenerate: %w: openai: open", outbound.ErrProviderUnavailable))

		w := doJSON(setupRouter(svc), "POST", base+"/pool/regenerate", map[string]string{"ref": ref.String()})

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(t, w))
	})
}

func TestHandler_Selection(t *testing.T) {
	projectID := uuid.New()
	base := "/api/v1/projects/" + projectID.String()
	ref := model.NewMediaRef(uuid.New(), 0)
	view := &studio.SelectionView{Refs: []model.MediaRef{ref}}

	ops := []struct {
		path   string
		method string
	}{
		{"/selection/toggle", "Toggle"},
		{"/selection/move-up", "MoveUp"},
		{"/selection/move-down", "MoveDown"},
		{"/selection/remove", "RemoveRef"},
	}
	for _, op := range ops {
		t.Run(op.method, func(t *testing.T) {
			svc := new(MockStudioService)
			svc.On(op.method, mock.Anything, projectID, ref).Return(view, nil)

			w := doJSON(setupRouter(svc), "POST", base+op.path, map[string]string{"ref": ref.String()})

			assert.Equal(t, http.StatusOK, w.Code)
			svc.AssertExpectations(t)
		})
	}

	t.Run("toggle unknown ref", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("Toggle", mock.Anything, projectID, ref).Return(nil, pool.ErrRefNotFound)

		w := doJSON(setupRouter(svc), "POST", base+"/selection/toggle", map[string]string{"ref": ref.String()})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("replace", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("SetSelection", mock.Anything, projectID, []model.MediaRef{ref}).Return(view, nil)

		w := doJSON(setupRouter(svc), "PUT", base+"/selection", map[string]any{"refs": []string{ref.String()}})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("select all and clear", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("SelectAll", mock.Anything, projectID).Return(view, nil)
		svc.On("ClearSelection", mock.Anything, projectID).Return(&studio.SelectionView{}, nil)

		router := setupRouter(svc)
		assert.Equal(t, http.StatusOK, doJSON(router, "POST", base+"/selection/all", nil).Code)
		assert.Equal(t, http.StatusOK, doJSON(router, "DELETE", base+"/selection", nil).Code)
		svc.AssertExpectations(t)
	})
}

func TestHandler_Timeline(t *testing.T) {
	projectID := uuid.New()
	base := "/api/v1/projects/" + projectID.String()
	view := &studio.TimelineView{Total: 12}

	t.Run("move", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("MoveSegment", mock.Anything, projectID, 0, 2).Return(view, nil)

		w := doJSON(setupRouter(svc), "POST", base+"/timeline/move", map[string]int{"from": 0, "to": 2})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("move requires both indexes", func(t *testing.T) {
		w := doJSON(setupRouter(new(MockStudioService)), "POST", base+"/timeline/move", map[string]int{"from": 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("move out of range", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("MoveSegment", mock.Anything, projectID, 0, 9).Return(nil, studio.ErrSegmentOutOfRange)

		w := doJSON(setupRouter(svc), "POST", base+"/timeline/move", map[string]int{"from": 0, "to": 9})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("duration", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("SetSegmentDuration", mock.Anything, projectID, 1, 4.5).Return(view, nil)

		w := doJSON(setupRouter(svc), "PUT", base+"/timeline/segments/1/duration", map[string]float64{"seconds": 4.5})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("reset", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("ResetOrder", mock.Anything, projectID).Return(view, nil)

		w := doJSON(setupRouter(svc), "POST", base+"/timeline/reset", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("assemble without audio", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("Assemble", mock.Anything, projectID).Return(nil, studio.ErrNoAudio)

		w := doJSON(setupRouter(svc), "POST", base+"/assemble", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	t.Run("assemble", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("Assemble", mock.Anything, projectID).Return(&model.Assembly{
			Result: &model.AssemblyResult{JobID: "r1", Status: "submitted", Duration: 12},
		}, nil)

		w := doJSON(setupRouter(svc), "POST", base+"/assemble", nil)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"job_id":"r1"`)
	})

	t.Run("unexpected error is internal", func(t *testing.T) {
		svc := new(MockStudioService)
		svc.On("Timeline", mock.Anything, projectID).Return(nil, fmt.Errorf("boom"))

		w := doJSON(setupRouter(svc), "GET", base+"/timeline", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
	})
}
