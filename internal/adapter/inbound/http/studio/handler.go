package studiohttp

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/domain/studio"
	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/inbound"
	apperrors "github.com/uniedit/reelgen/internal/utils/errors"
	"github.com/uniedit/reelgen/internal/utils/pagination"
)

// StudioService is the studio behavior the handler serves.
type StudioService interface {
	CreateProject(ctx context.Context, name string) (*model.Project, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*model.Project, error)
	ListProjects(ctx context.Context, limit, offset int) ([]*model.Project, error)
	SetAudio(ctx context.Context, projectID uuid.UUID, audioURL string, duration *float64) (*model.Project, error)

	StartGeneration(ctx context.Context, projectID uuid.UUID, in *studio.GenerateInput) (*studio.RunInfo, error)
	RetryFailed(ctx context.Context, projectID, runID uuid.UUID) (*studio.RunInfo, error)
	Run(runID uuid.UUID) (*studio.RunInfo, error)
	Subscribe(runID uuid.UUID) (<-chan generation.Event, func(), error)
	StopRun(runID uuid.UUID) (*studio.RunInfo, error)

	Pool(ctx context.Context, projectID uuid.UUID) ([]model.MediaSet, error)
	RemoveSet(ctx context.Context, projectID, setID uuid.UUID) error
	Regenerate(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*model.MediaItem, error)

	Selection(ctx context.Context, projectID uuid.UUID) (*studio.SelectionView, error)
	Toggle(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*studio.SelectionView, error)
	MoveUp(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*studio.SelectionView, error)
	MoveDown(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*studio.SelectionView, error)
	RemoveRef(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*studio.SelectionView, error)
	SetSelection(ctx context.Context, projectID uuid.UUID, refs []model.MediaRef) (*studio.SelectionView, error)
	SelectAll(ctx context.Context, projectID uuid.UUID) (*studio.SelectionView, error)
	ClearSelection(ctx context.Context, projectID uuid.UUID) (*studio.SelectionView, error)

	Timeline(ctx context.Context, projectID uuid.UUID) (*studio.TimelineView, error)
	MoveSegment(ctx context.Context, projectID uuid.UUID, from, to int) (*studio.TimelineView, error)
	ResetOrder(ctx context.Context, projectID uuid.UUID) (*studio.TimelineView, error)
	SetSegmentDuration(ctx context.Context, projectID uuid.UUID, index int, seconds float64) (*studio.TimelineView, error)
	Assemble(ctx context.Context, projectID uuid.UUID) (*model.Assembly, error)
}

var _ StudioService = (*studio.Service)(nil)

// Handler handles studio HTTP requests.
type Handler struct {
	service StudioService
}

// NewHandler creates a new studio handler.
func NewHandler(service StudioService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers studio routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	projects := r.Group("/projects")
	{
		projects.POST("", h.CreateProject)
		projects.GET("", h.ListProjects)
		projects.GET("/:id", h.GetProject)
		projects.PUT("/:id/audio", h.SetAudio)

		// Generation runs
		projects.POST("/:id/generations", h.StartGeneration)
		projects.GET("/:id/runs/:run_id", h.GetRun)
		projects.GET("/:id/runs/:run_id/events", h.StreamRun)
		projects.POST("/:id/runs/:run_id/stop", h.StopRun)
		projects.POST("/:id/runs/:run_id/retry", h.RetryRun)

		// Pool
		projects.GET("/:id/pool", h.GetPool)
		projects.DELETE("/:id/pool/sets/:set_id", h.RemoveSet)
		projects.POST("/:id/pool/regenerate", h.Regenerate)

		// Selection
		projects.GET("/:id/selection", h.GetSelection)
		projects.PUT("/:id/selection", h.SetSelection)
		projects.DELETE("/:id/selection", h.ClearSelection)
		projects.POST("/:id/selection/all", h.SelectAll)
		projects.POST("/:id/selection/toggle", h.refAction(StudioService.Toggle))
		projects.POST("/:id/selection/move-up", h.refAction(StudioService.MoveUp))
		projects.POST("/:id/selection/move-down", h.refAction(StudioService.MoveDown))
		projects.POST("/:id/selection/remove", h.refAction(StudioService.RemoveRef))

		// Timeline
		projects.GET("/:id/timeline", h.GetTimeline)
		projects.POST("/:id/timeline/move", h.MoveSegment)
		projects.POST("/:id/timeline/reset", h.ResetOrder)
		projects.PUT("/:id/timeline/segments/:index/duration", h.SetSegmentDuration)

		projects.POST("/:id/assemble", h.Assemble)
	}
}

// --- Projects ---

// CreateProject handles project creation.
func (h *Handler) CreateProject(c *gin.Context) {
	var input inbound.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	project, err := h.service.CreateProject(c.Request.Context(), input.Name)
	if err != nil {
		handleStudioError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// ListProjects handles project listing.
func (h *Handler) ListProjects(c *gin.Context) {
	page := pagination.New()
	if err := c.ShouldBindQuery(page); err != nil {
		respondError(c, bindError(err))
		return
	}

	projects, err := h.service.ListProjects(c.Request.Context(), page.Limit(), page.Offset())
	if err != nil {
		handleStudioError(c, err)
		return
	}
	if projects == nil {
		projects = []*model.Project{}
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":   projects,
		"pagination": page.Info(len(projects)),
	})
}

// GetProject handles project retrieval.
func (h *Handler) GetProject(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	project, err := h.service.GetProject(c.Request.Context(), projectID)
	if err != nil {
		handleStudioError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// SetAudio handles attaching the audio track.
func (h *Handler) SetAudio(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	var input inbound.SetAudioInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	project, err := h.service.SetAudio(c.Request.Context(), projectID, input.AudioURL, input.Duration)
	if err != nil {
		handleStudioError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// --- Generation ---

// StartGeneration handles starting a generation run.
func (h *Handler) StartGeneration(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	var input studio.GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	run, err := h.service.StartGeneration(c.Request.Context(), projectID, &input)
	if err != nil {
		handleStudioError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, run)
}

// GetRun handles run status retrieval.
func (h *Handler) GetRun(c *gin.Context) {
	run, ok := h.projectRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

// StopRun asks a run to end after its current batch.
func (h *Handler) StopRun(c *gin.Context) {
	run, ok := h.projectRun(c)
	if !ok {
		return
	}

	stopped, err := h.service.StopRun(run.ID)
	if err != nil {
		handleStudioError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, stopped)
}

// RetryRun starts a new run with the failed requests of a finished one.
func (h *Handler) RetryRun(c *gin.Context) {
	run, ok := h.projectRun(c)
	if !ok {
		return
	}

	retry, err := h.service.RetryFailed(c.Request.Context(), run.ProjectID, run.ID)
	if err != nil {
		handleStudioError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, retry)
}

// StreamRun streams run events as server-sent events.
func (h *Handler) StreamRun(c *gin.Context) {
	run, ok := h.projectRun(c)
	if !ok {
		return
	}

	events, cancel, err := h.service.Subscribe(run.ID)
	if err != nil {
		handleStudioError(c, err)
		return
	}
	defer cancel()

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	stream := NewStreamWriter(c.Writer)
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				_ = stream.WriteDone()
				return
			}
			if err := stream.WriteEvent(string(ev.Type), ev); err != nil {
				return
			}
		}
	}
}

// --- Pool ---

// GetPool handles pool listing.
func (h *Handler) GetPool(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	sets, err := h.service.Pool(c.Request.Context(), projectID)
	if err != nil {
		handleStudioError(c, err)
		return
	}
	if sets == nil {
		sets = []model.MediaSet{}
	}

	c.JSON(http.StatusOK, gin.H{"sets": sets})
}

// RemoveSet handles media set deletion.
func (h *Handler) RemoveSet(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}
	setID, err := uuid.Parse(c.Param("set_id"))
	if err != nil {
		respondError(c, apperrors.BadRequest("invalid set id"))
		return
	}

	if err := h.service.RemoveSet(c.Request.Context(), projectID, setID); err != nil {
		handleStudioError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Regenerate handles single item regeneration.
func (h *Handler) Regenerate(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	var input inbound.RefInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	item, err := h.service.Regenerate(c.Request.Context(), projectID, input.Ref)
	if err != nil {
		handleStudioError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ref": input.Ref, "item": item})
}

// --- Selection ---

// GetSelection handles selection retrieval.
func (h *Handler) GetSelection(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}
	view, err := h.service.Selection(c.Request.Context(), projectID)
	respondSelection(c, view, err)
}

// SetSelection replaces the selection.
func (h *Handler) SetSelection(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	var input inbound.SetSelectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	view, err := h.service.SetSelection(c.Request.Context(), projectID, input.Refs)
	respondSelection(c, view, err)
}

// SelectAll selects every pool item.
func (h *Handler) SelectAll(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}
	view, err := h.service.SelectAll(c.Request.Context(), projectID)
	respondSelection(c, view, err)
}

// ClearSelection empties the selection.
func (h *Handler) ClearSelection(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}
	view, err := h.service.ClearSelection(c.Request.Context(), projectID)
	respondSelection(c, view, err)
}

type refOp func(s StudioService, ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*studio.SelectionView, error)

// refAction serves a selection operation addressed by one ref.
func (h *Handler) refAction(op refOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := projectParam(c)
		if !ok {
			return
		}

		var input inbound.RefInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, bindError(err))
			return
		}

		view, err := op(h.service, c.Request.Context(), projectID, input.Ref)
		respondSelection(c, view, err)
	}
}

func respondSelection(c *gin.Context, view *studio.SelectionView, err error) {
	if err != nil {
		handleStudioError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// --- Timeline ---

// GetTimeline handles timeline retrieval.
func (h *Handler) GetTimeline(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}
	view, err := h.service.Timeline(c.Request.Context(), projectID)
	respondTimeline(c, view, err)
}

// MoveSegment moves one segment.
func (h *Handler) MoveSegment(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	var input inbound.MoveSegmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	view, err := h.service.MoveSegment(c.Request.Context(), projectID, *input.From, *input.To)
	respondTimeline(c, view, err)
}

// ResetOrder puts images before videos.
func (h *Handler) ResetOrder(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}
	view, err := h.service.ResetOrder(c.Request.Context(), projectID)
	respondTimeline(c, view, err)
}

// SetSegmentDuration overrides one segment's duration.
func (h *Handler) SetSegmentDuration(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, apperrors.BadRequest("invalid segment index"))
		return
	}

	var input inbound.SegmentDurationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	view, err := h.service.SetSegmentDuration(c.Request.Context(), projectID, index, *input.Seconds)
	respondTimeline(c, view, err)
}

// Assemble hands the timeline to video assembly.
func (h *Handler) Assemble(c *gin.Context) {
	projectID, ok := projectParam(c)
	if !ok {
		return
	}

	assembly, err := h.service.Assemble(c.Request.Context(), projectID)
	if err != nil {
		handleStudioError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, assembly)
}

func respondTimeline(c *gin.Context, view *studio.TimelineView, err error) {
	if err != nil {
		handleStudioError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// --- Helpers ---

func projectParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.BadRequest("invalid project id"))
		return uuid.Nil, false
	}
	return id, true
}

// projectRun resolves the run in the path and checks it belongs to the project.
func (h *Handler) projectRun(c *gin.Context) (*studio.RunInfo, bool) {
	projectID, ok := projectParam(c)
	if !ok {
		return nil, false
	}
	runID, err := uuid.Parse(c.Param("run_id"))
	if err != nil {
		respondError(c, apperrors.BadRequest("invalid run id"))
		return nil, false
	}

	run, err := h.service.Run(runID)
	if err != nil {
		handleStudioError(c, err)
		return nil, false
	}
	if run.ProjectID != projectID {
		handleStudioError(c, studio.ErrRunNotFound)
		return nil, false
	}
	return run, true
}
