package studiohttp

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/domain/studio"
	"github.com/uniedit/reelgen/internal/model"
)

type eventStream = <-chan generation.Event

type MockStudioService struct {
	mock.Mock
}

func ret[T any](args mock.Arguments, i int) T {
	var zero T
	if v := args.Get(i); v != nil {
		return v.(T)
	}
	return zero
}

func (m *MockStudioService) CreateProject(ctx context.Context, name string) (*model.Project, error) {
	args := m.Called(ctx, name)
	return ret[*model.Project](args, 0), args.Error(1)
}

func (m *MockStudioService) GetProject(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, projectID)
	return ret[*model.Project](args, 0), args.Error(1)
}

func (m *MockStudioService) ListProjects(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	args := m.Called(ctx, limit, offset)
	return ret[[]*model.Project](args, 0), args.Error(1)
}

func (m *MockStudioService) SetAudio(ctx context.Context, projectID uuid.UUID, audioURL string, duration *float64) (*model.Project, error) {
	args := m.Called(ctx, projectID, audioURL, duration)
	return ret[*model.Project](args, 0), args.Error(1)
}

func (m *MockStudioService) StartGeneration(ctx context.Context, projectID uuid.UUID, in *studio.GenerateInput) (*studio.RunInfo, error) {
	args := m.Called(ctx, projectID, in)
	return ret[*studio.RunInfo](args, 0), args.Error(1)
}

func (m *MockStudioService) RetryFailed(ctx context.Context, projectID, runID uuid.UUID) (*studio.RunInfo, error) {
	args := m.Called(ctx, projectID, runID)
	return ret[*studio.RunInfo](args, 0), args.Error(1)
}

func (m *MockStudioService) Run(runID uuid.UUID) (*studio.RunInfo, error) {
	args := m.Called(runID)
	return ret[*studio.RunInfo](args, 0), args.Error(1)
}

func (m *MockStudioService) Subscribe(runID uuid.UUID) (<-chan generation.Event, func(), error) {
	args := m.Called(runID)
	return ret[eventStream](args, 0), ret[func()](args, 1), args.Error(2)
}

func (m *MockStudioService) StopRun(runID uuid.UUID) (*studio.RunInfo, error) {
	args := m.Called(runID)
	return ret[*studio.RunInfo](args, 0), args.Error(1)
}

func (m *MockStudioService) Pool(ctx context.Context, projectID uuid.UUID) ([]model.MediaSet, error) {
	args := m.Called(ctx, projectID)
	return ret[[]model.MediaSet](args, 0), args.Error(1)
}

func (m *MockStudioService) RemoveSet(ctx context.Context, projectID, setID uuid.UUID) error {
	return m.Called(ctx, projectID, setID).Error(0)
}

func (m *MockStudioService) Regenerate(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*model.MediaItem, error) {
	args := m.Called(ctx, projectID, ref)
	return ret[*model.MediaItem](args, 0), args.Error(1)
}

func (m *MockStudioService) Selection(ctx context.Context, projectID uuid.UUID) (*studio.SelectionView, error) {
	args := m.Called(ctx, projectID)
	return ret[*studio.SelectionView](args, 0), args.Error(1)
}

func (m *MockStudioService) Toggle(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*studio.SelectionView, error) {
	args := m.Called(ctx, projectID, ref)
	return ret[*studio.SelectionView](args, 0), args.Error(1)
}

func (m *MockStudioService) MoveUp(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*studio.SelectionView, error) {
	args := m.Called(ctx, projectID, ref)
	return ret[*studio.SelectionView](args, 0), args.Error(1)
}

func (m *MockStudioService) MoveDown(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*studio.SelectionView, error) {
	args := m.Called(ctx, projectID, ref)
	return ret[*studio.SelectionView](args, 0), args.Error(1)
}

func (m *MockStudioService) RemoveRef(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*studio.SelectionView, error) {
	args := m.Called(ctx, projectID, ref)
	return ret[*studio.SelectionView](args, 0), args.Error(1)
}

func (m *MockStudioService) SetSelection(ctx context.Context, projectID uuid.UUID, refs []model.MediaRef) (*studio.SelectionView, error) {
	args := m.Called(ctx, projectID, refs)
	return ret[*studio.SelectionView](args, 0), args.Error(1)
}

func (m *MockStudioService) SelectAll(ctx context.Context, projectID uuid.UUID) (*studio.SelectionView, error) {
	args := m.Called(ctx, projectID)
	return ret[*studio.SelectionView](args, 0), args.Error(1)
}

func (m *MockStudioService) ClearSelection(ctx context.Context, projectID uuid.UUID) (*studio.SelectionView, error) {
	args := m.Called(ctx, projectID)
	return ret[*studio.SelectionView](args, 0), args.Error(1)
}

func (m *MockStudioService) Timeline(ctx context.Context, projectID uuid.UUID) (*studio.TimelineView, error) {
	args := m.Called(ctx, projectID)
	return ret[*studio.TimelineView](args, 0), args.Error(1)
}

func (m *MockStudioService) MoveSegment(ctx context.Context, projectID uuid.UUID, from, to int) (*studio.TimelineView, error) {
	args := m.Called(ctx, projectID, from, to)
	return ret[*studio.TimelineView](args, 0), args.Error(1)
}

func (m *MockStudioService) ResetOrder(ctx context.Context, projectID uuid.UUID) (*studio.TimelineView, error) {
	args := m.Called(ctx, projectID)
	return ret[*studio.TimelineView](args, 0), args.Error(1)
}

func (m *MockStudioService) SetSegmentDuration(ctx context.Context, projectID uuid.UUID, index int, seconds float64) (*studio.TimelineView, error) {
	args := m.Called(ctx, projectID, index, seconds)
	return ret[*studio.TimelineView](args, 0), args.Error(1)
}

func (m *MockStudioService) Assemble(ctx context.Context, projectID uuid.UUID) (*model.Assembly, error) {
	args := m.Called(ctx, projectID)
	return ret[*model.Assembly](args, 0), args.Error(1)
}

var _ StudioService = (*MockStudioService)(nil)
