// Package studio owns per-project editing state: the media pool, the
// ordered selection and the timed timeline, plus the generation runs that
// feed the pool.
package studio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/domain/pool"
	"github.com/uniedit/reelgen/internal/domain/selection"
	"github.com/uniedit/reelgen/internal/domain/timeline"
	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/outbound"
)

// Service implements the studio domain logic.
type Service struct {
	projectDB   outbound.ProjectDatabasePort
	setDB       outbound.MediaSetDatabasePort
	selectionDB outbound.SelectionDatabasePort
	generators  outbound.MediaGeneratorRegistryPort
	limiters    *generation.Limiters
	assembler   outbound.AssemblerPort
	artifacts   outbound.ArtifactStoragePort
	prober      outbound.AudioProberPort
	publisher   outbound.EventPublisherPort
	observer    generation.Observer
	genConfig   *generation.Config
	config      *Config
	composer    timeline.Composer
	logger      *zap.Logger

	mu         sync.Mutex
	workspaces map[uuid.UUID]*workspace
	runs       map[uuid.UUID]*runState
}

// Deps groups the outbound ports the service talks to.
// Assembler, Artifacts, Prober and Publisher are optional.
type Deps struct {
	Projects   outbound.ProjectDatabasePort
	MediaSets  outbound.MediaSetDatabasePort
	Selections outbound.SelectionDatabasePort
	Generators outbound.MediaGeneratorRegistryPort
	Limiters   *generation.Limiters
	Assembler  outbound.AssemblerPort
	Artifacts  outbound.ArtifactStoragePort
	Prober     outbound.AudioProberPort
	Publisher  outbound.EventPublisherPort
	Observer   generation.Observer
}

// NewService creates a new studio service.
func NewService(deps Deps, genConfig *generation.Config, config *Config, logger *zap.Logger) *Service {
	if genConfig == nil {
		genConfig = generation.DefaultConfig()
	}
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiters := deps.Limiters
	if limiters == nil {
		limiters = generation.NewLimiters(nil, genConfig)
	}
	return &Service{
		projectDB:   deps.Projects,
		setDB:       deps.MediaSets,
		selectionDB: deps.Selections,
		generators:  deps.Generators,
		limiters:    limiters,
		assembler:   deps.Assembler,
		artifacts:   deps.Artifacts,
		prober:      deps.Prober,
		publisher:   deps.Publisher,
		observer:    deps.Observer,
		genConfig:   genConfig,
		config:      config,
		composer:    timeline.NewComposer(config.VideoDuration),
		logger:      logger.Named("studio"),
		workspaces:  make(map[uuid.UUID]*workspace),
		runs:        make(map[uuid.UUID]*runState),
	}
}

// workspace is the in-memory state of one project. Pool, selection and
// timeline are values replaced wholesale under mu.
type workspace struct {
	mu        sync.Mutex
	project   model.Project
	pool      pool.Pool
	selection selection.Selection
	timeline  timeline.Timeline
	activeRun uuid.UUID
}

// CreateProject creates a new empty project.
func (s *Service) CreateProject(ctx context.Context, name string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}

	now := time.Now()
	project := &model.Project{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projectDB.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("name", name),
	)
	return project, nil
}

// GetProject returns a project.
func (s *Service) GetProject(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	project := ws.project
	return &project, nil
}

// ListProjects lists projects.
func (s *Service) ListProjects(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	projects, err := s.projectDB.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// workspace returns the cached workspace of a project, loading it on first use.
func (s *Service) workspace(ctx context.Context, projectID uuid.UUID) (*workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.workspaces[projectID]; ok {
		return ws, nil
	}

	project, err := s.projectDB.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	sets, err := s.setDB.FindByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load media sets: %w", err)
	}
	loaded := make([]model.MediaSet, 0, len(sets))
	for _, set := range sets {
		loaded = append(loaded, *set)
	}

	refs, err := s.selectionDB.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}

	ws := &workspace{
		project:   *project,
		pool:      pool.New(loaded...),
		selection: selection.New(refs...),
	}
	s.rebuildTimeline(ws)
	s.workspaces[projectID] = ws

	s.logger.Debug("Workspace loaded",
		zap.String("project_id", projectID.String()),
		zap.Int("sets", ws.pool.Len()),
		zap.Int("selected", ws.selection.Len()),
	)
	return ws, nil
}

// rebuildTimeline recomposes the timeline from the selection. Caller holds ws.mu.
func (s *Service) rebuildTimeline(ws *workspace) {
	ws.timeline = timeline.New(
		s.composer,
		ws.selection.Resolve(ws.pool),
		ws.project.AudioDuration,
		s.config.FallbackDuration,
	)
}

func (s *Service) publish(ctx context.Context, event *model.ProgressEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish progress event",
			zap.String("type", event.Type),
			zap.String("run_id", event.RunID.String()),
			zap.Error(err),
		)
	}
}
