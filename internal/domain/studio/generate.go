package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/domain/pool"
	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/outbound"
	"github.com/uniedit/reelgen/internal/utils/requestctx"
)

// GenerateInput starts a generation run for a project.
type GenerateInput struct {
	Provider  string          `json:"provider"`
	Kind      model.MediaKind `json:"kind"`
	Model     string          `json:"model"`
	Prompts   []string        `json:"prompts"`
	Params    map[string]any  `json:"params"`
	BatchSize int             `json:"batch_size"`
}

// StartGeneration schedules the prompts in batches. Each completed batch is
// folded into the project's pool as one media set.
func (s *Service) StartGeneration(ctx context.Context, projectID uuid.UUID, in *GenerateInput) (*RunInfo, error) {
	if in == nil {
		return nil, ErrInvalidInput
	}
	if in.Kind != "" && !in.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown media kind %q", ErrInvalidInput, in.Kind)
	}

	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}

	generator, err := s.resolveGenerator(in.Provider, in.Kind)
	if err != nil {
		return nil, err
	}

	requests := make([]model.GenerationRequest, 0, len(in.Prompts))
	for _, prompt := range in.Prompts {
		prompt = strings.TrimSpace(prompt)
		if prompt == "" {
			continue
		}
		requests = append(requests, model.GenerationRequest{
			Prompt: prompt,
			Kind:   in.Kind,
			Model:  in.Model,
			Params: in.Params,
		})
	}

	batchSize := in.BatchSize
	if batchSize == 0 {
		batchSize = s.genConfig.DefaultBatchSize
	}

	return s.startRun(ctx, ws, generator, in.Kind, requests, batchSize)
}

// RetryFailed re-runs only the failed requests of a finished run.
func (s *Service) RetryFailed(ctx context.Context, projectID, runID uuid.UUID) (*RunInfo, error) {
	state, err := s.runState(runID)
	if err != nil {
		return nil, err
	}
	if state.projectID != projectID {
		return nil, ErrRunNotFound
	}
	if !state.isFinished() {
		return nil, ErrRunActive
	}

	failed := state.failedRequests()
	if len(failed) == 0 {
		return nil, ErrNothingToRetry
	}

	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}
	generator, err := s.resolveGenerator(state.provider, state.kind)
	if err != nil {
		return nil, err
	}

	requestctx.Logger(ctx, s.logger).Info("Retrying failed generation requests",
		zap.String("run_id", runID.String()),
		zap.Int("count", len(failed)),
	)
	return s.startRun(ctx, ws, generator, state.kind, failed, state.batchSize)
}

func (s *Service) startRun(
	ctx context.Context,
	ws *workspace,
	generator outbound.MediaGeneratorPort,
	kind model.MediaKind,
	requests []model.GenerationRequest,
	batchSize int,
) (*RunInfo, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.activeRun != uuid.Nil {
		return nil, ErrRunActive
	}

	scheduler := generation.NewScheduler(
		generator,
		s.limiters.For(generator.Name()),
		s.observer,
		s.genConfig,
		s.logger,
	)

	// The run outlives the request that started it.
	run, err := scheduler.Run(context.WithoutCancel(ctx), requests, batchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	state := newRunState(run, ws.project.ID, generator.Name(), kind, batchSize, len(requests), s.config.SubscriberBuffer, s.logger)

	s.mu.Lock()
	s.pruneRuns(time.Now())
	s.runs[run.ID()] = state
	s.mu.Unlock()

	ws.activeRun = run.ID()

	requestctx.Logger(ctx, s.logger).Info("Generation run started",
		zap.String("project_id", ws.project.ID.String()),
		zap.String("run_id", run.ID().String()),
		zap.String("provider", generator.Name()),
		zap.Int("requests", len(requests)),
		zap.Int("batch_size", batchSize),
	)

	s.publish(ctx, &model.ProgressEvent{
		ID:           uuid.New(),
		Type:         model.ProgressRunStarted,
		ProjectID:    ws.project.ID,
		RunID:        run.ID(),
		Provider:     generator.Name(),
		TotalBatches: run.Summary().TotalBatches,
		Message:      fmt.Sprintf("Generating %d items with %s", len(requests), generator.Name()),
		Timestamp:    time.Now(),
	})

	go s.consume(ws, state)

	return state.info(), nil
}

// consume drains a run, folding every finished batch into the pool.
func (s *Service) consume(ws *workspace, state *runState) {
	ctx := context.Background()
	run := state.run

	for ev := range run.Events() {
		progress := &model.ProgressEvent{
			ID:           uuid.New(),
			ProjectID:    state.projectID,
			RunID:        ev.RunID,
			Provider:     state.provider,
			BatchIndex:   ev.BatchIndex,
			TotalBatches: ev.TotalBatches,
			Message:      ev.Message,
			Timestamp:    ev.At,
		}

		switch ev.Type {
		case generation.EventBatchStarted:
			progress.Type = model.ProgressBatchStarted
		case generation.EventCooldown:
			progress.Type = model.ProgressCooldown
			progress.Remaining = ev.Remaining
		case generation.EventBatchCompleted:
			progress.Type = model.ProgressBatchCompleted
			progress.Succeeded = len(ev.Result.Succeeded)
			progress.Failed = ev.Result.FailedCount
			if set, ok := pool.FoldBatch(ev.Result, state.provider, time.Now()); ok {
				s.appendSet(ctx, ws, set)
				state.addSet(set.ID)
				progress.SetID = &set.ID
			}
		case generation.EventRunFinished:
			progress.Type = model.ProgressRunFinished
			progress.Succeeded = ev.Summary.Succeeded
			progress.Failed = ev.Summary.Failed
		}

		state.broadcast(ev)
		if progress.Type != "" {
			s.publish(ctx, progress)
		}
	}

	ws.mu.Lock()
	if ws.activeRun == run.ID() {
		ws.activeRun = uuid.Nil
	}
	ws.mu.Unlock()

	state.finish(run.Summary())
}

// appendSet persists set and adds it to the in-memory pool. A persistence
// failure is logged and the set is still kept in memory.
func (s *Service) appendSet(ctx context.Context, ws *workspace, set model.MediaSet) {
	if err := s.setDB.Create(ctx, ws.project.ID, &set); err != nil {
		s.logger.Error("Failed to persist media set",
			zap.String("project_id", ws.project.ID.String()),
			zap.String("set_id", set.ID.String()),
			zap.Error(err),
		)
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	// A new set is never selected yet, so the timeline stays as it is.
	ws.pool = ws.pool.Append(set)
}

// Regenerate re-runs the prompt behind one pool item and patches its URL.
func (s *Service) Regenerate(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*model.MediaItem, error) {
	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}

	setID, _, err := ref.Parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ws.mu.Lock()
	item, ok := ws.pool.Lookup(ref)
	set, _ := ws.pool.Set(setID)
	ws.mu.Unlock()
	if !ok {
		return nil, pool.ErrRefNotFound
	}

	generator, err := s.resolveGenerator(set.Provider, item.Kind)
	if err != nil {
		return nil, err
	}

	prompt := item.Prompt
	if prompt == "" {
		prompt = set.SourcePrompt
	}
	fresh, err := generator.Generate(ctx, &model.GenerationRequest{Prompt: prompt, Kind: item.Kind})
	s.limiters.For(generator.Name()).Record(1)
	if err != nil {
		return nil, fmt.Errorf("regenerate: %w", err)
	}
	if fresh == nil || fresh.URL == "" {
		return nil, errors.New("regenerate: provider returned no media")
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	patched, patchedSet, err := ws.pool.PatchItemURL(ref, fresh.URL)
	if err != nil {
		return nil, err
	}
	if err := s.setDB.UpdateItems(ctx, &patchedSet); err != nil {
		return nil, fmt.Errorf("update media set: %w", err)
	}
	ws.pool = patched

	updated, _ := patched.Lookup(ref)
	ws.timeline = ws.timeline.Replace(ref, updated)

	s.logger.Info("Media item regenerated",
		zap.String("project_id", projectID.String()),
		zap.String("ref", ref.String()),
	)
	return &updated, nil
}

// Pool returns a project's media sets in pool order.
func (s *Service) Pool(ctx context.Context, projectID uuid.UUID) ([]model.MediaSet, error) {
	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	return ws.pool.Sets(), nil
}

// RemoveSet deletes a media set. Selected refs into it stay selected but no
// longer resolve; their segments leave the timeline.
func (s *Service) RemoveSet(ctx context.Context, projectID, setID uuid.UUID) error {
	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	next, err := ws.pool.Remove(setID)
	if err != nil {
		return err
	}
	if err := s.setDB.Delete(ctx, setID); err != nil {
		return fmt.Errorf("delete media set: %w", err)
	}
	ws.pool = next
	ws.timeline, _ = ws.timeline.Prune(func(ref model.MediaRef) bool {
		_, ok := next.Lookup(ref)
		return ok
	})

	s.logger.Info("Media set removed",
		zap.String("project_id", projectID.String()),
		zap.String("set_id", setID.String()),
	)
	return nil
}

func (s *Service) resolveGenerator(provider string, kind model.MediaKind) (outbound.MediaGeneratorPort, error) {
	if s.generators == nil {
		return nil, ErrProviderNotFound
	}
	var (
		generator outbound.MediaGeneratorPort
		err       error
	)
	if provider != "" {
		generator, err = s.generators.Get(provider)
	} else {
		if kind == "" {
			kind = model.MediaKindImage
		}
		generator, err = s.generators.Default(kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderNotFound, err)
	}
	return generator, nil
}
