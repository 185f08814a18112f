package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniedit/reelgen/internal/domain/pool"
	"github.com/uniedit/reelgen/internal/domain/selection"
	"github.com/uniedit/reelgen/internal/domain/timeline"
	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/utils/requestctx"
)

// SelectionView is the selection with its resolved items.
type SelectionView struct {
	Refs  []model.MediaRef     `json:"refs"`
	Items []model.ResolvedItem `json:"items"`
}

// TimelineView is the timed timeline of a project.
type TimelineView struct {
	Slots    []timeline.Slot `json:"slots"`
	Total    float64         `json:"total"`
	Target   *float64        `json:"target,omitempty"`
	Overrun  bool            `json:"overrun"`
	Fallback bool            `json:"fallback"`
}

// Selection returns a project's selection.
func (s *Service) Selection(ctx context.Context, projectID uuid.UUID) (*SelectionView, error) {
	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	return selectionView(ws), nil
}

// Toggle adds ref at the end of the selection, or removes it when present.
func (s *Service) Toggle(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*SelectionView, error) {
	return s.updateSelection(ctx, projectID, func(ws *workspace) (selection.Selection, error) {
		if !ws.selection.Contains(ref) {
			if _, ok := ws.pool.Lookup(ref); !ok {
				return ws.selection, pool.ErrRefNotFound
			}
		}
		return ws.selection.Toggle(ref), nil
	})
}

// MoveUp moves ref one place earlier.
func (s *Service) MoveUp(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*SelectionView, error) {
	return s.updateSelection(ctx, projectID, func(ws *workspace) (selection.Selection, error) {
		return ws.selection.MoveUp(ref), nil
	})
}

// MoveDown moves ref one place later.
func (s *Service) MoveDown(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*SelectionView, error) {
	return s.updateSelection(ctx, projectID, func(ws *workspace) (selection.Selection, error) {
		return ws.selection.MoveDown(ref), nil
	})
}

// RemoveRef drops ref from the selection.
func (s *Service) RemoveRef(ctx context.Context, projectID uuid.UUID, ref model.MediaRef) (*SelectionView, error) {
	return s.updateSelection(ctx, projectID, func(ws *workspace) (selection.Selection, error) {
		return ws.selection.Remove(ref), nil
	})
}

// SetSelection replaces the selection with refs, in order.
func (s *Service) SetSelection(ctx context.Context, projectID uuid.UUID, refs []model.MediaRef) (*SelectionView, error) {
	return s.updateSelection(ctx, projectID, func(ws *workspace) (selection.Selection, error) {
		return ws.selection.SetAll(refs), nil
	})
}

// SelectAll selects every pool item in pool order.
func (s *Service) SelectAll(ctx context.Context, projectID uuid.UUID) (*SelectionView, error) {
	return s.updateSelection(ctx, projectID, func(ws *workspace) (selection.Selection, error) {
		return ws.selection.SetAll(ws.pool.Refs()), nil
	})
}

// ClearSelection empties the selection.
func (s *Service) ClearSelection(ctx context.Context, projectID uuid.UUID) (*SelectionView, error) {
	return s.updateSelection(ctx, projectID, func(ws *workspace) (selection.Selection, error) {
		return ws.selection.Clear(), nil
	})
}

func (s *Service) updateSelection(
	ctx context.Context,
	projectID uuid.UUID,
	fn func(ws *workspace) (selection.Selection, error),
) (*SelectionView, error) {
	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	next, err := fn(ws)
	if err != nil {
		return nil, err
	}
	if err := s.selectionDB.Save(ctx, projectID, next.Refs()); err != nil {
		return nil, fmt.Errorf("save selection: %w", err)
	}
	ws.selection = next
	s.rebuildTimeline(ws)

	return selectionView(ws), nil
}

// Timeline returns a project's timed timeline.
func (s *Service) Timeline(ctx context.Context, projectID uuid.UUID) (*TimelineView, error) {
	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	return timelineView(ws.timeline), nil
}

// MoveSegment moves one segment and recomposes every duration. The
// selection keeps its order so ResetOrder can restore it.
func (s *Service) MoveSegment(ctx context.Context, projectID uuid.UUID, from, to int) (*TimelineView, error) {
	return s.reorderTimeline(ctx, projectID, func(tl timeline.Timeline) (timeline.Timeline, error) {
		if from < 0 || from >= tl.Len() || to < 0 || to >= tl.Len() {
			return tl, ErrSegmentOutOfRange
		}
		return tl.Move(from, to), nil
	})
}

// ResetOrder puts images first and videos last, each in selection order,
// and recomposes.
func (s *Service) ResetOrder(ctx context.Context, projectID uuid.UUID) (*TimelineView, error) {
	return s.reorderTimeline(ctx, projectID, func(tl timeline.Timeline) (timeline.Timeline, error) {
		return tl.ResetOrder(), nil
	})
}

func (s *Service) reorderTimeline(
	ctx context.Context,
	projectID uuid.UUID,
	fn func(tl timeline.Timeline) (timeline.Timeline, error),
) (*TimelineView, error) {
	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	next, err := fn(ws.timeline)
	if err != nil {
		return nil, err
	}
	ws.timeline = next

	return timelineView(ws.timeline), nil
}

// SetSegmentDuration overrides one segment's duration, leaving the others.
func (s *Service) SetSegmentDuration(ctx context.Context, projectID uuid.UUID, index int, seconds float64) (*TimelineView, error) {
	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if index < 0 || index >= ws.timeline.Len() {
		return nil, ErrSegmentOutOfRange
	}
	if seconds < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}
	ws.timeline = ws.timeline.SetDuration(index, seconds)

	return timelineView(ws.timeline), nil
}

// SetAudio attaches an audio track. When duration is nil it is probed from
// the track; an unknown duration leaves the timeline in fallback mode.
func (s *Service) SetAudio(ctx context.Context, projectID uuid.UUID, audioURL string, duration *float64) (*model.Project, error) {
	if duration != nil && *duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}

	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if duration == nil && audioURL != "" && s.prober != nil {
		probed, err := s.prober.Probe(ctx, audioURL)
		if err != nil {
			s.logger.Warn("Failed to probe audio duration",
				zap.String("project_id", projectID.String()),
				zap.Error(err),
			)
		} else {
			duration = &probed
		}
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	project := ws.project
	project.AudioURL = audioURL
	project.AudioDuration = duration
	if audioURL == "" {
		project.AudioDuration = nil
	}
	project.UpdatedAt = time.Now()

	if err := s.projectDB.Update(ctx, &project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	ws.project = project
	ws.timeline = ws.timeline.WithTarget(project.AudioDuration)

	return &project, nil
}

// Assemble hands the timed segments and the audio track to video assembly
// and stores the timeline manifest.
func (s *Service) Assemble(ctx context.Context, projectID uuid.UUID) (*model.Assembly, error) {
	if s.assembler == nil {
		return nil, fmt.Errorf("assemble: no assembler configured")
	}

	ws, err := s.workspace(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	project := ws.project
	tl := ws.timeline
	ws.mu.Unlock()

	if project.AudioURL == "" {
		return nil, ErrNoAudio
	}
	if tl.Len() == 0 {
		return nil, ErrEmptyTimeline
	}
	log := requestctx.Logger(ctx, s.logger)
	if tl.Overrun() {
		log.Warn("Videos exceed the audio length; images get no screen time",
			zap.String("project_id", projectID.String()),
		)
	}

	req := &model.AssemblyRequest{
		ProjectID: projectID,
		AudioURL:  project.AudioURL,
		Segments:  tl.Segments(),
	}
	result, err := s.assembler.Assemble(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	assembly := &model.Assembly{Result: result, CreatedAt: time.Now()}
	if s.artifacts != nil {
		key, url, err := s.storeManifest(ctx, req, assembly.CreatedAt)
		if err != nil {
			log.Warn("Failed to store timeline manifest",
				zap.String("project_id", projectID.String()),
				zap.Error(err),
			)
		} else {
			assembly.ManifestKey = key
			assembly.ManifestURL = url
		}
	}

	log.Info("Timeline assembled",
		zap.String("project_id", projectID.String()),
		zap.Int("segments", len(req.Segments)),
		zap.Float64("duration", req.TotalDuration()),
		zap.String("status", result.Status),
	)
	return assembly, nil
}

func (s *Service) storeManifest(ctx context.Context, req *model.AssemblyRequest, at time.Time) (string, string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", "", fmt.Errorf("marshal manifest: %w", err)
	}

	key := path.Join(s.config.ManifestPrefix, req.ProjectID.String(), at.UTC().Format("20060102T150405Z")+".json")
	if err := s.artifacts.Put(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", "", fmt.Errorf("put manifest: %w", err)
	}
	url, err := s.artifacts.GetPresignedURL(ctx, key, s.config.ManifestURLTTL)
	if err != nil {
		return key, "", fmt.Errorf("presign manifest: %w", err)
	}
	return key, url, nil
}

func selectionView(ws *workspace) *SelectionView {
	return &SelectionView{
		Refs:  ws.selection.Refs(),
		Items: ws.selection.Resolve(ws.pool),
	}
}

func timelineView(tl timeline.Timeline) *TimelineView {
	return &TimelineView{
		Slots:    tl.Slots(),
		Total:    tl.Total(),
		Target:   tl.Target(),
		Overrun:  tl.Overrun(),
		Fallback: tl.Target() == nil,
	}
}
