package studio

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/model"
)

// RunStatus is the lifecycle state of a generation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusStopped  RunStatus = "stopped"
)

// RunInfo describes a generation run.
type RunInfo struct {
	ID         uuid.UUID          `json:"id"`
	ProjectID  uuid.UUID          `json:"project_id"`
	Provider   string             `json:"provider"`
	Kind       model.MediaKind    `json:"kind,omitempty"`
	BatchSize  int                `json:"batch_size"`
	Requests   int                `json:"requests"`
	Status     RunStatus          `json:"status"`
	Summary    generation.Summary `json:"summary"`
	SetIDs     []uuid.UUID        `json:"set_ids"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	LastEvent  *generation.Event  `json:"last_event,omitempty"`
}

// runState tracks one scheduler run and fans its events out to subscribers.
type runState struct {
	mu sync.Mutex

	run       *generation.Run
	projectID uuid.UUID
	provider  string
	kind      model.MediaKind
	batchSize int
	requests  int
	startedAt time.Time

	history     []generation.Event
	subscribers map[int]chan generation.Event
	nextSubID   int
	setIDs      []uuid.UUID
	finished    bool
	finishedAt  time.Time
	summary     generation.Summary
	buffer      int
	logger      *zap.Logger
}

func newRunState(run *generation.Run, projectID uuid.UUID, provider string, kind model.MediaKind, batchSize, requests, buffer int, logger *zap.Logger) *runState {
	if buffer < 1 {
		buffer = 1
	}
	return &runState{
		run:         run,
		projectID:   projectID,
		provider:    provider,
		kind:        kind,
		batchSize:   batchSize,
		requests:    requests,
		startedAt:   time.Now(),
		subscribers: make(map[int]chan generation.Event),
		buffer:      buffer,
		logger:      logger,
	}
}

// broadcast records ev and forwards it to every subscriber. A subscriber
// whose buffer is full misses the event rather than stalling the run.
func (r *runState) broadcast(ev generation.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, ev)
	for id, ch := range r.subscribers {
		select {
		case ch <- ev:
		default:
			r.logger.Warn("Dropping event for slow subscriber",
				zap.String("run_id", ev.RunID.String()),
				zap.Int("subscriber", id),
				zap.String("type", string(ev.Type)),
			)
		}
	}
}

func (r *runState) addSet(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setIDs = append(r.setIDs, id)
}

func (r *runState) finish(summary generation.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finished = true
	r.finishedAt = time.Now()
	r.summary = summary
	for id, ch := range r.subscribers {
		close(ch)
		delete(r.subscribers, id)
	}
}

// subscribe replays the history and then streams live events. The channel
// is closed when the run finishes.
func (r *runState) subscribe() (<-chan generation.Event, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan generation.Event, len(r.history)+r.buffer)
	for _, ev := range r.history {
		ch <- ev
	}
	if r.finished {
		close(ch)
		return ch, func() {}
	}

	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if sub, ok := r.subscribers[id]; ok {
				close(sub)
				delete(r.subscribers, id)
			}
		})
	}
}

func (r *runState) info() *RunInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := &RunInfo{
		ID:        r.run.ID(),
		ProjectID: r.projectID,
		Provider:  r.provider,
		Kind:      r.kind,
		BatchSize: r.batchSize,
		Requests:  r.requests,
		Status:    RunStatusRunning,
		SetIDs:    append([]uuid.UUID(nil), r.setIDs...),
		StartedAt: r.startedAt,
	}
	if len(r.history) > 0 {
		last := r.history[len(r.history)-1]
		info.LastEvent = &last
	}
	if !r.finished {
		info.Summary = r.run.Summary()
		return info
	}

	finishedAt := r.finishedAt
	info.FinishedAt = &finishedAt
	info.Summary = r.summary
	info.Status = RunStatusFinished
	if r.summary.Stopped {
		info.Status = RunStatusStopped
	}
	return info
}

func (r *runState) expired(now time.Time, retention time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished && now.Sub(r.finishedAt) > retention
}

func (r *runState) isFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

func (r *runState) failedRequests() []model.GenerationRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.GenerationRequest(nil), r.summary.FailedRequests...)
}

// Run returns a generation run.
func (s *Service) Run(runID uuid.UUID) (*RunInfo, error) {
	state, err := s.runState(runID)
	if err != nil {
		return nil, err
	}
	return state.info(), nil
}

// Subscribe streams a run's events, starting with everything already
// emitted. The returned cancel func detaches the subscriber early.
func (s *Service) Subscribe(runID uuid.UUID) (<-chan generation.Event, func(), error) {
	state, err := s.runState(runID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := state.subscribe()
	return ch, cancel, nil
}

// StopRun asks a run to end after its current batch.
func (s *Service) StopRun(runID uuid.UUID) (*RunInfo, error) {
	state, err := s.runState(runID)
	if err != nil {
		return nil, err
	}
	state.run.Stop()

	s.logger.Info("Generation run stop requested", zap.String("run_id", runID.String()))
	return state.info(), nil
}

func (s *Service) runState(runID uuid.UUID) (*runState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return state, nil
}

// pruneRuns forgets finished runs past retention. Caller holds s.mu.
func (s *Service) pruneRuns(now time.Time) {
	for id, state := range s.runs {
		if state.expired(now, s.config.RunRetention) {
			delete(s.runs, id)
		}
	}
}
