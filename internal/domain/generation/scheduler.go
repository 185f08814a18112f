// Package generation runs prompts through a media provider in rate-limited batches.
package generation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/outbound"
)

// Scheduler partitions requests into batches, runs each batch concurrently
// and waits out a cooldown between batches.
type Scheduler struct {
	generator outbound.MediaGeneratorPort
	limiter   outbound.RateLimiterPort
	observer  Observer
	config    *Config
	logger    *zap.Logger
}

// NewScheduler creates a scheduler bound to one provider and its limiter.
func NewScheduler(
	generator outbound.MediaGeneratorPort,
	limiter outbound.RateLimiterPort,
	observer Observer,
	config *Config,
	logger *zap.Logger,
) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	if limiter == nil {
		limiter = NewRateLimiter(config.CapacityFor(generator.Name()), config.RateWindow)
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		generator: generator,
		limiter:   limiter,
		observer:  observer,
		config:    config,
		logger:    logger.Named("scheduler"),
	}
}

// Run is one execution of a request list. Events must be drained until the
// channel is closed.
type Run struct {
	id       uuid.UUID
	events   chan Event
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu      sync.Mutex
	summary Summary
}

// ID returns the run ID.
func (r *Run) ID() uuid.UUID { return r.id }

// Events returns the ordered event stream. It is closed after EventRunFinished.
func (r *Run) Events() <-chan Event { return r.events }

// Done is closed once the run has finished.
func (r *Run) Done() <-chan struct{} { return r.done }

// Stop asks the run to end after the batch in flight. Jobs already started
// are never aborted.
func (r *Run) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Summary returns a snapshot of the run totals.
func (r *Run) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.summary
	out.FailedRequests = append([]model.GenerationRequest(nil), r.summary.FailedRequests...)
	return out
}

func (r *Run) halted(ctx context.Context) bool {
	select {
	case <-r.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (r *Run) absorb(result *BatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summary.CompletedBatches++
	r.summary.Succeeded += len(result.Succeeded)
	r.summary.Failed += result.FailedCount
	r.summary.FailedRequests = append(r.summary.FailedRequests, result.FailedRequests()...)
}

func (r *Run) markStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summary.Stopped = true
	r.summary.Skipped = r.summary.TotalJobs - r.summary.Succeeded - r.summary.Failed
}

// Partition splits items into consecutive chunks of size; the last chunk may be smaller.
func Partition[T any](items []T, size int) [][]T {
	if size < 1 || len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// Run validates the requests and starts executing them in the background.
// The only errors are caller errors detected before any batch starts.
func (s *Scheduler) Run(ctx context.Context, requests []model.GenerationRequest, batchSize int) (*Run, error) {
	if len(requests) == 0 {
		return nil, ErrNoRequests
	}
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}
	for i, req := range requests {
		if strings.TrimSpace(req.Prompt) == "" {
			return nil, fmt.Errorf("request %d: %w", i, ErrEmptyPrompt)
		}
	}

	queued := append([]model.GenerationRequest(nil), requests...)
	chunks := Partition(queued, batchSize)

	buffer := s.config.EventBuffer
	if buffer < 0 {
		buffer = 0
	}
	run := &Run{
		id:     uuid.New(),
		events: make(chan Event, buffer),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		summary: Summary{
			TotalBatches: len(chunks),
			TotalJobs:    len(queued),
		},
	}

	s.logger.Info("generation run started",
		zap.String("run_id", run.id.String()),
		zap.String("provider", s.generator.Name()),
		zap.Int("requests", len(queued)),
		zap.Int("batch_size", batchSize),
		zap.Int("total_batches", len(chunks)),
	)

	go s.execute(ctx, run, chunks)
	return run, nil
}

func (s *Scheduler) execute(ctx context.Context, run *Run, chunks [][]model.GenerationRequest) {
	defer close(run.done)
	defer close(run.events)

	provider := s.generator.Name()
	total := len(chunks)

	for i, chunk := range chunks {
		if run.halted(ctx) {
			run.markStopped()
			break
		}
		if i > 0 && !s.cooldown(ctx, run, provider, i, total, chunk) {
			run.markStopped()
			break
		}

		result := s.runBatch(ctx, run, provider, i, total, chunk)
		s.limiter.Record(len(chunk))
		run.absorb(result)
		s.observer.BatchFinished(provider, len(result.Succeeded), result.FailedCount)

		s.emit(run, Event{
			Type:         EventBatchCompleted,
			BatchIndex:   i,
			TotalBatches: total,
			Message:      result.ProgressMessage,
			Result:       result,
		})
	}

	summary := run.Summary()
	message := fmt.Sprintf("Generation finished: %d succeeded, %d failed", summary.Succeeded, summary.Failed)
	if summary.Stopped {
		message = fmt.Sprintf("Generation stopped after %d/%d batches: %d succeeded, %d failed, %d skipped",
			summary.CompletedBatches, summary.TotalBatches, summary.Succeeded, summary.Failed, summary.Skipped)
	}

	s.logger.Info("generation run finished",
		zap.String("run_id", run.id.String()),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Bool("stopped", summary.Stopped),
	)

	s.emit(run, Event{
		Type:         EventRunFinished,
		BatchIndex:   summary.CompletedBatches,
		TotalBatches: total,
		Message:      message,
		Summary:      &summary,
	})
}

// cooldown waits between batches and reports a countdown. It returns false
// when the run was stopped or its context cancelled during the wait.
func (s *Scheduler) cooldown(ctx context.Context, run *Run, provider string, next, total int, chunk []model.GenerationRequest) bool {
	wait := s.config.CooldownFor(provider, chunk[0].Model)
	if !s.limiter.Reserve(len(chunk)) {
		wait = max(wait, s.limiter.ResetIn())
	}
	if wait <= 0 {
		return true
	}

	interval := s.config.ProgressInterval
	if interval <= 0 {
		interval = time.Second
	}

	started := time.Now()
	deadline := started.Add(wait)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.emitCooldown(run, next, total, wait)
	for {
		select {
		case <-timer.C:
			s.observer.CooldownWaited(provider, time.Since(started))
			return true
		case <-ticker.C:
			if left := time.Until(deadline); left > 0 {
				s.emitCooldown(run, next, total, left)
			}
		case <-run.stopCh:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

func (s *Scheduler) emitCooldown(run *Run, next, total int, left time.Duration) {
	s.emit(run, Event{
		Type:         EventCooldown,
		BatchIndex:   next,
		TotalBatches: total,
		Remaining:    left.Seconds(),
		Message: fmt.Sprintf("Waiting %ds before batch %d/%d",
			int(math.Ceil(left.Seconds())), next+1, total),
	})
}

func (s *Scheduler) runBatch(ctx context.Context, run *Run, provider string, index, total int, chunk []model.GenerationRequest) *BatchResult {
	jobs := make([]model.GenerationJob, len(chunk))
	for i, req := range chunk {
		jobs[i] = model.GenerationJob{
			ID:      uuid.New(),
			Request: req,
			Status:  model.JobStatusQueued,
		}
	}

	s.emit(run, Event{
		Type:         EventBatchStarted,
		BatchIndex:   index,
		TotalBatches: total,
		Message:      fmt.Sprintf("Generating batch %d/%d (%d jobs)", index+1, total, len(jobs)),
	})

	// In-flight jobs finish even when the run is cancelled.
	jobCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	if s.config.MaxParallelJobs > 0 {
		g.SetLimit(s.config.MaxParallelJobs)
	}
	for i := range jobs {
		g.Go(func() error {
			s.runJob(jobCtx, provider, &jobs[i])
			job := jobs[i]
			s.emit(run, Event{
				Type:         EventJobFinished,
				BatchIndex:   index,
				TotalBatches: total,
				Job:          &job,
				Message:      fmt.Sprintf("Job %s %s", job.ID, job.Status),
			})
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{
		BatchID:      uuid.New(),
		BatchIndex:   index,
		TotalBatches: total,
		Jobs:         jobs,
	}
	for _, job := range jobs {
		if job.Status == model.JobStatusCompleted {
			result.Succeeded = append(result.Succeeded, *job.Result)
			continue
		}
		result.FailedCount++
	}
	result.ProgressMessage = fmt.Sprintf("Batch %d/%d finished: %d succeeded, %d failed",
		index+1, total, len(result.Succeeded), result.FailedCount)

	return result
}

func (s *Scheduler) runJob(ctx context.Context, provider string, job *model.GenerationJob) {
	job.Status = model.JobStatusGenerating
	job.StartedAt = time.Now()

	item, err := s.generate(ctx, &job.Request)
	job.EndedAt = time.Now()

	if err != nil {
		job.Status = model.JobStatusFailed
		job.Error = err.Error()
		s.logger.Warn("generation job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("provider", provider),
			zap.Error(err),
		)
	} else {
		job.Status = model.JobStatusCompleted
		job.Result = item
		job.ResultURL = item.URL
	}

	s.observer.JobFinished(provider, job.Status, job.EndedAt.Sub(job.StartedAt))
}

func (s *Scheduler) generate(ctx context.Context, req *model.GenerationRequest) (item *model.MediaItem, err error) {
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			item, err = nil, fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()

	item, err = s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("provider returned no media")
	}

	out := *item
	if out.Prompt == "" {
		out.Prompt = req.Prompt
	}
	if out.Kind == "" {
		out.Kind = req.Kind
	}
	if out.Kind == "" {
		out.Kind = model.MediaKindImage
	}
	return &out, nil
}

func (s *Scheduler) emit(run *Run, ev Event) {
	ev.RunID = run.id
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	run.events <- ev
}
