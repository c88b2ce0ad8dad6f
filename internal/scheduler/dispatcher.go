package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/fr0stylo/ingestq/internal/app/domain"
	"github.com/fr0stylo/ingestq/internal/app/ports"
	"github.com/fr0stylo/ingestq/internal/observability"
)

const (
	// DefaultCooldown is the global pause after every dispatched batch.
	DefaultCooldown      = 5 * time.Second
	defaultRetryBase     = 50 * time.Millisecond
	defaultRetryAttempts = 3
)

// Config tunes the dispatch loop.
type Config struct {
	// Cooldown is waited after each batch, whichever ingestion owns it.
	Cooldown time.Duration
	// CallTimeout bounds each external call. Zero means no bound.
	CallTimeout time.Duration
	// StaleAfter is how long a batch may stay triggered before Recover resumes it.
	StaleAfter    time.Duration
	RetryBase     time.Duration
	RetryAttempts uint64
}

// Stats is a point-in-time view of scheduler activity.
type Stats struct {
	Pending     int
	Running     bool
	Dispatched  int64
	Completed   int64
	Skipped     int64
	Requeued    int64
	CallFailure int64
	Panics      int64
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithSleep replaces the cooldown wait.
func WithSleep(sleep SleepFunc) Option {
	return func(s *Scheduler) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithClock replaces the time source used for transitions and staleness.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// Scheduler runs at most one dispatch loop that drains the queue one batch at
// a time. The loop starts lazily on Enqueue and exits when the queue is empty.
type Scheduler struct {
	store     ports.BatchStore
	processor ports.RecordProcessor
	queue     *Queue
	cfg       Config
	log       *slog.Logger
	sleep     SleepFunc
	now       func() time.Time
	metrics   schedulerMetrics

	mu       sync.Mutex
	running  bool
	done     chan struct{}
	lifetime context.Context
	cancel   context.CancelFunc
	inflight string

	dispatched  atomic.Int64
	completed   atomic.Int64
	skipped     atomic.Int64
	requeued    atomic.Int64
	callFailure atomic.Int64
	panics      atomic.Int64
}

// New creates a scheduler. It does not start the loop.
func New(store ports.BatchStore, processor ports.RecordProcessor, cfg Config, opts ...Option) *Scheduler {
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = defaultRetryBase
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}

	queue := NewQueue()
	lifetime, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		store:     store,
		processor: processor,
		queue:     queue,
		cfg:       cfg,
		log:       slog.Default(),
		sleep:     sleepContext,
		now:       time.Now,
		metrics:   newSchedulerMetrics(queue),
		lifetime:  lifetime,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the scheduler to ctx, so cancelling it ends the loop, and
// re-queues every unfinished batch found in the store.
func (s *Scheduler) Start(ctx context.Context) error {
	context.AfterFunc(ctx, s.cancel)
	return s.recover(ctx, 0)
}

// Recover re-queues yet_to_start batches and resumes triggered batches that
// have not been updated for StaleAfter.
func (s *Scheduler) Recover(ctx context.Context) error {
	return s.recover(ctx, s.cfg.StaleAfter)
}

func (s *Scheduler) recover(ctx context.Context, staleAfter time.Duration) error {
	triggered, err := s.store.ListBatchesByStatus(ctx, domain.BatchStatusTriggered)
	if err != nil {
		return fmt.Errorf("list triggered batches: %w", err)
	}
	pending, err := s.store.ListBatchesByStatus(ctx, domain.BatchStatusYetToStart)
	if err != nil {
		return fmt.Errorf("list pending batches: %w", err)
	}

	s.mu.Lock()
	inflight := s.inflight
	s.mu.Unlock()

	cutoff := s.now().Add(-staleAfter)
	stale := make([]domain.Batch, 0, len(triggered))
	for _, batch := range triggered {
		if batch.ID == inflight {
			continue
		}
		if staleAfter > 0 && batch.UpdatedAt.After(cutoff) {
			continue
		}
		stale = append(stale, batch)
	}
	waiting := make([]domain.Batch, 0, len(pending))
	for _, batch := range pending {
		if batch.ID != inflight {
			waiting = append(waiting, batch)
		}
	}

	resumed := s.queue.pushResume(stale...)
	queued := s.queue.Push(waiting...)
	if resumed > 0 || queued > 0 {
		s.log.Info("scheduler_recovered", "resumed", resumed, "queued", queued)
		s.ensureRunning()
	}
	return nil
}

// Enqueue adds persisted batches to the queue and starts the loop if idle.
func (s *Scheduler) Enqueue(batches []domain.Batch) {
	if len(batches) == 0 {
		return
	}
	s.queue.Push(batches...)
	s.ensureRunning()
}

// Pending returns the number of queued batches.
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}

// Running reports whether a dispatch loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Snapshot returns queued batches in dispatch order.
func (s *Scheduler) Snapshot() []domain.Batch {
	return s.queue.Snapshot()
}

// Stats returns activity counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Pending:     s.queue.Len(),
		Running:     s.Running(),
		Dispatched:  s.dispatched.Load(),
		Completed:   s.completed.Load(),
		Skipped:     s.skipped.Load(),
		Requeued:    s.requeued.Load(),
		CallFailure: s.callFailure.Load(),
		Panics:      s.panics.Load(),
	}
}

// Stop cancels the scheduler lifetime and waits for the loop to exit.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReportStats logs scheduler counters every interval until ctx is done.
func (s *Scheduler) ReportStats(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.Stats()
			s.log.Info("scheduler_stats",
				"pending", stats.Pending,
				"running", stats.Running,
				"dispatched", stats.Dispatched,
				"completed", stats.Completed,
				"skipped", stats.Skipped,
				"requeued", stats.Requeued,
				"call_failures", stats.CallFailure,
				"panics", stats.Panics,
			)
		}
	}
}

func (s *Scheduler) ensureRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.lifetime.Err() != nil {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	go s.run(s.lifetime, s.done)
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		item, err := s.queue.pop()
		if errors.Is(err, ErrQueueEmpty) {
			s.mu.Lock()
			if s.queue.IsEmpty() {
				s.running = false
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			continue
		}

		s.dispatchSafely(ctx, item)

		if err := s.sleep(ctx, s.cfg.Cooldown); err != nil {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			s.log.Info("scheduler_stopped", "pending", s.queue.Len(), "reason", err)
			return
		}
	}
}

func (s *Scheduler) dispatchSafely(ctx context.Context, item queueItem) {
	s.mu.Lock()
	s.inflight = item.batch.ID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight = ""
		s.mu.Unlock()

		if r := recover(); r != nil {
			s.panics.Add(1)
			s.log.Error("dispatch_batch_panic",
				"batch_id", item.batch.ID,
				"ingestion_id", item.batch.IngestionID,
				"panic", fmt.Sprint(r),
			)
			s.requeue(ctx, queueItem{batch: item.batch, resume: true}, "panic")
		}
	}()

	s.dispatch(ctx, item)
}

func (s *Scheduler) dispatch(ctx context.Context, item queueItem) {
	batch := item.batch
	ctx, span := observability.StartDispatchSpan(ctx, batch.IngestionID, batch.ID, string(batch.Priority))
	defer span.End()

	// Resumed batches are already triggered; the conflict below confirms it.
	resume := item.resume
	err := s.transition(ctx, batch, domain.BatchStatusYetToStart, domain.BatchStatusTriggered, 0)
	var conflict *ports.StatusConflictError
	switch {
	case err == nil:
	case errors.Is(err, ports.ErrNotFound):
		s.skip(ctx, batch, "not_found")
		return
	case errors.As(err, &conflict) && conflict.Current == domain.BatchStatusCompleted:
		s.skip(ctx, batch, "already_completed")
		return
	case errors.As(err, &conflict) && conflict.Current == domain.BatchStatusTriggered:
		resume = true
	default:
		span.RecordError(err)
		s.log.ErrorContext(ctx, "dispatch_batch_trigger_failed", "error", err)
		s.requeue(ctx, queueItem{batch: batch}, "trigger")
		return
	}

	s.dispatched.Add(1)
	s.metrics.recordDispatched(ctx, string(batch.Priority), resume)
	started := s.now()

	failed := s.processAll(ctx, batch)
	if ctx.Err() != nil {
		s.log.WarnContext(ctx, "dispatch_batch_interrupted", "failed_count", failed)
		return
	}

	err = s.transition(ctx, batch, domain.BatchStatusTriggered, domain.BatchStatusCompleted, failed)
	switch {
	case err == nil:
	case errors.As(err, &conflict) && conflict.Current == domain.BatchStatusCompleted:
		s.skip(ctx, batch, "already_completed")
		return
	case errors.Is(err, ports.ErrNotFound):
		s.skip(ctx, batch, "not_found")
		return
	default:
		span.RecordError(err)
		s.log.ErrorContext(ctx, "dispatch_batch_complete_failed", "error", err)
		s.requeue(ctx, queueItem{batch: batch, resume: true}, "complete")
		return
	}

	s.completed.Add(1)
	s.metrics.recordCompleted(ctx, string(batch.Priority))
	s.log.InfoContext(ctx, "dispatch_batch_completed",
		"priority", batch.Priority,
		"ids", len(batch.IDs),
		"failed_count", failed,
		"resumed", resume,
		"elapsed", s.now().Sub(started),
	)
}

// processAll calls the processor for every id concurrently and returns how
// many calls failed. Failures never abort the batch.
func (s *Scheduler) processAll(ctx context.Context, batch domain.Batch) int {
	var (
		group  errgroup.Group
		failed atomic.Int64
	)
	for _, recordID := range batch.IDs {
		group.Go(func() error {
			if err := s.processOne(ctx, batch, recordID); err != nil {
				failed.Add(1)
				s.log.WarnContext(ctx, "dispatch_call_failed", "record_id", recordID, "error", err)
			}
			return nil
		})
	}
	_ = group.Wait()

	count := int(failed.Load())
	s.callFailure.Add(int64(count))
	s.metrics.recordCallFailures(ctx, count)
	return count
}

func (s *Scheduler) processOne(ctx context.Context, batch domain.Batch, recordID int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}
	return s.processor.Process(ctx, batch, recordID)
}

// transition applies one conditional status update, retrying transient store
// failures. Missing batches and status conflicts are returned without retry.
func (s *Scheduler) transition(ctx context.Context, batch domain.Batch, from, to domain.BatchStatus, failed int) error {
	backoff := retry.WithMaxRetries(s.cfg.RetryAttempts, retry.NewExponential(s.cfg.RetryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.store.TransitionBatchStatus(ctx, ports.BatchTransition{
			BatchID:     batch.ID,
			From:        from,
			To:          to,
			FailedCount: failed,
			At:          s.now(),
		})
		if err == nil || errors.Is(err, ports.ErrNotFound) || errors.Is(err, ports.ErrStatusConflict) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (s *Scheduler) skip(ctx context.Context, batch domain.Batch, reason string) {
	s.skipped.Add(1)
	s.metrics.recordSkipped(ctx, reason)
	s.log.WarnContext(ctx, "dispatch_batch_skipped", "reason", reason, "priority", batch.Priority)
}

func (s *Scheduler) requeue(ctx context.Context, item queueItem, stage string) {
	if ctx.Err() != nil {
		return
	}
	s.requeued.Add(1)
	s.metrics.recordRequeued(ctx, stage)
	if item.resume {
		s.queue.pushResume(item.batch)
		return
	}
	s.queue.Push(item.batch)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ ports.BatchScheduler = (*Scheduler)(nil)
