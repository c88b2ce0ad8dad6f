package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fr0stylo/ingestq/internal/app/domain"
	"github.com/fr0stylo/ingestq/internal/app/ports"
)

const waitFor = 2 * time.Second

type memoryStore struct {
	mu              sync.Mutex
	batches         map[string]domain.Batch
	completedOrder  []string
	triggered       int
	maxTriggered    int
	failTransitions int
	transitions     int
}

func newMemoryStore(batches ...domain.Batch) *memoryStore {
	store := &memoryStore{batches: make(map[string]domain.Batch)}
	for _, batch := range batches {
		store.batches[batch.ID] = batch
		if batch.Status == domain.BatchStatusTriggered {
			store.triggered++
		}
	}
	store.maxTriggered = store.triggered
	return store
}

func (m *memoryStore) GetBatch(_ context.Context, batchID string) (domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[batchID]
	if !ok {
		return domain.Batch{}, ports.ErrNotFound
	}
	return batch, nil
}

func (m *memoryStore) TransitionBatchStatus(_ context.Context, transition ports.BatchTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transitions++
	if m.failTransitions > 0 {
		m.failTransitions--
		return errors.New("database is locked")
	}
	batch, ok := m.batches[transition.BatchID]
	if !ok {
		return ports.ErrNotFound
	}
	if batch.Status != transition.From {
		return &ports.StatusConflictError{BatchID: batch.ID, Current: batch.Status, Wanted: transition.From}
	}
	batch.Status = transition.To
	batch.FailedCount = transition.FailedCount
	batch.UpdatedAt = transition.At
	m.batches[batch.ID] = batch

	switch transition.To {
	case domain.BatchStatusTriggered:
		m.triggered++
		m.maxTriggered = max(m.maxTriggered, m.triggered)
	case domain.BatchStatusCompleted:
		m.triggered--
		m.completedOrder = append(m.completedOrder, batch.ID)
	}
	return nil
}

func (m *memoryStore) ListBatchesByStatus(_ context.Context, status domain.BatchStatus) ([]domain.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Batch
	for _, batch := range m.batches {
		if batch.Status == status {
			out = append(out, batch)
		}
	}
	return out, nil
}

func (m *memoryStore) status(batchID string) domain.BatchStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches[batchID].Status
}

func (m *memoryStore) completed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.completedOrder...)
}

func (m *memoryStore) peakTriggered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxTriggered
}

type gatedProcessor struct {
	gate    chan struct{}
	started chan int64
	fail    map[int64]error
	panicOn int64

	mu    sync.Mutex
	calls []int64
}

func newGatedProcessor(blocked bool) *gatedProcessor {
	p := &gatedProcessor{started: make(chan int64, 64), fail: map[int64]error{}}
	if blocked {
		p.gate = make(chan struct{})
	}
	return p
}

func (p *gatedProcessor) Process(ctx context.Context, _ domain.Batch, recordID int64) error {
	select {
	case p.started <- recordID:
	default:
	}
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if p.panicOn != 0 && recordID == p.panicOn {
		panic("processor exploded")
	}
	p.mu.Lock()
	p.calls = append(p.calls, recordID)
	p.mu.Unlock()
	return p.fail[recordID]
}

func (p *gatedProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sleeps)
}

func newTestScheduler(t *testing.T, store ports.BatchStore, processor ports.RecordProcessor, cfg Config, opts ...Option) (*Scheduler, *sleepRecorder) {
	t.Helper()
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}
	cfg.RetryBase = time.Millisecond
	recorder := &sleepRecorder{}
	opts = append([]Option{
		WithSleep(recorder.sleep),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	s := New(store, processor, cfg, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s, recorder
}

func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !s.Running() && s.Pending() == 0
	}, waitFor, 5*time.Millisecond)
}

func waitStarted(t *testing.T, p *gatedProcessor) {
	t.Helper()
	select {
	case <-p.started:
	case <-time.After(waitFor):
		t.Fatal("processor was not called")
	}
}

func TestSchedulerDispatchesHigherPriorityFirstWithoutPreemption(t *testing.T) {
	t.Parallel()

	low := testBatch("low", domain.PriorityLow, baseTime)
	medium := testBatch("medium", domain.PriorityMedium, baseTime.Add(time.Second))
	high := testBatch("high", domain.PriorityHigh, baseTime.Add(2*time.Second))
	store := newMemoryStore(low, medium, high)
	processor := newGatedProcessor(true)
	s, _ := newTestScheduler(t, store, processor, Config{})

	s.Enqueue([]domain.Batch{low})
	waitStarted(t, processor)
	s.Enqueue([]domain.Batch{medium})
	s.Enqueue([]domain.Batch{high})

	require.Equal(t, domain.BatchStatusTriggered, store.status("low"))
	require.Equal(t, 2, s.Pending())

	close(processor.gate)
	waitIdle(t, s)

	require.Equal(t, []string{"low", "high", "medium"}, store.completed())
	require.Equal(t, 1, store.peakTriggered())
}

func TestSchedulerNeverCompletesBeforeCallsFinish(t *testing.T) {
	t.Parallel()

	batch := testBatch("b1", domain.PriorityHigh, baseTime)
	batch.IDs = []int64{1, 2, 3}
	store := newMemoryStore(batch)
	processor := newGatedProcessor(true)
	s, _ := newTestScheduler(t, store, processor, Config{})

	s.Enqueue([]domain.Batch{batch})
	waitStarted(t, processor)
	require.Equal(t, domain.BatchStatusTriggered, store.status("b1"))

	close(processor.gate)
	waitIdle(t, s)
	require.Equal(t, domain.BatchStatusCompleted, store.status("b1"))
	require.Equal(t, 3, processor.callCount())
}

func TestSchedulerWaitsCooldownAfterEveryBatch(t *testing.T) {
	t.Parallel()

	batches := []domain.Batch{
		testBatch("a", domain.PriorityHigh, baseTime),
		testBatch("b", domain.PriorityHigh, baseTime.Add(time.Second)),
		testBatch("c", domain.PriorityLow, baseTime),
	}
	store := newMemoryStore(batches...)
	s, recorder := newTestScheduler(t, store, newGatedProcessor(false), Config{Cooldown: 5 * time.Second})

	s.Enqueue(batches)
	waitIdle(t, s)

	require.Equal(t, 3, recorder.count())
	for _, d := range recorder.sleeps {
		require.Equal(t, 5*time.Second, d)
	}
}

func TestSchedulerCountsFailedCallsAndStillCompletes(t *testing.T) {
	t.Parallel()

	batch := testBatch("b1", domain.PriorityMedium, baseTime)
	batch.IDs = []int64{1, 2, 3}
	store := newMemoryStore(batch)
	processor := newGatedProcessor(false)
	processor.fail[2] = errors.New("upstream 502")
	processor.panicOn = 3
	s, _ := newTestScheduler(t, store, processor, Config{})

	s.Enqueue([]domain.Batch{batch})
	waitIdle(t, s)

	stored, err := store.GetBatch(context.Background(), "b1")
	require.NoError(t, err)
	require.Equal(t, domain.BatchStatusCompleted, stored.Status)
	require.Equal(t, 2, stored.FailedCount)
	require.Equal(t, int64(2), s.Stats().CallFailure)
}

func TestSchedulerSkipsMissingBatchAndContinues(t *testing.T) {
	t.Parallel()

	ghost := testBatch("ghost", domain.PriorityHigh, baseTime)
	present := testBatch("real", domain.PriorityLow, baseTime)
	store := newMemoryStore(present)
	s, _ := newTestScheduler(t, store, newGatedProcessor(false), Config{})

	s.Enqueue([]domain.Batch{ghost, present})
	waitIdle(t, s)

	require.Equal(t, []string{"real"}, store.completed())
	require.Equal(t, int64(1), s.Stats().Skipped)
}

func TestSchedulerSkipsAlreadyCompletedBatch(t *testing.T) {
	t.Parallel()

	done := testBatch("done", domain.PriorityHigh, baseTime)
	done.Status = domain.BatchStatusCompleted
	store := newMemoryStore(done)
	processor := newGatedProcessor(false)
	s, _ := newTestScheduler(t, store, processor, Config{})

	s.Enqueue([]domain.Batch{done})
	waitIdle(t, s)

	require.Zero(t, processor.callCount())
	require.Equal(t, domain.BatchStatusCompleted, store.status("done"))
}

func TestSchedulerRetriesTransientStoreErrors(t *testing.T) {
	t.Parallel()

	batch := testBatch("b1", domain.PriorityHigh, baseTime)
	store := newMemoryStore(batch)
	store.failTransitions = 2
	s, _ := newTestScheduler(t, store, newGatedProcessor(false), Config{RetryAttempts: 3})

	s.Enqueue([]domain.Batch{batch})
	waitIdle(t, s)

	require.Equal(t, domain.BatchStatusCompleted, store.status("b1"))
	require.Zero(t, s.Stats().Requeued)
}

func TestSchedulerRequeuesWhenStoreKeepsFailing(t *testing.T) {
	t.Parallel()

	batch := testBatch("b1", domain.PriorityHigh, baseTime)
	store := newMemoryStore(batch)
	// One retry means two attempts per dispatch: the first dispatch fails
	// entirely and the second one gets through on its second attempt.
	store.failTransitions = 3
	s, _ := newTestScheduler(t, store, newGatedProcessor(false), Config{RetryAttempts: 1})

	s.Enqueue([]domain.Batch{batch})
	waitIdle(t, s)

	require.Equal(t, domain.BatchStatusCompleted, store.status("b1"))
	require.Equal(t, int64(1), s.Stats().Requeued)
}

func TestSchedulerRestartsLazilyAfterIdle(t *testing.T) {
	t.Parallel()

	first := testBatch("first", domain.PriorityLow, baseTime)
	second := testBatch("second", domain.PriorityLow, baseTime.Add(time.Minute))
	store := newMemoryStore(first, second)
	s, _ := newTestScheduler(t, store, newGatedProcessor(false), Config{})

	s.Enqueue([]domain.Batch{first})
	waitIdle(t, s)
	require.False(t, s.Running())

	s.Enqueue([]domain.Batch{second})
	waitIdle(t, s)
	require.Equal(t, []string{"first", "second"}, store.completed())
}

func TestSchedulerStartResumesTriggeredBatchFirst(t *testing.T) {
	t.Parallel()

	stuck := testBatch("stuck", domain.PriorityLow, baseTime)
	stuck.Status = domain.BatchStatusTriggered
	waiting := testBatch("waiting", domain.PriorityHigh, baseTime)
	store := newMemoryStore(stuck, waiting)
	s, _ := newTestScheduler(t, store, newGatedProcessor(false), Config{})

	require.NoError(t, s.Start(context.Background()))
	waitIdle(t, s)

	require.Equal(t, []string{"stuck", "waiting"}, store.completed())
	require.Equal(t, 1, store.peakTriggered())
}

func TestSchedulerRecoverOnlyResumesStaleBatches(t *testing.T) {
	t.Parallel()

	now := baseTime.Add(time.Hour)
	fresh := testBatch("fresh", domain.PriorityHigh, baseTime)
	fresh.Status = domain.BatchStatusTriggered
	fresh.UpdatedAt = now.Add(-time.Second)
	stale := testBatch("stale", domain.PriorityHigh, baseTime)
	stale.Status = domain.BatchStatusTriggered
	stale.UpdatedAt = now.Add(-10 * time.Minute)

	store := newMemoryStore(fresh, stale)
	processor := newGatedProcessor(true)
	s, _ := newTestScheduler(t, store, processor, Config{StaleAfter: time.Minute}, WithClock(func() time.Time { return now }))

	require.NoError(t, s.Recover(context.Background()))
	waitStarted(t, processor)
	close(processor.gate)
	waitIdle(t, s)

	require.Equal(t, []string{"stale"}, store.completed())
	require.Equal(t, domain.BatchStatusTriggered, store.status("fresh"))
}

func TestSchedulerStopEndsLoopAndRejectsNewWork(t *testing.T) {
	t.Parallel()

	batch := testBatch("b1", domain.PriorityHigh, baseTime)
	later := testBatch("b2", domain.PriorityHigh, baseTime)
	store := newMemoryStore(batch, later)
	processor := newGatedProcessor(true)
	s, _ := newTestScheduler(t, store, processor, Config{})

	s.Enqueue([]domain.Batch{batch})
	waitStarted(t, processor)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.False(t, s.Running())
	// Interrupted batches stay triggered for the next start.
	require.Equal(t, domain.BatchStatusTriggered, store.status("b1"))

	s.Enqueue([]domain.Batch{later})
	require.False(t, s.Running())
	require.Equal(t, domain.BatchStatusYetToStart, store.status("b2"))
}

func TestSchedulerBoundsEachCall(t *testing.T) {
	t.Parallel()

	batch := testBatch("slow", domain.PriorityHigh, baseTime)
	store := newMemoryStore(batch)
	processor := newGatedProcessor(true)
	s, _ := newTestScheduler(t, store, processor, Config{CallTimeout: 10 * time.Millisecond})

	s.Enqueue([]domain.Batch{batch})
	waitIdle(t, s)

	stored, err := store.GetBatch(context.Background(), "slow")
	require.NoError(t, err)
	require.Equal(t, domain.BatchStatusCompleted, stored.Status)
	require.Equal(t, 1, stored.FailedCount)
}
