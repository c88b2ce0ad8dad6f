package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fr0stylo/ingestq/internal/app/domain"
)

var baseTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testBatch(id string, priority domain.Priority, created time.Time) domain.Batch {
	return domain.Batch{
		ID:          id,
		IngestionID: "ing-" + id,
		IDs:         []int64{1},
		Status:      domain.BatchStatusYetToStart,
		Priority:    priority,
		CreatedTime: created,
		UpdatedAt:   created,
	}
}

func popIDs(t *testing.T, q *Queue) []string {
	t.Helper()
	var ids []string
	for {
		batch, err := q.PopHighest()
		if errors.Is(err, ErrQueueEmpty) {
			return ids
		}
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		ids = append(ids, batch.ID)
	}
}

func TestQueueOrdersByPriorityThenCreatedTime(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	q.Push(testBatch("low", domain.PriorityLow, baseTime))
	q.Push(testBatch("high-late", domain.PriorityHigh, baseTime.Add(2*time.Second)))
	q.Push(testBatch("medium", domain.PriorityMedium, baseTime.Add(-time.Hour)))
	q.Push(testBatch("high-early", domain.PriorityHigh, baseTime.Add(time.Second)))

	got := popIDs(t, q)
	want := []string{"high-early", "high-late", "medium", "low"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("unexpected pop order: got %v want %v", got, want)
	}
}

func TestQueueKeepsPushOrderForEqualTimestamps(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	for i := range 5 {
		q.Push(testBatch(fmt.Sprintf("b%d", i), domain.PriorityMedium, baseTime))
	}

	got := popIDs(t, q)
	if fmt.Sprint(got) != "[b0 b1 b2 b3 b4]" {
		t.Fatalf("expected FIFO order, got %v", got)
	}
}

func TestQueuePopEmpty(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	if !q.IsEmpty() {
		t.Fatal("new queue should be empty")
	}
	if _, err := q.PopHighest(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}
}

func TestQueueIgnoresAlreadyQueuedBatch(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	batch := testBatch("dup", domain.PriorityLow, baseTime)
	if added := q.Push(batch, batch); added != 1 {
		t.Fatalf("expected one batch added, got %d", added)
	}
	if added := q.Push(batch); added != 0 {
		t.Fatalf("expected duplicate push to be ignored, got %d", added)
	}
	if _, err := q.PopHighest(); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if added := q.Push(batch); added != 1 {
		t.Fatalf("expected popped batch to be pushable again, got %d", added)
	}
}

func TestQueueResumedBatchesGoFirst(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	q.Push(testBatch("high", domain.PriorityHigh, baseTime))
	q.pushResume(testBatch("resumed-low", domain.PriorityLow, baseTime.Add(time.Minute)))

	snapshot := q.Snapshot()
	if len(snapshot) != 2 || snapshot[0].ID != "resumed-low" {
		t.Fatalf("expected resumed batch first, got %+v", snapshot)
	}
	if q.Len() != 2 {
		t.Fatalf("snapshot must not drain the queue, len=%d", q.Len())
	}
}

func TestQueueConcurrentPushPopLosesNothing(t *testing.T) {
	t.Parallel()

	const (
		producers = 8
		perWorker = 100
	)
	q := NewQueue()
	priorities := []domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow}

	var (
		wg     sync.WaitGroup
		seenMu sync.Mutex
		seen   = make(map[string]int)
	)
	record := func(id string) {
		seenMu.Lock()
		seen[id]++
		seenMu.Unlock()
	}

	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				id := fmt.Sprintf("p%d-%d", p, i)
				q.Push(testBatch(id, priorities[i%len(priorities)], baseTime.Add(time.Duration(i))))
			}
		}()
	}
	for range producers / 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				if batch, err := q.PopHighest(); err == nil {
					record(batch.ID)
				}
			}
		}()
	}
	wg.Wait()

	for _, id := range popIDs(t, q) {
		record(id)
	}

	if len(seen) != producers*perWorker {
		t.Fatalf("expected %d distinct batches, got %d", producers*perWorker, len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("batch %s popped %d times", id, count)
		}
	}
}
