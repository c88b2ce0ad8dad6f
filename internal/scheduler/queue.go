package scheduler

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"github.com/fr0stylo/ingestq/internal/app/domain"
)

// ErrQueueEmpty is returned by PopHighest when nothing is pending.
var ErrQueueEmpty = errors.New("queue is empty")

type queueItem struct {
	batch  domain.Batch
	seq    uint64
	resume bool
}

// Queue orders pending batches by priority rank, then creation time, then
// push order. Batches already queued are not queued twice.
type Queue struct {
	mu     sync.Mutex
	items  []queueItem
	queued map[string]struct{}
	next   uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{queued: make(map[string]struct{})}
}

// Push adds batches and re-sorts. It reports how many were added.
func (q *Queue) Push(batches ...domain.Batch) int {
	return q.push(false, batches...)
}

// pushResume adds batches that are already triggered; they sort ahead of
// everything else so the running batch is finished before a new one starts.
func (q *Queue) pushResume(batches ...domain.Batch) int {
	return q.push(true, batches...)
}

func (q *Queue) push(resume bool, batches ...domain.Batch) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := 0
	for _, batch := range batches {
		if _, ok := q.queued[batch.ID]; ok {
			continue
		}
		q.next++
		q.items = append(q.items, queueItem{batch: batch, seq: q.next, resume: resume})
		q.queued[batch.ID] = struct{}{}
		added++
	}
	if added > 0 {
		q.sortLocked()
	}
	return added
}

// PopHighest removes and returns the highest ranked batch.
func (q *Queue) PopHighest() (domain.Batch, error) {
	item, err := q.pop()
	return item.batch, err
}

func (q *Queue) pop() (queueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return queueItem{}, ErrQueueEmpty
	}
	q.sortLocked()
	item := q.items[0]
	q.items[0] = queueItem{}
	q.items = q.items[1:]
	delete(q.queued, item.batch.ID)
	return item, nil
}

// IsEmpty reports whether nothing is pending.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Len returns the number of pending batches.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns pending batches in dispatch order.
func (q *Queue) Snapshot() []domain.Batch {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sortLocked()
	out := make([]domain.Batch, 0, len(q.items))
	for _, item := range q.items {
		out = append(out, item.batch)
	}
	return out
}

func (q *Queue) sortLocked() {
	slices.SortStableFunc(q.items, compareItems)
}

func compareItems(a, b queueItem) int {
	if a.resume != b.resume {
		if a.resume {
			return -1
		}
		return 1
	}
	if rank := cmp.Compare(b.batch.Priority.Rank(), a.batch.Priority.Rank()); rank != 0 {
		return rank
	}
	if created := a.batch.CreatedTime.Compare(b.batch.CreatedTime); created != 0 {
		return created
	}
	return cmp.Compare(a.seq, b.seq)
}
