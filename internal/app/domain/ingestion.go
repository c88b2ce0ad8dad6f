package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidArgument indicates a malformed input to a pure domain operation.
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultBatchSize is the number of record ids dispatched per batch.
const DefaultBatchSize = 3

// Priority orders ingestions in the dispatch queue.
type Priority string

const (
	// PriorityHigh is dispatched before every other priority.
	PriorityHigh Priority = "HIGH"
	// PriorityMedium is dispatched after HIGH and before LOW.
	PriorityMedium Priority = "MEDIUM"
	// PriorityLow is dispatched last.
	PriorityLow Priority = "LOW"
)

// Rank returns the numeric ordering weight. Unknown priorities rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// ParsePriority normalizes user input into a Priority.
func ParsePriority(value string) (Priority, bool) {
	p := Priority(strings.ToUpper(strings.TrimSpace(value)))
	return p, p.Valid()
}

// BatchStatus is the dispatch state of one batch.
type BatchStatus string

const (
	// BatchStatusYetToStart marks a batch waiting in the queue.
	BatchStatusYetToStart BatchStatus = "yet_to_start"
	// BatchStatusTriggered marks the batch currently being dispatched.
	BatchStatusTriggered BatchStatus = "triggered"
	// BatchStatusCompleted marks a finished batch.
	BatchStatusCompleted BatchStatus = "completed"
)

func (s BatchStatus) String() string { return string(s) }

func (s BatchStatus) order() int {
	switch s {
	case BatchStatusYetToStart:
		return 1
	case BatchStatusTriggered:
		return 2
	case BatchStatusCompleted:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is a known status.
func (s BatchStatus) Valid() bool {
	return s.order() > 0
}

// CanTransitionTo reports whether moving from s to next is a single forward step.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	return s.Valid() && next.Valid() && next.order() == s.order()+1
}

// After reports whether s is strictly further along than other.
func (s BatchStatus) After(other BatchStatus) bool {
	return s.order() > other.order()
}

// Ingestion is one accepted submission. It is immutable once created.
type Ingestion struct {
	ID          string
	Priority    Priority
	CreatedTime time.Time
}

// Batch is a contiguous slice of an ingestion's ids dispatched as one unit.
// Priority and CreatedTime are copied from the owning ingestion.
type Batch struct {
	ID          string
	IngestionID string
	Seq         int
	IDs         []int64
	Status      BatchStatus
	Priority    Priority
	CreatedTime time.Time
	FailedCount int
	UpdatedAt   time.Time
}
