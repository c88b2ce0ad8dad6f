package ports

import (
	"context"
	"errors"
	"time"

	"github.com/fr0stylo/ingestq/internal/app/domain"
)

var (
	// ErrNotFound indicates the requested ingestion or batch does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStatusConflict indicates a conditional status transition did not match
	// the stored status.
	ErrStatusConflict = errors.New("batch status conflict")
)

// IngestionStore is the storage contract needed by submission intake and
// status queries.
type IngestionStore interface {
	// CreateIngestion persists the ingestion and all of its batches as one unit.
	CreateIngestion(ctx context.Context, ingestion domain.Ingestion, batches []domain.Batch) error
	GetIngestion(ctx context.Context, ingestionID string) (domain.Ingestion, error)
	ListBatchesByIngestion(ctx context.Context, ingestionID string) ([]domain.Batch, error)
}

// BatchStore is the storage contract needed by the dispatcher.
type BatchStore interface {
	GetBatch(ctx context.Context, batchID string) (domain.Batch, error)
	// TransitionBatchStatus atomically moves a batch from From to To. It returns
	// ErrNotFound for an unknown batch and a StatusConflictError when the stored
	// status is not From.
	TransitionBatchStatus(ctx context.Context, transition BatchTransition) error
	ListBatchesByStatus(ctx context.Context, status domain.BatchStatus) ([]domain.Batch, error)
}

// RecordStore is the full record store used by the process wiring.
type RecordStore interface {
	IngestionStore
	BatchStore
}

// BatchTransition is one conditional status update.
type BatchTransition struct {
	BatchID     string
	From        domain.BatchStatus
	To          domain.BatchStatus
	FailedCount int
	At          time.Time
}

// StatusConflictError carries the status found when a transition was rejected.
type StatusConflictError struct {
	BatchID string
	Current domain.BatchStatus
	Wanted  domain.BatchStatus
}

func (e *StatusConflictError) Error() string {
	return "batch " + e.BatchID + " is " + e.Current.String() + ", expected " + e.Wanted.String()
}

func (e *StatusConflictError) Unwrap() error {
	return ErrStatusConflict
}

// BatchScheduler accepts persisted batches for dispatch.
type BatchScheduler interface {
	Enqueue(batches []domain.Batch)
	Pending() int
}

// RecordProcessor performs the external call for one record id.
type RecordProcessor interface {
	Process(ctx context.Context, batch domain.Batch, recordID int64) error
}
