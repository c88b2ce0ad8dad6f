package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fr0stylo/ingestq/internal/app/domain"
	"github.com/fr0stylo/ingestq/internal/app/ports"
	"github.com/fr0stylo/ingestq/internal/db/queries"
)

type recordDatabase interface {
	GetIngestion(ctx context.Context, ingestionID string) (queries.Ingestion, error)
	GetBatch(ctx context.Context, batchID string) (queries.Batch, error)
	ListBatchesByIngestion(ctx context.Context, ingestionID string) ([]queries.Batch, error)
	ListBatchesByStatus(ctx context.Context, status string) ([]queries.Batch, error)
	WithTx(ctx context.Context, fn func(*queries.Queries) error) error
}

// RecordStore persists ingestions and batches in sqlite.
type RecordStore struct {
	db recordDatabase
}

// NewRecordStore creates a record store over a shared database handle.
func NewRecordStore(database recordDatabase) *RecordStore {
	return &RecordStore{db: database}
}

func (s *RecordStore) CreateIngestion(ctx context.Context, ingestion domain.Ingestion, batches []domain.Batch) error {
	idCount := 0
	params := make([]queries.CreateBatchParams, 0, len(batches))
	for _, batch := range batches {
		raw, err := json.Marshal(batch.IDs)
		if err != nil {
			return fmt.Errorf("encode batch %s ids: %w", batch.ID, err)
		}
		idCount += len(batch.IDs)
		params = append(params, queries.CreateBatchParams{
			BatchID:     batch.ID,
			IngestionID: ingestion.ID,
			Seq:         int64(batch.Seq),
			IdsJson:     string(raw),
			Status:      batch.Status.String(),
			Priority:    string(batch.Priority),
			CreatedTime: batch.CreatedTime.UnixNano(),
			FailedCount: int64(batch.FailedCount),
			UpdatedAt:   batch.UpdatedAt.UnixNano(),
		})
	}

	return s.db.WithTx(ctx, func(q *queries.Queries) error {
		if err := q.CreateIngestion(ctx, queries.CreateIngestionParams{
			IngestionID: ingestion.ID,
			Priority:    string(ingestion.Priority),
			CreatedTime: ingestion.CreatedTime.UnixNano(),
			IdCount:     int64(idCount),
		}); err != nil {
			return fmt.Errorf("insert ingestion: %w", err)
		}
		for _, param := range params {
			if err := q.CreateBatch(ctx, param); err != nil {
				return fmt.Errorf("insert batch %s: %w", param.BatchID, err)
			}
		}
		return nil
	})
}

func (s *RecordStore) GetIngestion(ctx context.Context, ingestionID string) (domain.Ingestion, error) {
	row, err := s.db.GetIngestion(ctx, ingestionID)
	if err != nil {
		return domain.Ingestion{}, notFound(err)
	}
	return domain.Ingestion{
		ID:          row.IngestionID,
		Priority:    domain.Priority(row.Priority),
		CreatedTime: time.Unix(0, row.CreatedTime),
	}, nil
}

func (s *RecordStore) ListBatchesByIngestion(ctx context.Context, ingestionID string) ([]domain.Batch, error) {
	rows, err := s.db.ListBatchesByIngestion(ctx, ingestionID)
	if err != nil {
		return nil, err
	}
	return toBatches(rows)
}

func (s *RecordStore) GetBatch(ctx context.Context, batchID string) (domain.Batch, error) {
	row, err := s.db.GetBatch(ctx, batchID)
	if err != nil {
		return domain.Batch{}, notFound(err)
	}
	return toBatch(row)
}

// TransitionBatchStatus applies a compare-and-set on the stored status so a
// transition always lands on the current row and never moves backwards.
func (s *RecordStore) TransitionBatchStatus(ctx context.Context, transition ports.BatchTransition) error {
	if !transition.From.CanTransitionTo(transition.To) {
		return fmt.Errorf("invalid transition %s -> %s", transition.From, transition.To)
	}
	at := transition.At
	if at.IsZero() {
		at = time.Now()
	}

	return s.db.WithTx(ctx, func(q *queries.Queries) error {
		affected, err := q.UpdateBatchStatus(ctx, queries.UpdateBatchStatusParams{
			ToStatus:    transition.To.String(),
			FailedCount: int64(transition.FailedCount),
			UpdatedAt:   at.UnixNano(),
			BatchID:     transition.BatchID,
			FromStatus:  transition.From.String(),
		})
		if err != nil {
			return err
		}
		if affected == 1 {
			return nil
		}
		current, err := q.GetBatch(ctx, transition.BatchID)
		if err != nil {
			return notFound(err)
		}
		return &ports.StatusConflictError{
			BatchID: transition.BatchID,
			Current: domain.BatchStatus(current.Status),
			Wanted:  transition.From,
		}
	})
}

func (s *RecordStore) ListBatchesByStatus(ctx context.Context, status domain.BatchStatus) ([]domain.Batch, error) {
	rows, err := s.db.ListBatchesByStatus(ctx, status.String())
	if err != nil {
		return nil, err
	}
	return toBatches(rows)
}

func toBatches(rows []queries.Batch) ([]domain.Batch, error) {
	batches := make([]domain.Batch, 0, len(rows))
	for _, row := range rows {
		batch, err := toBatch(row)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func toBatch(row queries.Batch) (domain.Batch, error) {
	var ids []int64
	if err := json.Unmarshal([]byte(row.IdsJson), &ids); err != nil {
		return domain.Batch{}, fmt.Errorf("decode batch %s ids: %w", row.BatchID, err)
	}
	return domain.Batch{
		ID:          row.BatchID,
		IngestionID: row.IngestionID,
		Seq:         int(row.Seq),
		IDs:         ids,
		Status:      domain.BatchStatus(row.Status),
		Priority:    domain.Priority(row.Priority),
		CreatedTime: time.Unix(0, row.CreatedTime),
		FailedCount: int(row.FailedCount),
		UpdatedAt:   time.Unix(0, row.UpdatedAt),
	}, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	return err
}

var _ ports.RecordStore = (*RecordStore)(nil)
