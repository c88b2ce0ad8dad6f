package domain

import (
	"fmt"

	"github.com/samber/lo"
)

// SplitIDs partitions ids into order-preserving chunks of size, the last
// chunk holding the remainder. Chunks never share memory with ids.
func SplitIDs(ids []int64, size int) ([][]int64, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ids must not be empty", ErrInvalidArgument)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidArgument, size)
	}

	chunks := lo.Chunk(ids, size)
	out := make([][]int64, 0, len(chunks))
	for _, chunk := range chunks {
		out = append(out, append([]int64(nil), chunk...))
	}
	return out, nil
}

// NewBatches splits ids and builds yet_to_start batches owned by ingestion.
// newID is called once per batch.
func NewBatches(ingestion Ingestion, ids []int64, size int, newID func() string) ([]Batch, error) {
	chunks, err := SplitIDs(ids, size)
	if err != nil {
		return nil, err
	}
	batches := make([]Batch, 0, len(chunks))
	for seq, chunk := range chunks {
		batches = append(batches, Batch{
			ID:          newID(),
			IngestionID: ingestion.ID,
			Seq:         seq,
			IDs:         chunk,
			Status:      BatchStatusYetToStart,
			Priority:    ingestion.Priority,
			CreatedTime: ingestion.CreatedTime,
			UpdatedAt:   ingestion.CreatedTime,
		})
	}
	return batches, nil
}
