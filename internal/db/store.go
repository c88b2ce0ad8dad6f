package db

import (
	"context"

	"github.com/fr0stylo/ingestq/internal/app/domain"
)

// BatchCounts is the number of persisted batches in each status.
type BatchCounts struct {
	Ingestions int64
	YetToStart int64
	Triggered  int64
	Completed  int64
}

// CountBatches returns ingestion and per-status batch totals.
func (c *Database) CountBatches(ctx context.Context) (BatchCounts, error) {
	var counts BatchCounts
	var err error
	if counts.Ingestions, err = c.CountIngestions(ctx); err != nil {
		return BatchCounts{}, err
	}
	targets := map[domain.BatchStatus]*int64{
		domain.BatchStatusYetToStart: &counts.YetToStart,
		domain.BatchStatusTriggered:  &counts.Triggered,
		domain.BatchStatusCompleted:  &counts.Completed,
	}
	for status, target := range targets {
		value, err := c.CountBatchesByStatus(ctx, status.String())
		if err != nil {
			return BatchCounts{}, err
		}
		*target = value
	}
	return counts, nil
}
