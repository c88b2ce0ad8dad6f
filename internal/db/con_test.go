package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fr0stylo/ingestq/internal/db/queries"
)

func TestNewAppliesMigrationsAndCountsBatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database, err := New(filepath.Join(t.TempDir(), "nested", "counts"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	err = database.WithTx(ctx, func(q *queries.Queries) error {
		if err := q.CreateIngestion(ctx, queries.CreateIngestionParams{
			IngestionID: "ing-1",
			Priority:    "HIGH",
			CreatedTime: 1,
			IdCount:     4,
		}); err != nil {
			return err
		}
		for seq, status := range []string{"completed", "yet_to_start"} {
			if err := q.CreateBatch(ctx, queries.CreateBatchParams{
				BatchID:     "batch-" + status,
				IngestionID: "ing-1",
				Seq:         int64(seq),
				IdsJson:     "[1,2]",
				Status:      status,
				Priority:    "HIGH",
				CreatedTime: 1,
				UpdatedAt:   1,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	counts, err := database.CountBatches(ctx)
	if err != nil {
		t.Fatalf("count batches: %v", err)
	}
	if counts.Ingestions != 1 || counts.Completed != 1 || counts.YetToStart != 1 || counts.Triggered != 0 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	stats := database.QueryLatencyStats()
	if len(stats) == 0 {
		t.Fatal("expected query latency samples after running queries")
	}
}

func TestNewIsIdempotentAcrossReopen(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "reopen")
	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })
	if err := second.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database, err := New(filepath.Join(t.TempDir(), "rollback"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	err = database.WithTx(ctx, func(q *queries.Queries) error {
		if err := q.CreateIngestion(ctx, queries.CreateIngestionParams{IngestionID: "ing-x", Priority: "LOW", CreatedTime: 1, IdCount: 1}); err != nil {
			return err
		}
		// Unknown owner violates the batches foreign key.
		return q.CreateBatch(ctx, queries.CreateBatchParams{BatchID: "b", IngestionID: "missing", IdsJson: "[1]", Status: "yet_to_start", Priority: "LOW"})
	})
	if err == nil {
		t.Fatal("expected foreign key failure")
	}

	count, err := database.CountIngestions(ctx)
	if err != nil {
		t.Fatalf("count ingestions: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to discard ingestion, got %d rows", count)
	}
}

func TestQueryName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"-- name: GetBatch :one\nSELECT 1": "GetBatch",
		"SELECT 1":                          "unknown",
		"-- name:":                          "unknown",
	}
	for query, want := range cases {
		if got := queryName(query); got != want {
			t.Fatalf("queryName(%q) = %q, want %q", query, got, want)
		}
	}
}

func TestQueryLatencyTrackerKeepsBoundedWindow(t *testing.T) {
	t.Parallel()

	tracker := newQueryLatencyTracker()
	for i := 0; i < maxSamplesPerQuery+10; i++ {
		tracker.observe("Slow", time.Duration(i)*time.Millisecond)
	}
	tracker.observe("Fast", time.Microsecond)

	stats := tracker.snapshot()
	if len(stats) != 2 {
		t.Fatalf("expected 2 query stats, got %d", len(stats))
	}
	if stats[0].Name != "Slow" || stats[0].Count != maxSamplesPerQuery {
		t.Fatalf("unexpected slowest entry: %+v", stats[0])
	}
	if !strings.EqualFold(stats[1].Name, "fast") {
		t.Fatalf("unexpected second entry: %+v", stats[1])
	}
}
