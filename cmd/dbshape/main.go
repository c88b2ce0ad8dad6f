package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/joho/godotenv"

	"github.com/fr0stylo/ingestq/internal/adapters/sqlite"
	"github.com/fr0stylo/ingestq/internal/app/domain"
	"github.com/fr0stylo/ingestq/internal/config"
	"github.com/fr0stylo/ingestq/internal/db"
)

func main() {
	var (
		dbPath string
		top    int
	)

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	flag.StringVar(&dbPath, "db", cfg.Database.Path, "database path without .sqlite suffix")
	flag.IntVar(&top, "top", 10, "number of oldest unfinished batches to list")
	flag.Parse()

	ctx := context.Background()
	database, err := db.New(dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	counts, err := database.CountBatches(ctx)
	if err != nil {
		log.Fatalf("count batches: %v", err)
	}

	fmt.Printf("ingestions: %d\n", counts.Ingestions)
	fmt.Printf("batches yet_to_start: %d\n", counts.YetToStart)
	fmt.Printf("batches triggered: %d\n", counts.Triggered)
	fmt.Printf("batches completed: %d\n", counts.Completed)

	pendingTotal := counts.YetToStart + counts.Triggered
	fmt.Printf("estimated drain time at %s cooldown: %s\n", cfg.Cooldown(), time.Duration(pendingTotal)*cfg.Cooldown())

	store := sqlite.NewRecordStore(database)
	triggered, err := store.ListBatchesByStatus(ctx, domain.BatchStatusTriggered)
	if err != nil {
		log.Fatalf("list triggered batches: %v", err)
	}
	slices.SortFunc(triggered, func(a, b domain.Batch) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})

	stale := cfg.StaleTriggeredAfter()
	fmt.Printf("\nOldest triggered batches (stale after %s):\n", stale)
	now := time.Now()
	for _, batch := range triggered[:min(top, len(triggered))] {
		age := now.Sub(batch.UpdatedAt).Truncate(time.Second)
		marker := ""
		if stale > 0 && age >= stale {
			marker = " stale"
		}
		fmt.Printf("- %s ingestion=%s priority=%s age=%s%s\n", batch.ID, batch.IngestionID, batch.Priority, age, marker)
	}
}
