package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/fr0stylo/ingestq/internal/app/domain"
	"github.com/fr0stylo/ingestq/internal/cli"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config, error) {
	v := viper.New()
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("interval", "1s")
	v.SetDefault("requests", 3)
	v.SetDefault("ids_per_request", 5)
	v.SetDefault("first_id", 1)
	v.SetDefault("priorities", []string{"HIGH", "MEDIUM", "LOW"})

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Interval = strings.TrimSpace(cfg.Interval)
	cfg.Priorities = lo.FilterMap(cfg.Priorities, func(p string, _ int) (string, bool) {
		p = strings.ToUpper(strings.TrimSpace(p))
		return p, p != ""
	})

	if cfg.BaseURL == "" {
		return config{}, fmt.Errorf("config must include base_url")
	}
	if cfg.Requests <= 0 || cfg.IDsPerCall <= 0 || cfg.FirstID <= 0 {
		return config{}, fmt.Errorf("requests, ids_per_request and first_id must be positive")
	}
	for _, p := range cfg.Priorities {
		if _, ok := domain.ParsePriority(p); !ok {
			return config{}, fmt.Errorf("invalid priority %q", p)
		}
	}
	if len(cfg.Priorities) == 0 {
		return config{}, fmt.Errorf("at least one priority is required")
	}

	parsed, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return config{}, fmt.Errorf("invalid interval duration: %w", err)
	}
	if parsed < 0 {
		return config{}, fmt.Errorf("interval must not be negative")
	}

	return cfg, nil
}

// run submits cfg.Requests ingestions with consecutive ids, cycling through
// the configured priorities, then prints the status of each one.
func run(ctx context.Context, cfg config) error {
	interval, _ := time.ParseDuration(cfg.Interval)
	client, err := cli.NewClient(cfg.BaseURL, 10*time.Second)
	if err != nil {
		return err
	}

	next := cfg.FirstID
	submitted := make([]string, 0, cfg.Requests)
	for i := range cfg.Requests {
		ids := lo.RangeFrom(next, cfg.IDsPerCall)
		next += int64(cfg.IDsPerCall)
		priority := cfg.Priorities[i%len(cfg.Priorities)]

		id, err := client.Submit(ctx, ids, priority)
		if err != nil {
			return fmt.Errorf("submit %s ingestion: %w", priority, err)
		}
		fmt.Printf("Submitted %s ingestion %s (ids %d..%d)\n", priority, id, ids[0], ids[len(ids)-1])
		submitted = append(submitted, id)

		if i < cfg.Requests-1 && interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}

	for _, id := range submitted {
		status, err := client.Status(ctx, id)
		if err != nil {
			return fmt.Errorf("status %s: %w", id, err)
		}
		fmt.Printf("Ingestion %s: %s (%d batches)\n", status.IngestionID, status.Status, len(status.Batches))
	}
	return nil
}
