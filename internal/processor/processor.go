// Package processor holds the external call made for every record id of a
// dispatched batch.
package processor

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fr0stylo/ingestq/internal/app/ports"
)

const (
	KindSimulated   = "simulated"
	KindCloudEvents = "cloudevents"
)

// Config selects and tunes the processor implementation.
type Config struct {
	Kind     string
	Latency  time.Duration
	Endpoint string
	Secret   string
	Timeout  time.Duration
}

// New builds the processor named by cfg.Kind. An empty kind is simulated.
func New(cfg Config, log *slog.Logger) (ports.RecordProcessor, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", KindSimulated:
		return NewSimulated(cfg.Latency, log), nil
	case KindCloudEvents:
		return NewCloudEvents(cfg.Endpoint, cfg.Secret, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown processor kind %q", cfg.Kind)
	}
}
