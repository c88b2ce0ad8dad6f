package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/fr0stylo/ingestq/internal/app/domain"
	"github.com/fr0stylo/ingestq/internal/app/ports"
)

// DefaultLatency is the simulated duration of one external call.
const DefaultLatency = 500 * time.Millisecond

// Simulated stands in for the external service: every call takes a fixed
// latency and succeeds unless the context ends first.
type Simulated struct {
	Latency time.Duration
	Log     *slog.Logger
}

// NewSimulated creates a simulated processor.
func NewSimulated(latency time.Duration, log *slog.Logger) *Simulated {
	if latency < 0 {
		latency = 0
	}
	if log == nil {
		log = slog.Default()
	}
	return &Simulated{Latency: latency, Log: log}
}

func (p *Simulated) Process(ctx context.Context, batch domain.Batch, recordID int64) error {
	timer := time.NewTimer(p.Latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	p.Log.DebugContext(ctx, "record_processed", "record_id", recordID, "seq", batch.Seq)
	return nil
}

var _ ports.RecordProcessor = (*Simulated)(nil)
