package scheduler

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type schedulerMetrics struct {
	dispatched  metric.Int64Counter
	completed   metric.Int64Counter
	skipped     metric.Int64Counter
	requeued    metric.Int64Counter
	callFailure metric.Int64Counter
}

func newSchedulerMetrics(queue *Queue) schedulerMetrics {
	meter := otel.Meter("github.com/fr0stylo/ingestq/internal/scheduler")
	dispatched, _ := meter.Int64Counter("ingestq.scheduler.batches_dispatched")
	completed, _ := meter.Int64Counter("ingestq.scheduler.batches_completed")
	skipped, _ := meter.Int64Counter("ingestq.scheduler.batches_skipped")
	requeued, _ := meter.Int64Counter("ingestq.scheduler.batches_requeued")
	callFailure, _ := meter.Int64Counter("ingestq.scheduler.call_failures")
	_, _ = meter.Int64ObservableGauge("ingestq.scheduler.queue_depth",
		metric.WithInt64Callback(func(_ context.Context, observer metric.Int64Observer) error {
			observer.Observe(int64(queue.Len()))
			return nil
		}),
	)
	return schedulerMetrics{
		dispatched:  dispatched,
		completed:   completed,
		skipped:     skipped,
		requeued:    requeued,
		callFailure: callFailure,
	}
}

func (m schedulerMetrics) recordDispatched(ctx context.Context, priority string, resume bool) {
	m.dispatched.Add(ctx, 1, metric.WithAttributes(
		attribute.String("priority", priority),
		attribute.Bool("resume", resume),
	))
}

func (m schedulerMetrics) recordCompleted(ctx context.Context, priority string) {
	m.completed.Add(ctx, 1, metric.WithAttributes(attribute.String("priority", priority)))
}

func (m schedulerMetrics) recordSkipped(ctx context.Context, reason string) {
	m.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m schedulerMetrics) recordRequeued(ctx context.Context, stage string) {
	m.requeued.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func (m schedulerMetrics) recordCallFailures(ctx context.Context, count int) {
	if count <= 0 {
		return
	}
	m.callFailure.Add(ctx, int64(count))
}
