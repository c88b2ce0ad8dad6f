package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INGESTQ_ENV", "dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Ingestion.BatchSize != 3 {
		t.Fatalf("expected batch size 3, got %d", cfg.Ingestion.BatchSize)
	}
	if cfg.Cooldown() != 5*time.Second {
		t.Fatalf("expected 5s cooldown, got %s", cfg.Cooldown())
	}
	if cfg.StaleTriggeredAfter() != time.Minute {
		t.Fatalf("expected 1m staleness, got %s", cfg.StaleTriggeredAfter())
	}
	if cfg.Processor.Kind != ProcessorSimulated || cfg.ProcessorLatency() != 500*time.Millisecond {
		t.Fatalf("unexpected processor config: %+v", cfg.Processor)
	}
	if cfg.Database.Path != "data/ingestq" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if !cfg.IsLocalDevelopment() {
		t.Fatal("expected dev to be local development")
	}
}

func TestLoadClampsBatchSizeAndParsesOrigins(t *testing.T) {
	t.Setenv("INGESTQ_BATCH_SIZE", "5000")
	t.Setenv("INGESTQ_CORS_ORIGINS", "http://localhost:3000, https://ops.example.com,")
	t.Setenv("INGESTQ_MAX_PENDING", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Ingestion.BatchSize != 1000 {
		t.Fatalf("expected clamped batch size, got %d", cfg.Ingestion.BatchSize)
	}
	if cfg.Ingestion.MaxPending != 0 {
		t.Fatalf("expected negative max pending to disable the limit, got %d", cfg.Ingestion.MaxPending)
	}
	origins := cfg.Server.AllowedOrigins
	if len(origins) != 2 || origins[0] != "http://localhost:3000" || origins[1] != "https://ops.example.com" {
		t.Fatalf("unexpected origins: %#v", origins)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port":             {"INGESTQ_PORT": "70000"},
		"rate limit":       {"INGESTQ_RATE_LIMIT_MS": "-1"},
		"processor kind":   {"INGESTQ_PROCESSOR": "carrier-pigeon"},
		"missing endpoint": {"INGESTQ_PROCESSOR": "cloudevents"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for key, value := range env {
				t.Setenv(key, value)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %v", env)
			}
		})
	}
}

func TestLoadCloudEventsProcessor(t *testing.T) {
	t.Setenv("INGESTQ_PROCESSOR", "CloudEvents")
	t.Setenv("INGESTQ_PROCESSOR_ENDPOINT", "http://sink.local/records")
	t.Setenv("INGESTQ_PROCESSOR_SECRET", " s3cret ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Processor.Kind != ProcessorCloudEvents || cfg.Processor.Secret != "s3cret" {
		t.Fatalf("unexpected processor config: %+v", cfg.Processor)
	}
	if cfg.ProcessorTimeout() != 10*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.ProcessorTimeout())
	}
}

func TestLoadParsesOTLPHeadersAndMetricsConsole(t *testing.T) {
	t.Setenv("INGESTQ_ENV", "dev")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer common,x-org=abc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_HEADERS", "x-trace=trace-only")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_HEADERS", "x-metric=metric-only")
	t.Setenv("INGESTQ_OTEL_METRICS_CONSOLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Observability.Enabled {
		t.Fatal("expected observability enabled when console metrics is true")
	}
	if cfg.Observability.OTLPTraceHeaders["authorization"] != "Bearer common" {
		t.Fatalf("expected common header to be in trace headers, got %#v", cfg.Observability.OTLPTraceHeaders)
	}
	if cfg.Observability.OTLPTraceHeaders["x-trace"] != "trace-only" {
		t.Fatalf("expected trace-specific header, got %#v", cfg.Observability.OTLPTraceHeaders)
	}
	if cfg.Observability.OTLPMetricHeaders["x-metric"] != "metric-only" {
		t.Fatalf("expected metric-specific header, got %#v", cfg.Observability.OTLPMetricHeaders)
	}
	if _, ok := cfg.Observability.OTLPMetricHeaders["x-trace"]; ok {
		t.Fatalf("trace header leaked into metric headers: %#v", cfg.Observability.OTLPMetricHeaders)
	}
}
