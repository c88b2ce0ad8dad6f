package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProcessorSimulated   = "simulated"
	ProcessorCloudEvents = "cloudevents"
)

type Config struct {
	Environment   string
	Server        ServerConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
	Ingestion     IngestionConfig
	Processor     ProcessorConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Path      string
	LogTiming bool
}

type ObservabilityConfig struct {
	Enabled           bool
	OTLPEndpoint      string
	OTLPTraceHeaders  map[string]string
	OTLPMetricHeaders map[string]string
	ServiceName       string
	ServiceVer        string
	SamplingRatio     float64
	MetricsConsole    bool
}

type IngestionConfig struct {
	BatchSize        int
	RateLimitMS      int
	StaleTriggeredMS int
	MaxPending       int
	StatsIntervalMS  int
}

type ProcessorConfig struct {
	Kind      string
	LatencyMS int
	Endpoint  string
	Secret    string
	TimeoutMS int
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ingestq_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("ingestq_port", 8080)
	v.SetDefault("ingestq_cors_origins", "")
	v.SetDefault("ingestq_db_path", "data/ingestq")
	v.SetDefault("ingestq_db_timing", false)
	v.SetDefault("ingestq_batch_size", 3)
	v.SetDefault("ingestq_rate_limit_ms", 5000)
	v.SetDefault("ingestq_stale_triggered_ms", 60000)
	v.SetDefault("ingestq_max_pending", 0)
	v.SetDefault("ingestq_stats_interval_ms", 60000)
	v.SetDefault("ingestq_processor", ProcessorSimulated)
	v.SetDefault("ingestq_processor_latency_ms", 500)
	v.SetDefault("ingestq_processor_endpoint", "")
	v.SetDefault("ingestq_processor_secret", "")
	v.SetDefault("ingestq_processor_timeout_ms", 10000)
	v.SetDefault("ingestq_otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_exporter_otlp_traces_headers", "")
	v.SetDefault("otel_exporter_otlp_metrics_headers", "")
	v.SetDefault("otel_service_name", "")
	v.SetDefault("ingestq_service_name", "ingestq")
	v.SetDefault("ingestq_version", "dev")
	v.SetDefault("otel_service_version", "")
	v.SetDefault("ingestq_otel_sampling_ratio", 1.0)
	v.SetDefault("ingestq_otel_metrics_console", false)

	env := resolveEnvironment(v)
	port := v.GetInt("ingestq_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid INGESTQ_PORT: %d", port)
	}

	samplingRatio := clampFloat(v.GetFloat64("ingestq_otel_sampling_ratio"), 0, 1)

	batchSize := v.GetInt("ingestq_batch_size")
	if batchSize <= 0 {
		batchSize = 3
	}
	if batchSize > 1000 {
		batchSize = 1000
	}

	rateLimit := v.GetInt("ingestq_rate_limit_ms")
	if rateLimit < 0 {
		return Config{}, fmt.Errorf("invalid INGESTQ_RATE_LIMIT_MS: %d", rateLimit)
	}

	staleTriggered := v.GetInt("ingestq_stale_triggered_ms")
	if staleTriggered < 0 {
		staleTriggered = 0
	}

	maxPending := v.GetInt("ingestq_max_pending")
	if maxPending < 0 {
		maxPending = 0
	}

	latency := v.GetInt("ingestq_processor_latency_ms")
	if latency < 0 {
		latency = 0
	}
	timeout := v.GetInt("ingestq_processor_timeout_ms")
	if timeout <= 0 {
		timeout = 10000
	}

	processorKind := strings.ToLower(strings.TrimSpace(v.GetString("ingestq_processor")))
	if processorKind == "" {
		processorKind = ProcessorSimulated
	}
	endpoint := strings.TrimSpace(v.GetString("ingestq_processor_endpoint"))
	switch processorKind {
	case ProcessorSimulated:
	case ProcessorCloudEvents:
		if endpoint == "" {
			return Config{}, fmt.Errorf("INGESTQ_PROCESSOR_ENDPOINT is required for the %s processor", ProcessorCloudEvents)
		}
	default:
		return Config{}, fmt.Errorf("invalid INGESTQ_PROCESSOR: %q", processorKind)
	}

	serviceName := strings.TrimSpace(v.GetString("otel_service_name"))
	if serviceName == "" {
		serviceName = strings.TrimSpace(v.GetString("ingestq_service_name"))
	}
	if serviceName == "" {
		serviceName = "ingestq"
	}

	serviceVersion := strings.TrimSpace(v.GetString("ingestq_version"))
	if serviceVersion == "" {
		serviceVersion = strings.TrimSpace(v.GetString("otel_service_version"))
	}
	if serviceVersion == "" {
		serviceVersion = "dev"
	}

	otlpEndpoint := strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint"))
	otlpCommonHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_headers"))
	otlpTraceHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_traces_headers"))
	otlpMetricHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_metrics_headers"))
	metricsConsole := v.GetBool("ingestq_otel_metrics_console")
	otelEnabled := v.GetBool("ingestq_otel_enabled") || otlpEndpoint != "" || metricsConsole

	cfg := Config{
		Environment: env,
		Server: ServerConfig{
			Port:           port,
			AllowedOrigins: parseList(v.GetString("ingestq_cors_origins")),
		},
		Database: DatabaseConfig{
			Path:      strings.TrimSpace(v.GetString("ingestq_db_path")),
			LogTiming: v.GetBool("ingestq_db_timing"),
		},
		Observability: ObservabilityConfig{
			Enabled:           otelEnabled,
			OTLPEndpoint:      otlpEndpoint,
			OTLPTraceHeaders:  mergeHeaderMaps(otlpCommonHeaders, otlpTraceHeaders),
			OTLPMetricHeaders: mergeHeaderMaps(otlpCommonHeaders, otlpMetricHeaders),
			ServiceName:       serviceName,
			ServiceVer:        serviceVersion,
			SamplingRatio:     samplingRatio,
			MetricsConsole:    metricsConsole,
		},
		Ingestion: IngestionConfig{
			BatchSize:        batchSize,
			RateLimitMS:      rateLimit,
			StaleTriggeredMS: staleTriggered,
			MaxPending:       maxPending,
			StatsIntervalMS:  v.GetInt("ingestq_stats_interval_ms"),
		},
		Processor: ProcessorConfig{
			Kind:      processorKind,
			LatencyMS: latency,
			Endpoint:  endpoint,
			Secret:    strings.TrimSpace(v.GetString("ingestq_processor_secret")),
			TimeoutMS: timeout,
		},
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/ingestq"
	}

	return cfg, nil
}

func parseOTLPHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pair := strings.SplitN(part, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key := strings.TrimSpace(pair[0])
		value := strings.TrimSpace(pair[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeHeaderMaps(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func clampFloat(value, lo, hi float64) float64 {
	return min(max(value, lo), hi)
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

// Cooldown is the pause the dispatcher takes after every batch.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.Ingestion.RateLimitMS) * time.Millisecond
}

func (c Config) StaleTriggeredAfter() time.Duration {
	return time.Duration(c.Ingestion.StaleTriggeredMS) * time.Millisecond
}

func (c Config) StatsInterval() time.Duration {
	return time.Duration(c.Ingestion.StatsIntervalMS) * time.Millisecond
}

func (c Config) ProcessorLatency() time.Duration {
	return time.Duration(c.Processor.LatencyMS) * time.Millisecond
}

func (c Config) ProcessorTimeout() time.Duration {
	return time.Duration(c.Processor.TimeoutMS) * time.Millisecond
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"ingestq_env", "app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
