package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Exporter names accepted by METRICS_EXPORTER and TRACING_EXPORTER.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Defaults for the periodic work around the metrics pipeline.
const (
	// DefaultMetricInterval is the export interval of periodic readers.
	DefaultMetricInterval = 10 * time.Second

	// DefaultActiveConversationsInterval is how often the active
	// conversation gauge is refreshed from the state store.
	DefaultActiveConversationsInterval = 30 * time.Second
)

// Label values shared by the booking service, the conversation loop and the
// tool handlers.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	BookingResultBooked    = "booked"
	BookingResultSlotTaken = "slot_taken"
	BookingResultRejected  = "rejected"
	BookingResultError     = "error"

	// StageNone labels turns that never reached the dialogue, such as
	// messages dropped by the rate limiter.
	StageNone = "none"
)

// Config selects exporters and the audit trail for slotbot. DefaultConfig
// reads it from the environment.
type Config struct {
	ServiceName       string
	ServiceVersion    string
	ServiceInstanceID string // hostname when empty

	// Added as resource attributes when set.
	K8sNamespace string
	K8sPodName   string

	// Enabled is false when INSTRUMENTATION_ENABLED=false; metrics and
	// traces are then discarded.
	Enabled bool

	MetricsExporter string // prometheus, otlp or stdout
	TracingExporter string // otlp, stdout or none

	// OTLPEndpoint is host:port without a scheme, e.g. "localhost:4318".
	OTLPEndpoint string
	// OTLPInsecure disables TLS. Spans carry hashed session IDs, so keep it
	// for local collectors.
	OTLPInsecure bool

	TraceSamplingRate  float64
	PrometheusEndpoint string

	// ActiveConversationsInterval is how often the conversation loop counts
	// stored sessions for the active_conversations gauge.
	ActiveConversationsInterval time.Duration

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the booking and tool audit trail.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII writes raw phone numbers to booking records. Otherwise
	// they are replaced by a hash.
	IncludePII bool
}

// DefaultConfig reads the instrumentation settings from the environment.
// Unset or malformed values keep their defaults.
func DefaultConfig() Config {
	return Config{
		ServiceName:                 envString("OTEL_SERVICE_NAME", "slotbot"),
		ServiceVersion:              "unknown",
		ServiceInstanceID:           envString("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:                envString("K8S_NAMESPACE", envString("POD_NAMESPACE", "")),
		K8sPodName:                  envString("K8S_POD_NAME", envString("HOSTNAME", "")),
		Enabled:                     envParsed("INSTRUMENTATION_ENABLED", true, strconv.ParseBool),
		MetricsExporter:             envString("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:             envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:                envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:                envParsed("OTEL_EXPORTER_OTLP_INSECURE", false, strconv.ParseBool),
		TraceSamplingRate:           envParsed("OTEL_TRACES_SAMPLER_ARG", 0.1, parseFloat),
		PrometheusEndpoint:          envString("PROMETHEUS_ENDPOINT", "/metrics"),
		ActiveConversationsInterval: envParsed("ACTIVE_CONVERSATIONS_INTERVAL", DefaultActiveConversationsInterval, time.ParseDuration),
		AuditLogging: AuditLoggingConfig{
			Enabled:    envParsed("AUDIT_LOGGING_ENABLED", true, strconv.ParseBool),
			IncludePII: envParsed("AUDIT_LOGGING_INCLUDE_PII", false, strconv.ParseBool),
		},
	}
}

// Validate rejects exporter names and sampling rates the provider cannot use.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using an OTLP exporter")
	}

	if c.ActiveConversationsInterval < 0 {
		return fmt.Errorf("active conversations interval must not be negative, got %s", c.ActiveConversationsInterval)
	}

	return nil
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// envParsed parses the variable key, falling back when it is unset or
// does not parse.
func envParsed[T any](key string, fallback T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := parse(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
