package telemetry

import (
	"fmt"
	"time"
)

// Config contains the telemetry configuration for rocketscience.
type Config struct {
	// ServiceName identifies the service in traces and metrics.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`

	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`

	// Environment names the deployment (development, production).
	Environment string `yaml:"environment" mapstructure:"environment"`

	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Events  EventsConfig  `yaml:"events" mapstructure:"events"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error, fatal).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is either console or json.
	Format string `yaml:"format" mapstructure:"format"`

	// Output is stdout, stderr or a file path.
	Output string `yaml:"output" mapstructure:"output"`

	// EnableCaller adds file:line caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`

	EnableSampling     bool `yaml:"enable_sampling" mapstructure:"enable_sampling"`
	SamplingInitial    int  `yaml:"sampling_initial" mapstructure:"sampling_initial"`
	SamplingThereafter int  `yaml:"sampling_thereafter" mapstructure:"sampling_thereafter"`

	// TimeFormat is one of rfc3339, unix, unixms, unixmicro.
	TimeFormat string `yaml:"time_format" mapstructure:"time_format"`
}

// TracingConfig configures distributed tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Exporter is otlp, stdout or none.
	Exporter string `yaml:"exporter" mapstructure:"exporter"`

	// Endpoint is the OTLP collector address, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// SamplingRate is the trace sampling rate (0.0 to 1.0).
	SamplingRate float64 `yaml:"sampling_rate" mapstructure:"sampling_rate"`

	MaxExportBatchSize int           `yaml:"max_export_batch_size" mapstructure:"max_export_batch_size"`
	ExportTimeout      time.Duration `yaml:"export_timeout" mapstructure:"export_timeout"`

	// Headers are sent with every OTLP export.
	Headers map[string]string `yaml:"headers,omitempty" mapstructure:"headers"`

	// Insecure disables TLS for the exporter connection.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
}

// MetricsConfig configures metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path is the HTTP path the metrics handler is mounted on.
	Path string `yaml:"path" mapstructure:"path"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace" mapstructure:"namespace"`

	// DefaultHistogramBuckets are the latency buckets in seconds.
	DefaultHistogramBuckets []float64 `yaml:"histogram_buckets,omitempty" mapstructure:"histogram_buckets"`
}

// EventsConfig configures the diagnostic event publisher.
type EventsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// BufferSize is the capacity of the async event buffer.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`

	// FlushInterval is how often a partial batch is delivered.
	FlushInterval time.Duration `yaml:"flush_interval" mapstructure:"flush_interval"`

	MaxBatchSize int `yaml:"max_batch_size" mapstructure:"max_batch_size"`

	// EnableAsync buffers events and delivers them on a background goroutine.
	EnableAsync bool `yaml:"enable_async" mapstructure:"enable_async"`

	// MinLevel drops events below this level before any subscriber sees them.
	MinLevel string `yaml:"min_level,omitempty" mapstructure:"min_level"`
}

// DefaultConfig returns a default telemetry configuration.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "rocketscience",
		ServiceVersion: "dev",
		Environment:    "development",
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "console",
			Output:             "stderr",
			SamplingInitial:    100,
			SamplingThereafter: 100,
			TimeFormat:         "rfc3339",
		},
		Tracing: TracingConfig{
			Enabled:            false,
			Exporter:           "none",
			SamplingRate:       1.0,
			MaxExportBatchSize: 512,
			ExportTimeout:      30 * time.Second,
			Insecure:           true,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "rocketscience",
			DefaultHistogramBuckets: []float64{
				0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0,
			},
		},
		Events: EventsConfig{
			Enabled:       true,
			BufferSize:    256,
			FlushInterval: time.Second,
			MaxBatchSize:  32,
			EnableAsync:   true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return err
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'console' or 'json')", c.Logging.Format)
	}

	switch c.Tracing.Exporter {
	case "otlp", "stdout", "none", "":
	default:
		if c.Tracing.Enabled {
			return fmt.Errorf("invalid trace exporter: %s", c.Tracing.Exporter)
		}
	}

	if c.Tracing.Enabled && c.Tracing.Exporter == "otlp" && c.Tracing.Endpoint == "" {
		return fmt.Errorf("trace endpoint is required for the otlp exporter")
	}

	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0 and 1, got: %f", c.Tracing.SamplingRate)
	}

	if c.Events.Enabled && c.Events.EnableAsync && c.Events.BufferSize <= 0 {
		return fmt.Errorf("event buffer size must be positive, got: %d", c.Events.BufferSize)
	}

	switch c.Events.MinLevel {
	case "", EventLevelInfo, EventLevelWarning, EventLevelError:
	default:
		return fmt.Errorf("invalid event level: %s", c.Events.MinLevel)
	}

	return nil
}
