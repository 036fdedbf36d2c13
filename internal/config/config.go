package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Detector DetectorConfig `mapstructure:"detector"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// DetectorConfig holds the default detection parameters. Requests may
// override span, weight and thresholds per run.
type DetectorConfig struct {
	Span            float64 `mapstructure:"span"`              // decay span in days, >= 1
	Weight          float64 `mapstructure:"weight"`            // band multiplier K, > 0
	UpperThreshold  float64 `mapstructure:"upper_threshold"`   // pct_b above this is an anomaly
	LowerThreshold  float64 `mapstructure:"lower_threshold"`   // pct_b below this is an anomaly (when enabled)
	EnableLowerSide bool    `mapstructure:"enable_lower_side"` // enable the lower-band check
	MaxWorkers      int     `mapstructure:"max_workers"`       // concurrent entity pipelines
}

// IngestConfig configures the streaming collector
type IngestConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	EventsSubject    string        `mapstructure:"events_subject"`    // subject carrying raw view events
	AnomaliesSubject string        `mapstructure:"anomalies_subject"` // subject anomalies are published to
	FlushInterval    time.Duration `mapstructure:"flush_interval"`    // how often buffered events are scored
	RetentionDays    int           `mapstructure:"retention_days"`    // history kept per entity
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "bandwatch")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "bandwatch-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group (default: "bandwatch-group")
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// DefaultConfig returns a configuration with all defaults applied
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 5660,
		},
		Detector: DetectorConfig{
			Span:           30,
			Weight:         3.5,
			UpperThreshold: 1.0,
			LowerThreshold: 0.0,
			MaxWorkers:     8,
		},
		Ingest: IngestConfig{
			Enabled:          false,
			EventsSubject:    "bandwatch.events",
			AnomaliesSubject: "bandwatch.anomalies",
			FlushInterval:    time.Minute,
			RetentionDays:    90,
		},
		Queue: QueueConfig{
			Type: "nats",
			URL:  "nats://localhost:4222",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}

// Validate validates the configuration. Configuration errors are rejected
// here, before any entity is processed.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector config: %w", err)
	}
	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.HTTPPort)
	}
	return nil
}

// Validate validates detection parameters
func (c *DetectorConfig) Validate() error {
	if c.Span < 1 {
		return fmt.Errorf("span must be >= 1, got %v", c.Span)
	}
	if c.Weight <= 0 {
		return fmt.Errorf("weight must be > 0, got %v", c.Weight)
	}
	if c.EnableLowerSide && c.LowerThreshold >= c.UpperThreshold {
		return fmt.Errorf("lower threshold %v must be below upper threshold %v",
			c.LowerThreshold, c.UpperThreshold)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be >= 1, got %d", c.MaxWorkers)
	}
	return nil
}

// Validate validates collector configuration
func (c *IngestConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.EventsSubject == "" || c.AnomaliesSubject == "" {
		return fmt.Errorf("ingest subjects must not be empty")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be positive, got %v", c.FlushInterval)
	}
	if c.RetentionDays < 2 {
		return fmt.Errorf("retention_days must be >= 2, got %d", c.RetentionDays)
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	switch c.Format {
	case "", "json", "console", "pretty":
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}
