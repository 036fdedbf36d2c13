package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")              // Current directory
		v.AddConfigPath("./configs")      // Project configs directory
		v.AddConfigPath("/etc/bandwatch") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides
	v.SetEnvPrefix("BANDWATCH")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.http_port", defaults.Server.HTTPPort)

	// Detector defaults
	v.SetDefault("detector.span", defaults.Detector.Span)
	v.SetDefault("detector.weight", defaults.Detector.Weight)
	v.SetDefault("detector.upper_threshold", defaults.Detector.UpperThreshold)
	v.SetDefault("detector.lower_threshold", defaults.Detector.LowerThreshold)
	v.SetDefault("detector.enable_lower_side", defaults.Detector.EnableLowerSide)
	v.SetDefault("detector.max_workers", defaults.Detector.MaxWorkers)

	// Ingest defaults
	v.SetDefault("ingest.enabled", defaults.Ingest.Enabled)
	v.SetDefault("ingest.events_subject", defaults.Ingest.EventsSubject)
	v.SetDefault("ingest.anomalies_subject", defaults.Ingest.AnomaliesSubject)
	v.SetDefault("ingest.flush_interval", defaults.Ingest.FlushInterval)
	v.SetDefault("ingest.retention_days", defaults.Ingest.RetentionDays)

	// Queue defaults
	v.SetDefault("queue.type", defaults.Queue.Type)
	v.SetDefault("queue.url", defaults.Queue.URL)

	// Logging defaults
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.output_path", defaults.Logging.OutputPath)
}

// parseConfig unmarshals and validates the configuration
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
