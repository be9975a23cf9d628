package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config represents the edireceiver application configuration.
type Config struct {
	Receiver   ReceiverConfig   `mapstructure:"receiver"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	WebForward WebForwardConfig `mapstructure:"webforward"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
}

// ReceiverConfig holds the EDI source connection and subchannel selection.
// SCID and SID are mutually exclusive ways of naming the selected audio
// subchannel: SCID names it directly, SID asks the receiver to resolve it
// from the ensemble once a service with that id is known.
type ReceiverConfig struct {
	Addr string `mapstructure:"addr"`
	SCID int    `mapstructure:"scid"`
	SID  int    `mapstructure:"sid"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// WebForwardConfig holds WebSocket event-forwarding configuration.
type WebForwardConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// ArchiveConfig holds the SQLite label/slide-show archive configuration.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from an optional file, environment variables
// (prefix EDI_), and defaults, in viper's usual precedence order.
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/edi-dab")
	}

	viper.SetEnvPrefix("EDI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is OK, use defaults.
		} else if os.IsNotExist(err) {
			// File explicitly specified but doesn't exist - also OK.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("receiver.addr", "127.0.0.1:12000")
	viper.SetDefault("receiver.scid", 0)
	viper.SetDefault("receiver.sid", 0)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.addr", ":9090")
	viper.SetDefault("metrics.path", "/metrics")

	viper.SetDefault("webforward.enabled", false)
	viper.SetDefault("webforward.addr", ":8080")

	viper.SetDefault("archive.enabled", false)
	viper.SetDefault("archive.path", "edi-dab.db")
}
