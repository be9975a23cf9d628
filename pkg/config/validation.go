package config

import "fmt"

// validate validates the configuration.
func validate(cfg *Config) error {
	if cfg.Receiver.Addr == "" {
		return fmt.Errorf("receiver.addr is required")
	}
	if cfg.Receiver.SCID < 0 || cfg.Receiver.SCID > 63 {
		return fmt.Errorf("receiver.scid must be between 0 and 63")
	}
	if cfg.Receiver.SID < 0 {
		return fmt.Errorf("receiver.sid must not be negative")
	}
	if cfg.Receiver.SCID != 0 && cfg.Receiver.SID != 0 {
		return fmt.Errorf("receiver.scid and receiver.sid are mutually exclusive")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics is enabled")
	}
	if cfg.WebForward.Enabled && cfg.WebForward.Addr == "" {
		return fmt.Errorf("webforward.addr is required when webforward is enabled")
	}
	if cfg.Archive.Enabled && cfg.Archive.Path == "" {
		return fmt.Errorf("archive.path is required when archive is enabled")
	}

	return nil
}
