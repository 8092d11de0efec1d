package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateScan() error {
	if err := ensurePositiveMap(map[string]int{
		"scan.max_threads":         c.Scan.MaxThreads,
		"scan.queue_depth":         c.Scan.QueueDepth,
		"scan.checkpoint_interval": c.Scan.CheckpointInterval,
		"scan.poll_interval":       c.Scan.PollInterval,
	}); err != nil {
		return err
	}
	if c.Scan.ReadyTimeout < 0 {
		return errors.New("scan.ready_timeout must be >= 0")
	}
	if c.Scan.QueueDepth < c.Scan.MaxThreads {
		return errors.New("scan.queue_depth must be at least scan.max_threads")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.DecodeTimeout <= 0 {
		return errors.New("media.decode_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
