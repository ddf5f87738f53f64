package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateReprocess(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.MinSimilarity < 0 || c.Matching.MinSimilarity > 100 {
		return errors.New("matching.min_similarity must be between 0 and 100")
	}
	if c.Matching.MaxDistance < 0 {
		return errors.New("matching.max_distance must be >= 0")
	}
	return nil
}

func (c *Config) validateReprocess() error {
	if c.Reprocess.Limit <= 0 {
		return errors.New("reprocess.limit must be positive")
	}
	if c.Reprocess.BatchSize <= 0 {
		return errors.New("reprocess.batch_size must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
