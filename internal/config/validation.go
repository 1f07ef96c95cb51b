package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Validate checks config values for correctness.
// Returns an error listing every invalid value.
func (c *Config) Validate() error {
	var errs []string

	switch c.Index.CaseSensitivity {
	case CaseAuto, CaseSensitive, CaseInsensitive:
	default:
		errs = append(errs, "index.case_sensitivity must be one of auto, sensitive, insensitive")
	}

	if c.Refresh.MaxParallelRoots < 1 {
		errs = append(errs, "refresh.max_parallel_roots must be >= 1")
	}
	for _, p := range c.Refresh.IgnorePatterns {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, "refresh.ignore_patterns must not contain blank patterns")
			break
		}
	}

	if c.Watch.Debounce <= 0 {
		errs = append(errs, "watch.debounce must be > 0")
	}
	if c.Watch.PollInterval < 0 {
		errs = append(errs, "watch.poll_interval must be >= 0")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, "log.level must be a valid level (debug, info, warn, error)")
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, "log.format must be console or json")
	}

	if c.UI.TickInterval <= 0 {
		errs = append(errs, "ui.tick_interval must be > 0")
	}
	if c.UI.MaxEventLines < 1 {
		errs = append(errs, "ui.max_event_lines must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
