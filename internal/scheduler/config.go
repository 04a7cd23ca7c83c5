package scheduler

import (
	"time"

	"github.com/smallfirm/fakturo/internal/config"
)

// Config controls sweep cadence and job selection.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	// EnabledJobs restricts the sweep to the named jobs. Empty enables all
	// of them (monolith mode).
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		JobTimeout:  5 * time.Minute,
	}
}

// ProvideConfig seeds the sweep cadence from the operational config. The
// interval is re-read on every cycle, so this only sets the starting value.
func ProvideConfig(ops *config.OperationalConfigHolder) Config {
	cfg := DefaultConfig()
	if hours := ops.Get().SweepIntervalHours; hours > 0 {
		cfg.RunInterval = time.Duration(hours) * time.Hour
	}
	return cfg
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
