package config

import (
	"fmt"
	"time"

	"github.com/gridloom/bessarb/core/coordinator"
)

// ControlConfig tunes the execution control loop.
type ControlConfig struct {
	// ReoptimizeAfterHour is the local hour from which the hourly tick
	// re-optimizes, once next-day prices can be expected.
	ReoptimizeAfterHour int `json:"reoptimize_after_hour"`
	// StartupRetries is the number of optimization attempts at startup.
	StartupRetries int `json:"startup_retries"`
	// StartupBackoffSeconds is the delay between failed startup attempts.
	StartupBackoffSeconds int `json:"startup_backoff_seconds"`
	// SafeStateOnDisable parks the battery in an idle state when the loop
	// is disabled instead of leaving the last command on the inverter.
	SafeStateOnDisable bool `json:"safe_state_on_disable"`
}

// SetDefaults applies the stock control loop tuning.
func (c *ControlConfig) SetDefaults() {
	def := coordinator.DefaultConfig()
	if c.ReoptimizeAfterHour == 0 {
		c.ReoptimizeAfterHour = def.ReoptimizeAfterHour
	}
	if c.StartupRetries == 0 {
		c.StartupRetries = def.StartupRetries
	}
	if c.StartupBackoffSeconds == 0 {
		c.StartupBackoffSeconds = int(def.StartupBackoff / time.Second)
	}
}

// Validate checks the tuning parameters.
func (c ControlConfig) Validate() error {
	if c.ReoptimizeAfterHour < 0 || c.ReoptimizeAfterHour > 23 {
		return fmt.Errorf("reoptimize_after_hour must be in [0,23]")
	}
	if c.StartupRetries < 1 {
		return fmt.Errorf("startup_retries must be at least 1")
	}
	if c.StartupBackoffSeconds < 0 {
		return fmt.Errorf("startup_backoff_seconds must be non-negative")
	}
	return nil
}

// Coordinator converts the section to the coordinator configuration.
func (c ControlConfig) Coordinator() coordinator.Config {
	return coordinator.Config{
		ReoptimizeAfterHour: c.ReoptimizeAfterHour,
		StartupRetries:      c.StartupRetries,
		StartupBackoff:      time.Duration(c.StartupBackoffSeconds) * time.Second,
		SafeStateOnDisable:  c.SafeStateOnDisable,
	}
}
