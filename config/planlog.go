package config

import "fmt"

// PlanLogConfig selects how optimization runs are persisted.
type PlanLogConfig struct {
	// Backend selects the store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *PlanLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" && c.Backend != "none" {
		c.Path = "plans.log"
	}
}

// Validate checks mandatory fields.
func (c PlanLogConfig) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("plan log path is required")
		}
	case "none":
	default:
		return fmt.Errorf("unknown plan log backend %s", c.Backend)
	}
	return nil
}
