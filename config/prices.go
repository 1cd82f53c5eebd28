package config

import "fmt"

// PricesConfig points at the normalized price feed.
type PricesConfig struct {
	// URL is the JSON endpoint serving the raw price series.
	URL string `json:"url"`
	// TimeoutSeconds bounds one fetch.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *PricesConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks mandatory fields.
func (c PricesConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("prices url is required")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	return nil
}
