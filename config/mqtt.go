package config

import "fmt"

// MQTTConfig describes the broker connection and the topic layout.
type MQTTConfig struct {
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	// TopicPrefix roots the command, state and control topics.
	TopicPrefix string `json:"topic_prefix"`
	// SoCTopic carries the battery state of charge as a percentage.
	SoCTopic string `json:"soc_topic"`
	// SoCMaxAgeSeconds marks a reading stale; zero disables the check.
	SoCMaxAgeSeconds int `json:"soc_max_age_seconds"`
}

// SetDefaults applies sane defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "bessarb"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "bessarb"
	}
	if c.SoCTopic == "" {
		c.SoCTopic = c.TopicPrefix + "/soc"
	}
	if c.SoCMaxAgeSeconds == 0 {
		c.SoCMaxAgeSeconds = 900
	}
}

// Validate checks mandatory fields.
func (c MQTTConfig) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	if c.SoCMaxAgeSeconds < 0 {
		return fmt.Errorf("soc_max_age_seconds must be non-negative")
	}
	return nil
}
