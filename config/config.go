package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the root configuration of the service.
type Config struct {
	Battery BatteryConfig `json:"battery"`
	Control ControlConfig `json:"control"`
	Prices  PricesConfig  `json:"prices"`
	MQTT    MQTTConfig    `json:"mqtt"`
	Metrics MetricsConfig `json:"metrics"`
	PlanLog PlanLogConfig `json:"plan_log"`
}

// Load reads the configuration file at path, applies BA_ environment
// overrides, defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("BA_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ba_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Battery.SetDefaults()
	cfg.Control.SetDefaults()
	cfg.Prices.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.PlanLog.SetDefaults()
	if err := cfg.Battery.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Control.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Prices.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.PlanLog.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
