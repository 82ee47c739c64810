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

	"github.com/evfleet/chargesim/core/seeder"
	"github.com/evfleet/chargesim/core/sim"
	"github.com/evfleet/chargesim/infra/history"
	"github.com/evfleet/chargesim/infra/input"
	"github.com/evfleet/chargesim/infra/logger"
	"github.com/evfleet/chargesim/infra/metrics"
	"github.com/evfleet/chargesim/infra/mqtt"
)

// Config is the immutable top-level configuration, built once at startup and
// passed by reference into the constructors.
type Config struct {
	Simulation sim.Config     `json:"simulation"`
	Seeder     seeder.Config  `json:"seeder"`
	Input      input.Config   `json:"input"`
	History    history.Config `json:"history"`
	Metrics    metrics.Config `json:"metrics"`
	MQTT       mqtt.Config    `json:"mqtt"`
	Logging    logger.Config  `json:"logging"`
}

// Load reads the configuration file (yaml or json) and applies optional
// CS_-prefixed environment overrides.
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
	if err := k.Load(env.Provider("CS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "cs_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Simulation.SetDefaults()
	cfg.Seeder.SetDefaults()
	cfg.Input.SetDefaults()
	cfg.History.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Simulation.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Seeder.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
