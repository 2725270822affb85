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

	"github.com/nurapulse/pulse/api"
	"github.com/nurapulse/pulse/core/hotspot"
	"github.com/nurapulse/pulse/core/metrics"
	"github.com/nurapulse/pulse/core/milestone"
	"github.com/nurapulse/pulse/core/telemetry"
	"github.com/nurapulse/pulse/infra/monitoring"
	"github.com/nurapulse/pulse/infra/mqtt"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nesting levels: PULSE_HTTP__AUTH_TOKEN sets http.auth_token.
const EnvPrefix = "PULSE_"

type Config struct {
	HTTP    api.Config            `json:"http"`
	Store   telemetry.StoreConfig `json:"store"`
	Engine  milestone.Config      `json:"engine"`
	Ingest  mqtt.Config           `json:"ingest"`
	Metrics metrics.Config        `json:"metrics"`
	Logging LoggingConfig         `json:"logging"`
	Sentry  monitoring.Config     `json:"sentry"`
	Hotspot hotspot.Options       `json:"hotspot"`
}

// Load reads path (yaml or json), applies environment overrides, then fills
// defaults and validates every section. An empty path loads only the
// environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
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
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults fills unset fields in every section.
func (c *Config) SetDefaults() {
	c.HTTP.SetDefaults()
	c.Engine.SetDefaults()
	c.Ingest.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
	c.Hotspot.SetDefaults()
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
}

// Validate checks every section and prefixes errors with the section name.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"http", c.HTTP.Validate},
		{"engine", c.Engine.Validate},
		{"ingest", c.Ingest.Validate},
		{"metrics", c.Metrics.Validate},
		{"logging", c.Logging.Validate},
		{"hotspot", c.Hotspot.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}
