package metrics

import (
	"fmt"

	"github.com/nurapulse/pulse/core/factory"
)

// Config defines settings for metrics sinks and the scrape endpoint.
type Config struct {
	Enabled        bool                   `json:"enabled"`
	PrometheusPort string                 `json:"prometheus_port"`
	Sinks          []factory.ModuleConfig `json:"sinks"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":9100"
	}
	if c.Enabled && len(c.Sinks) == 0 {
		c.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	}
}

// Validate checks that every sink names a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sinks[%d]: type is required", i)
		}
	}
	return nil
}
