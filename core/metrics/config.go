package metrics

import (
	"fmt"

	"github.com/Parthita/train-delay-backend/core/factory"
)

// Config defines settings for metrics sinks. PrometheusAddr is the listen
// address for the /metrics endpoint; empty disables the server.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusAddr string                 `json:"prometheus_addr"`
}

// SetDefaults keeps an unset config valid: no sinks, no exporter endpoint.
func (c *Config) SetDefaults() {}

// Validate rejects sink entries without a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics sink %d has no type", i)
		}
	}
	return nil
}
