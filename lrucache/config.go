/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"fmt"

	"github.com/acronis/go-lrucache/config"
)

const cfgDefaultKeyPrefix = "cache"

const (
	cfgKeyCapacity         = "capacity"
	cfgKeyMetrics          = "metrics"
	cfgKeyMetricsEnabled   = cfgKeyMetrics + ".enabled"
	cfgKeyMetricsNamespace = cfgKeyMetrics + ".namespace"
)

// DefaultCapacity is the capacity used when the configuration doesn't specify it.
const DefaultCapacity = 5

// Config represents a set of configuration parameters for the cache.
// It may be loaded with config.Loader.
type Config struct {
	Capacity int           `mapstructure:"capacity" yaml:"capacity" json:"capacity"`
	Metrics  MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	keyPrefix string
}

// MetricsConfig is a configuration for the cache Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Namespace string `mapstructure:"namespace" yaml:"namespace" json:"namespace"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
// If keyPrefix is empty, "cache" is used.
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{Capacity: DefaultCapacity}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the cache in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyCapacity, DefaultCapacity)
	dp.SetDefault(cfgKeyMetricsEnabled, false)
	dp.SetDefault(cfgKeyMetricsNamespace, "")
}

// Set sets the cache configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Capacity, err = dp.GetInt(cfgKeyCapacity); err != nil {
		return err
	}
	if c.Capacity <= 0 {
		return dp.WrapKeyErr(cfgKeyCapacity,
			fmt.Errorf("%w: should be > 0, got %d", ErrInvalidConfiguration, c.Capacity))
	}

	// Defaults for every metrics key are registered, so the whole section is always decoded.
	return dp.UnmarshalKey(cfgKeyMetrics, &c.Metrics)
}
