package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"solexplorer/internal/cluster"
)

// Load reads and parses the configuration file. Environment overrides are applied
// before defaults and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses a configuration document
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file into the process environment.
// A missing file is not an error; variables already set are not overwritten.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// applyEnv overrides file values with environment variables
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvCluster); v != "" {
		cfg.Cluster = v
	}
	if v := os.Getenv(EnvCustomURL); v != "" {
		cfg.CustomURL = v
	}
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.EnrichConcurrency == 0 {
		cfg.EnrichConcurrency = DefaultEnrichConcurrency
	}
	if cfg.Cluster == "" {
		cfg.Cluster = DefaultCluster
	}

	if cfg.Names != nil {
		if cfg.Names.ProxyURL == "" {
			cfg.Names.ProxyURL = DefaultNamesProxyURL
		}
		if cfg.Names.CacheSize == 0 {
			cfg.Names.CacheSize = DefaultNamesCacheSize
		}
		if cfg.Names.CacheTTL == 0 {
			cfg.Names.CacheTTL = DefaultNamesCacheTTL
		}
	}

	if cfg.Price != nil {
		if cfg.Price.APIURL == "" {
			cfg.Price.APIURL = DefaultPriceAPIURL
		}
		if cfg.Price.RefreshInterval == 0 {
			cfg.Price.RefreshInterval = DefaultPriceRefresh
		}
	}
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("logLevel must be one of: debug, info, warn, error")
	}

	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("requestTimeout must be non-negative")
	}

	if cfg.EnrichConcurrency < 0 {
		return fmt.Errorf("enrichConcurrency must be non-negative")
	}

	c, err := cluster.Parse(cfg.Cluster)
	if err != nil {
		return err
	}
	if c == cluster.Custom && cfg.CustomURL == "" {
		return fmt.Errorf("customUrl is required when cluster is custom")
	}

	if cfg.IsNamesEnabled() {
		if cfg.Names.CacheSize <= 0 {
			return fmt.Errorf("names.cacheSize must be positive when names are enabled")
		}
		if cfg.Names.CacheTTL <= 0 {
			return fmt.Errorf("names.cacheTtl must be positive when names are enabled")
		}
	}

	if cfg.IsPriceEnabled() && cfg.Price.RefreshInterval < 0 {
		return fmt.Errorf("price.refreshInterval must be non-negative")
	}

	return nil
}

// Endpoint returns the cluster endpoint the configuration selects
func (c *Config) Endpoint() (cluster.Endpoint, error) {
	cl, err := cluster.Parse(c.Cluster)
	if err != nil {
		return cluster.Endpoint{}, err
	}
	return cluster.NewEndpoint(cl, c.CustomURL)
}
