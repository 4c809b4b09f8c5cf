package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Host              string       `json:"host"`
	Port              int          `json:"port"`
	LogLevel          string       `json:"logLevel"`
	RequestTimeout    int          `json:"requestTimeout"`    // ms - timeout for a single RPC or HTTP call
	EnrichConcurrency int          `json:"enrichConcurrency"` // max parallel enrichment calls per fetch
	Cluster           string       `json:"cluster"`
	CustomURL         string       `json:"customUrl"`
	Names             *NamesConfig `json:"names,omitempty"`
	Price             *PriceConfig `json:"price,omitempty"`
}

// NamesConfig represents name service configuration
type NamesConfig struct {
	Enabled   bool   `json:"enabled"`
	ProxyURL  string `json:"proxyUrl"`
	CacheSize int    `json:"cacheSize"` // reverse lookups kept in memory
	CacheTTL  int    `json:"cacheTtl"`  // seconds
}

// PriceConfig represents price polling configuration
type PriceConfig struct {
	Enabled         bool     `json:"enabled"`
	APIURL          string   `json:"apiUrl"`
	RefreshInterval int      `json:"refreshInterval"` // ms
	Coins           []string `json:"coins"`           // coin ids polled from startup
}

// Default values
const (
	DefaultHost              = "localhost"
	DefaultPort              = 8080
	DefaultLogLevel          = "info"
	DefaultRequestTimeout    = 10000 // ms
	DefaultEnrichConcurrency = 8
	DefaultCluster           = "mainnet-beta"
	DefaultNamesProxyURL     = "https://sns-sdk-proxy.bonfida.workers.dev"
	DefaultNamesCacheSize    = 10000
	DefaultNamesCacheTTL     = 3600 // seconds
	DefaultPriceAPIURL       = "https://api.coingecko.com/api/v3"
	DefaultPriceRefresh      = 10000 // ms
)

// Environment variables that override file values
const (
	EnvLogLevel  = "EXPLORER_LOG_LEVEL"
	EnvCluster   = "EXPLORER_CLUSTER"
	EnvCustomURL = "EXPLORER_CUSTOM_URL"
)

// GetRequestTimeoutDuration returns request timeout as time.Duration
func (c *Config) GetRequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// IsNamesEnabled returns true if the name service is configured and enabled
func (c *Config) IsNamesEnabled() bool {
	return c.Names != nil && c.Names.Enabled
}

// IsPriceEnabled returns true if price polling is configured and enabled
func (c *Config) IsPriceEnabled() bool {
	return c.Price != nil && c.Price.Enabled
}

// GetCacheTTLDuration returns the reverse lookup TTL as time.Duration
func (c *NamesConfig) GetCacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// GetRefreshIntervalDuration returns the price refresh interval as time.Duration
func (c *PriceConfig) GetRefreshIntervalDuration() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Millisecond
}
