package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"solexplorer/internal/cluster"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"names":{"enabled":true},"price":{"enabled":true,"coins":["solana"]}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Host != DefaultHost || cfg.Port != DefaultPort || cfg.LogLevel != DefaultLogLevel {
		t.Errorf("server defaults not applied: %+v", cfg)
	}
	if cfg.GetRequestTimeoutDuration() != 10*time.Second {
		t.Errorf("request timeout = %v", cfg.GetRequestTimeoutDuration())
	}
	if cfg.EnrichConcurrency != DefaultEnrichConcurrency {
		t.Errorf("enrichConcurrency = %d", cfg.EnrichConcurrency)
	}
	if !cfg.IsNamesEnabled() || cfg.Names.ProxyURL != DefaultNamesProxyURL || cfg.Names.GetCacheTTLDuration() != time.Hour {
		t.Errorf("names = %+v", cfg.Names)
	}
	if !cfg.IsPriceEnabled() || cfg.Price.GetRefreshIntervalDuration() != 10*time.Second {
		t.Errorf("price = %+v", cfg.Price)
	}

	ep, err := cfg.Endpoint()
	if err != nil || ep.URL != cluster.MainnetBetaURL {
		t.Errorf("Endpoint() = %+v, %v", ep, err)
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "bad port", doc: `{"port":70000}`, wantErr: "port"},
		{name: "bad log level", doc: `{"logLevel":"trace"}`, wantErr: "logLevel"},
		{name: "unknown cluster", doc: `{"cluster":"localnet"}`, wantErr: "unknown cluster"},
		{name: "custom without url", doc: `{"cluster":"custom"}`, wantErr: "customUrl"},
		{name: "negative concurrency", doc: `{"enrichConcurrency":-1}`, wantErr: "enrichConcurrency"},
		{name: "negative names cache", doc: `{"names":{"enabled":true,"cacheSize":-1}}`, wantErr: "names.cacheSize"},
		{name: "malformed", doc: `{`, wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv(EnvCluster, "custom")
	t.Setenv(EnvCustomURL, "http://localhost:8899")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Parse([]byte(`{"cluster":"devnet","logLevel":"warn"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("logLevel = %s, want debug", cfg.LogLevel)
	}

	ep, err := cfg.Endpoint()
	if err != nil || !ep.IsCustom() || ep.URL != "http://localhost:8899" {
		t.Errorf("Endpoint() = %+v, %v", ep, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"port":9000,"cluster":"testnet"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 || cfg.Cluster != "testnet" {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := LoadEnvFile(filepath.Join(dir, ".env")); err != nil {
		t.Errorf("missing env file: %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("EXPLORER_CLUSTER=devnet\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvCluster, "")
	os.Unsetenv(EnvCluster)

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv(EnvCluster); got != "devnet" {
		t.Errorf("%s = %q, want devnet", EnvCluster, got)
	}
}
