package extension

import "time"

// Config holds the Catalog extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.catalog" or "catalog" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// TierCacheTTL controls how long resolved plan tiers are cached
	// before re-reading the user record (default: 30s).
	TierCacheTTL time.Duration `json:"tier_cache_ttl" mapstructure:"tier_cache_ttl" yaml:"tier_cache_ttl"`

	// ReconcileInterval is how often unresolved billing events are retried
	// in the background (default: 5m).
	ReconcileInterval time.Duration `json:"reconcile_interval" mapstructure:"reconcile_interval" yaml:"reconcile_interval"`

	// SearchFallbackScan is how many recent listings the unindexed search
	// fallback scans (default: 100).
	SearchFallbackScan int `json:"search_fallback_scan" mapstructure:"search_fallback_scan" yaml:"search_fallback_scan"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TierCacheTTL:       30 * time.Second,
		ReconcileInterval:  5 * time.Minute,
		SearchFallbackScan: 100,
	}
}
