package extension

import (
	"time"

	catalog "github.com/xraph/catalog"
	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/plugin"
	"github.com/xraph/catalog/store"
)

// Option configures the Catalog Forge extension.
type Option func(*Extension)

// WithStore sets the store for the catalog engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithCatalogOption passes a catalog.Option through to the underlying engine.
func WithCatalogOption(opt catalog.Option) Option {
	return func(e *Extension) {
		e.catalogOpts = append(e.catalogOpts, opt)
	}
}

// WithPlugin registers a catalog plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.catalogOpts = append(e.catalogOpts, catalog.WithPlugin(p))
	}
}

// WithCustomerDirectory wires the billing-provider lookup used by the last
// reconciliation cascade level.
func WithCustomerDirectory(d billing.CustomerDirectory) Option {
	return func(e *Extension) {
		e.catalogOpts = append(e.catalogOpts, catalog.WithCustomerDirectory(d))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithTierCacheTTL sets the tier resolution cache duration.
func WithTierCacheTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.TierCacheTTL = d }
}

// WithReconcileInterval sets how often unresolved billing events are retried.
func WithReconcileInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.ReconcileInterval = d }
}

// WithSearchFallbackScan sets how many recent listings the search fallback scans.
func WithSearchFallbackScan(n int) Option {
	return func(e *Extension) { e.config.SearchFallbackScan = n }
}
