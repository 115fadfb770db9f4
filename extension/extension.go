// Package extension provides the Forge extension adapter for Catalog.
//
// It implements the forge.Extension interface to integrate Catalog
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.catalog" or "catalog" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	catalog "github.com/xraph/catalog"
	"github.com/xraph/catalog/store"
	"github.com/xraph/catalog/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "catalog"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "App catalog entitlement and aggregate engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Catalog as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config      Config
	engine      *catalog.Catalog
	store       store.Store
	catalogOpts []catalog.Option
}

// New creates a new Catalog Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Catalog instance.
// This is nil until Register is called.
func (e *Extension) Engine() *catalog.Catalog { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the catalog engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build catalog options from resolved config.
	opts := e.buildCatalogOpts()

	eng := catalog.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*catalog.Catalog, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("catalog: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("catalog: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildCatalogOpts constructs catalog.Option values from the resolved config.
func (e *Extension) buildCatalogOpts() []catalog.Option {
	opts := make([]catalog.Option, 0, len(e.catalogOpts)+3)

	if e.config.TierCacheTTL > 0 {
		opts = append(opts, catalog.WithTierCacheTTL(e.config.TierCacheTTL))
	}
	if e.config.ReconcileInterval > 0 {
		opts = append(opts, catalog.WithReconcileInterval(e.config.ReconcileInterval))
	}
	if e.config.SearchFallbackScan > 0 {
		opts = append(opts, catalog.WithSearchFallbackScan(e.config.SearchFallbackScan))
	}

	// Append any pass-through catalog options.
	opts = append(opts, e.catalogOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("catalog: configuration is required but not found in config files; " +
				"ensure 'extensions.catalog' or 'catalog' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("catalog: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("tier_cache_ttl", e.config.TierCacheTTL),
		forge.F("reconcile_interval", e.config.ReconcileInterval),
		forge.F("search_fallback_scan", e.config.SearchFallbackScan),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.catalog" first (namespaced pattern).
	if cm.IsSet("extensions.catalog") {
		if err := cm.Bind("extensions.catalog", &cfg); err == nil {
			e.Logger().Debug("catalog: loaded config from file",
				forge.F("key", "extensions.catalog"),
			)
			return cfg, true
		}
		e.Logger().Warn("catalog: failed to bind extensions.catalog config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "catalog" key.
	if cm.IsSet("catalog") {
		if err := cm.Bind("catalog", &cfg); err == nil {
			e.Logger().Debug("catalog: loaded config from file",
				forge.F("key", "catalog"),
			)
			return cfg, true
		}
		e.Logger().Warn("catalog: failed to bind catalog config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.TierCacheTTL == 0 {
		cfg.TierCacheTTL = defaults.TierCacheTTL
	}
	if cfg.ReconcileInterval == 0 {
		cfg.ReconcileInterval = defaults.ReconcileInterval
	}
	if cfg.SearchFallbackScan == 0 {
		cfg.SearchFallbackScan = defaults.SearchFallbackScan
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.TierCacheTTL == 0 && programmaticConfig.TierCacheTTL != 0 {
		yamlConfig.TierCacheTTL = programmaticConfig.TierCacheTTL
	}
	if yamlConfig.ReconcileInterval == 0 && programmaticConfig.ReconcileInterval != 0 {
		yamlConfig.ReconcileInterval = programmaticConfig.ReconcileInterval
	}
	if yamlConfig.SearchFallbackScan == 0 && programmaticConfig.SearchFallbackScan != 0 {
		yamlConfig.SearchFallbackScan = programmaticConfig.SearchFallbackScan
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
