package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/plugin"
	"github.com/xraph/catalog/store"
)

// Catalog is the entitlement-and-aggregate consistency engine.
type Catalog struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	cascade   *billing.Cascade
	directory billing.CustomerDirectory

	// Background workers
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Configuration
	tierCacheTTL       time.Duration
	reconcileInterval  time.Duration
	reconcileBatchSize int
	searchFallbackScan int
	mutateRetries      int
}

// New creates a new Catalog instance.
func New(s store.Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:              s,
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		stopChan:           make(chan struct{}),
		tierCacheTTL:       30 * time.Second,
		reconcileInterval:  5 * time.Minute,
		reconcileBatchSize: 50,
		searchFallbackScan: 100,
		mutateRetries:      5,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.cascade = billing.NewCascade(c.defaultStrategies()...)

	return c
}

// Option configures a Catalog instance.
type Option func(*Catalog)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
		c.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(c *Catalog) {
		_ = c.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCustomerDirectory wires the out-of-band billing-provider lookup used
// by the last cascade level. Without it that level is skipped.
func WithCustomerDirectory(d billing.CustomerDirectory) Option {
	return func(c *Catalog) {
		c.directory = d
	}
}

// WithTierCacheTTL sets how long resolved plan tiers are cached.
func WithTierCacheTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		c.tierCacheTTL = ttl
	}
}

// WithReconcileInterval sets how often unresolved billing events are
// retried in the background.
func WithReconcileInterval(d time.Duration) Option {
	return func(c *Catalog) {
		c.reconcileInterval = d
	}
}

// WithSearchFallbackScan sets how many recent listings the unindexed
// search fallback scans.
func WithSearchFallbackScan(n int) Option {
	return func(c *Catalog) {
		c.searchFallbackScan = n
	}
}

// Start begins background workers.
func (c *Catalog) Start(ctx context.Context) error {
	// Migrate database
	if err := c.store.Migrate(ctx); err != nil {
		return err
	}

	// Initialize plugins
	c.plugins.EmitInit(ctx, c)

	// Start unresolved-event retry worker
	c.wg.Add(1)
	go c.reconcileWorker(ctx)

	c.logger.Info("catalog started",
		"tier_cache_ttl", c.tierCacheTTL,
		"reconcile_interval", c.reconcileInterval,
		"search_fallback_scan", c.searchFallbackScan,
	)

	return nil
}

// Stop shuts down the Catalog.
func (c *Catalog) Stop() error {
	close(c.stopChan)
	c.wg.Wait()

	ctx := context.Background()
	c.plugins.EmitShutdown(ctx)

	return c.store.Close()
}
