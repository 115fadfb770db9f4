package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/user"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                   []OnInit
	onShutdown               []OnShutdown
	onListingCreated         []OnListingCreated
	onListingDeleted         []OnListingDeleted
	onPromotionChanged       []OnPromotionChanged
	onRatingSubmitted        []OnRatingSubmitted
	onLikeToggled            []OnLikeToggled
	onQuotaExceeded          []OnQuotaExceeded
	onEntitlementApplied     []OnEntitlementApplied
	onBillingEventUnresolved []OnBillingEventUnresolved
	onSearchFallback         []OnSearchFallback
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnListingCreated); ok {
		r.onListingCreated = append(r.onListingCreated, v)
	}
	if v, ok := p.(OnListingDeleted); ok {
		r.onListingDeleted = append(r.onListingDeleted, v)
	}
	if v, ok := p.(OnPromotionChanged); ok {
		r.onPromotionChanged = append(r.onPromotionChanged, v)
	}
	if v, ok := p.(OnRatingSubmitted); ok {
		r.onRatingSubmitted = append(r.onRatingSubmitted, v)
	}
	if v, ok := p.(OnLikeToggled); ok {
		r.onLikeToggled = append(r.onLikeToggled, v)
	}
	if v, ok := p.(OnQuotaExceeded); ok {
		r.onQuotaExceeded = append(r.onQuotaExceeded, v)
	}
	if v, ok := p.(OnEntitlementApplied); ok {
		r.onEntitlementApplied = append(r.onEntitlementApplied, v)
	}
	if v, ok := p.(OnBillingEventUnresolved); ok {
		r.onBillingEventUnresolved = append(r.onBillingEventUnresolved, v)
	}
	if v, ok := p.(OnSearchFallback); ok {
		r.onSearchFallback = append(r.onSearchFallback, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnListingCreated)(nil)).Elem(), "OnListingCreated")
	checkInterface(reflect.TypeOf((*OnListingDeleted)(nil)).Elem(), "OnListingDeleted")
	checkInterface(reflect.TypeOf((*OnPromotionChanged)(nil)).Elem(), "OnPromotionChanged")
	checkInterface(reflect.TypeOf((*OnRatingSubmitted)(nil)).Elem(), "OnRatingSubmitted")
	checkInterface(reflect.TypeOf((*OnLikeToggled)(nil)).Elem(), "OnLikeToggled")
	checkInterface(reflect.TypeOf((*OnQuotaExceeded)(nil)).Elem(), "OnQuotaExceeded")
	checkInterface(reflect.TypeOf((*OnEntitlementApplied)(nil)).Elem(), "OnEntitlementApplied")
	checkInterface(reflect.TypeOf((*OnBillingEventUnresolved)(nil)).Elem(), "OnBillingEventUnresolved")
	checkInterface(reflect.TypeOf((*OnSearchFallback)(nil)).Elem(), "OnSearchFallback")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitListingCreated emits a listing created event.
func (r *Registry) EmitListingCreated(ctx context.Context, a *app.Application) {
	r.mu.RLock()
	plugins := r.onListingCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnListingCreated(ctx, a)
		}); err != nil {
			r.logger.Warn("plugin OnListingCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitListingDeleted emits a listing deleted event.
func (r *Registry) EmitListingDeleted(ctx context.Context, a *app.Application) {
	r.mu.RLock()
	plugins := r.onListingDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnListingDeleted(ctx, a)
		}); err != nil {
			r.logger.Warn("plugin OnListingDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPromotionChanged emits a promotion changed event.
func (r *Registry) EmitPromotionChanged(ctx context.Context, a *app.Application, promoted bool) {
	r.mu.RLock()
	plugins := r.onPromotionChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPromotionChanged(ctx, a, promoted)
		}); err != nil {
			r.logger.Warn("plugin OnPromotionChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRatingSubmitted emits a rating submitted event.
func (r *Registry) EmitRatingSubmitted(ctx context.Context, a *app.Application, userID string, in app.RatingInput) {
	r.mu.RLock()
	plugins := r.onRatingSubmitted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRatingSubmitted(ctx, a, userID, in)
		}); err != nil {
			r.logger.Warn("plugin OnRatingSubmitted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLikeToggled emits a like toggled event.
func (r *Registry) EmitLikeToggled(ctx context.Context, a *app.Application, userID string, liked bool) {
	r.mu.RLock()
	plugins := r.onLikeToggled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLikeToggled(ctx, a, userID, liked)
		}); err != nil {
			r.logger.Warn("plugin OnLikeToggled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitQuotaExceeded emits a quota exceeded event.
func (r *Registry) EmitQuotaExceeded(ctx context.Context, userID string, used, limit int) {
	r.mu.RLock()
	plugins := r.onQuotaExceeded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnQuotaExceeded(ctx, userID, used, limit)
		}); err != nil {
			r.logger.Warn("plugin OnQuotaExceeded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitEntitlementApplied emits an entitlement applied event.
func (r *Registry) EmitEntitlementApplied(ctx context.Context, u *user.User, ev *billing.Event, outcome *billing.Outcome) {
	r.mu.RLock()
	plugins := r.onEntitlementApplied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEntitlementApplied(ctx, u, ev, outcome)
		}); err != nil {
			r.logger.Warn("plugin OnEntitlementApplied failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBillingEventUnresolved emits a billing event unresolved event.
func (r *Registry) EmitBillingEventUnresolved(ctx context.Context, ev *billing.Event) {
	r.mu.RLock()
	plugins := r.onBillingEventUnresolved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBillingEventUnresolved(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnBillingEventUnresolved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSearchFallback emits a search fallback event.
func (r *Registry) EmitSearchFallback(ctx context.Context, term string, hits int) {
	r.mu.RLock()
	plugins := r.onSearchFallback
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSearchFallback(ctx, term, hits)
		}); err != nil {
			r.logger.Warn("plugin OnSearchFallback failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the catalog pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
