// Package plugin provides an extensible plugin system for Catalog.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/user"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized. The handle is the
// *catalog.Catalog engine; typed as interface{} to avoid an import cycle.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Listing lifecycle hooks
// ──────────────────────────────────────────────────

// OnListingCreated is called when a new listing is created.
type OnListingCreated interface {
	Plugin
	OnListingCreated(ctx context.Context, a *app.Application) error
}

// OnListingDeleted is called when a listing is deleted.
type OnListingDeleted interface {
	Plugin
	OnListingDeleted(ctx context.Context, a *app.Application) error
}

// OnPromotionChanged is called when a listing's promoted flag changes.
type OnPromotionChanged interface {
	Plugin
	OnPromotionChanged(ctx context.Context, a *app.Application, promoted bool) error
}

// ──────────────────────────────────────────────────
// Aggregate hooks
// ──────────────────────────────────────────────────

// OnRatingSubmitted is called after a rating lands on a listing.
type OnRatingSubmitted interface {
	Plugin
	OnRatingSubmitted(ctx context.Context, a *app.Application, userID string, in app.RatingInput) error
}

// OnLikeToggled is called after a like toggle lands on a listing.
type OnLikeToggled interface {
	Plugin
	OnLikeToggled(ctx context.Context, a *app.Application, userID string, liked bool) error
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnQuotaExceeded is called when a listing quota check denies.
type OnQuotaExceeded interface {
	Plugin
	OnQuotaExceeded(ctx context.Context, userID string, used, limit int) error
}

// OnEntitlementApplied is called after a billing event writes plan state
// onto a user.
type OnEntitlementApplied interface {
	Plugin
	OnEntitlementApplied(ctx context.Context, u *user.User, ev *billing.Event, outcome *billing.Outcome) error
}

// OnBillingEventUnresolved is called when a billing event matches no user
// and enters the retry queue.
type OnBillingEventUnresolved interface {
	Plugin
	OnBillingEventUnresolved(ctx context.Context, ev *billing.Event) error
}

// ──────────────────────────────────────────────────
// Search hooks
// ──────────────────────────────────────────────────

// OnSearchFallback is called when a search is served by the unindexed
// fallback scan.
type OnSearchFallback interface {
	Plugin
	OnSearchFallback(ctx context.Context, term string, hits int) error
}
