// Package observability provides a metrics extension for Catalog that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/plugin"
	"github.com/xraph/catalog/user"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                   = (*MetricsExtension)(nil)
	_ plugin.OnInit                   = (*MetricsExtension)(nil)
	_ plugin.OnListingCreated         = (*MetricsExtension)(nil)
	_ plugin.OnListingDeleted         = (*MetricsExtension)(nil)
	_ plugin.OnPromotionChanged       = (*MetricsExtension)(nil)
	_ plugin.OnRatingSubmitted        = (*MetricsExtension)(nil)
	_ plugin.OnLikeToggled            = (*MetricsExtension)(nil)
	_ plugin.OnQuotaExceeded          = (*MetricsExtension)(nil)
	_ plugin.OnEntitlementApplied     = (*MetricsExtension)(nil)
	_ plugin.OnBillingEventUnresolved = (*MetricsExtension)(nil)
	_ plugin.OnSearchFallback         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Catalog plugin to automatically track catalog metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Listing metrics
	ListingCreated  Counter
	ListingDeleted  Counter
	ListingPromoted Counter
	ListingDemoted  Counter

	// Aggregate metrics
	RatingsSubmitted Counter
	LikesToggled     Counter
	LikeCount        Histogram

	// Entitlement metrics
	QuotaDenied         Counter
	EntitlementsApplied Counter
	CustomerIDsLearned  Counter
	BillingUnresolved   Counter

	// Search metrics
	SearchFallbacks    Counter
	SearchFallbackHits Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Listing metrics
		ListingCreated:  factory.Counter("catalog.listing.created"),
		ListingDeleted:  factory.Counter("catalog.listing.deleted"),
		ListingPromoted: factory.Counter("catalog.listing.promoted"),
		ListingDemoted:  factory.Counter("catalog.listing.demoted"),

		// Aggregate metrics
		RatingsSubmitted: factory.Counter("catalog.rating.submitted"),
		LikesToggled:     factory.Counter("catalog.like.toggled"),
		LikeCount:        factory.Histogram("catalog.like.count"),

		// Entitlement metrics
		QuotaDenied:         factory.Counter("catalog.quota.denied"),
		EntitlementsApplied: factory.Counter("catalog.entitlement.applied"),
		CustomerIDsLearned:  factory.Counter("catalog.billing.customer_ids_learned"),
		BillingUnresolved:   factory.Counter("catalog.billing.unresolved"),

		// Search metrics
		SearchFallbacks:    factory.Counter("catalog.search.fallbacks"),
		SearchFallbackHits: factory.Histogram("catalog.search.fallback_hits"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Listing lifecycle hooks
// ──────────────────────────────────────────────────

// OnListingCreated implements plugin.OnListingCreated.
func (m *MetricsExtension) OnListingCreated(_ context.Context, _ *app.Application) error {
	m.ListingCreated.Inc()
	return nil
}

// OnListingDeleted implements plugin.OnListingDeleted.
func (m *MetricsExtension) OnListingDeleted(_ context.Context, _ *app.Application) error {
	m.ListingDeleted.Inc()
	return nil
}

// OnPromotionChanged implements plugin.OnPromotionChanged.
func (m *MetricsExtension) OnPromotionChanged(_ context.Context, _ *app.Application, promoted bool) error {
	if promoted {
		m.ListingPromoted.Inc()
	} else {
		m.ListingDemoted.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Aggregate hooks
// ──────────────────────────────────────────────────

// OnRatingSubmitted implements plugin.OnRatingSubmitted.
func (m *MetricsExtension) OnRatingSubmitted(_ context.Context, _ *app.Application, _ string, _ app.RatingInput) error {
	m.RatingsSubmitted.Inc()
	return nil
}

// OnLikeToggled implements plugin.OnLikeToggled.
func (m *MetricsExtension) OnLikeToggled(_ context.Context, a *app.Application, _ string, _ bool) error {
	m.LikesToggled.Inc()
	m.LikeCount.Observe(float64(a.Likes.Count))
	return nil
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnQuotaExceeded implements plugin.OnQuotaExceeded.
func (m *MetricsExtension) OnQuotaExceeded(_ context.Context, _ string, _, _ int) error {
	m.QuotaDenied.Inc()
	return nil
}

// OnEntitlementApplied implements plugin.OnEntitlementApplied.
func (m *MetricsExtension) OnEntitlementApplied(_ context.Context, _ *user.User, _ *billing.Event, outcome *billing.Outcome) error {
	m.EntitlementsApplied.Inc()
	if outcome.LearnedCustomerID {
		m.CustomerIDsLearned.Inc()
	}
	return nil
}

// OnBillingEventUnresolved implements plugin.OnBillingEventUnresolved.
func (m *MetricsExtension) OnBillingEventUnresolved(_ context.Context, _ *billing.Event) error {
	m.BillingUnresolved.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Search hooks
// ──────────────────────────────────────────────────

// OnSearchFallback implements plugin.OnSearchFallback.
func (m *MetricsExtension) OnSearchFallback(_ context.Context, _ string, hits int) error {
	m.SearchFallbacks.Inc()
	m.SearchFallbackHits.Observe(float64(hits))
	return nil
}
