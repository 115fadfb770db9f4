// Package catalog provides the entitlement-and-aggregate consistency engine
// for an app showcase platform.
//
// Catalog is designed as a library, not a service. Import it directly into
// your Go application and put it behind your transport layer. It provides:
//
//   - Per-listing rating aggregates with replace-not-append revote semantics
//   - Like toggles whose count can never drift from the membership set
//   - Plan-tier quota enforcement for listing creation and description length
//   - Promotion gating on the paid tier
//   - Billing webhook reconciliation through an ordered identifier cascade,
//     with a persistent retry queue for events that race ahead of sign-up
//   - Typeahead name search with an indexed prefix path and a bounded
//     fallback scan
//
// # Quick Start
//
// Create a catalog instance with your preferred store:
//
//	import (
//	    "github.com/xraph/catalog"
//	    catalogmongo "github.com/xraph/catalog/store/mongo"
//	)
//
//	// Initialize store
//	store := catalogmongo.New(groveDB)
//
//	// Create catalog
//	c := catalog.New(store)
//
//	// Start the catalog (begins background workers)
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Stop()
//
// # Core Concepts
//
// Listings carry their aggregates inline; every rating or like mutation is
// a single atomic document update:
//
//	result, err := c.SubmitRating(ctx, appID, userID, app.RatingInput{Idea: &four})
//	like, err := c.ToggleLike(ctx, appID, userID)
//
// Quota checks resolve the owner's plan tier and recount listings:
//
//	quota, err := c.CheckListingQuota(ctx, userID)
//	if quota.Allowed {
//	    err = c.CreateListing(ctx, listing)
//	}
//
// Billing events from the payment provider flow through the cascade:
//
//	outcome, err := c.ApplyBillingEvent(ctx, event)
//	if !outcome.Resolved {
//	    // queued for background retry
//	}
//
// # TypeID
//
// Listings, feedback, and billing events use TypeID for globally unique,
// type-safe identifiers:
//
//	app_01h2xcejqtf2nbrexx3vqjhp41  // Application ID
//	fbk_01h2xcejqtf2nbrexx3vqjhp41  // Feedback ID
//	bev_01h455vb4pex5vsknk084sn02q  // Billing event ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities. Users keep the opaque id
// issued by the external auth provider.
package catalog
