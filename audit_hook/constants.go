package audithook

// Action constants for audit events.
const (
	// Listing actions
	ActionListingCreated   = "listing.created"
	ActionListingDeleted   = "listing.deleted"
	ActionListingPromoted  = "listing.promoted"
	ActionListingDemoted   = "listing.demoted"

	// Aggregate actions
	ActionRatingSubmitted = "rating.submitted"
	ActionLikeToggled     = "like.toggled"

	// Entitlement actions
	ActionQuotaExceeded      = "quota.exceeded"
	ActionEntitlementApplied = "entitlement.applied"

	// Billing actions
	ActionBillingEventUnresolved = "billing_event.unresolved"

	// Search actions
	ActionSearchFallback = "search.fallback"
)

// Resource constants for audit events.
const (
	ResourceListing     = "listing"
	ResourceUser        = "user"
	ResourceEntitlement = "entitlement"
	ResourceBilling     = "billing_event"
	ResourceSearch      = "search"
)

// Category constants for audit events.
const (
	CategoryCatalog = "catalog"
	CategoryAccess  = "access"
	CategoryBilling = "billing"
	CategorySearch  = "search"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
