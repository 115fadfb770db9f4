// Package audithook bridges Catalog lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import the
// audit backend directly. Callers inject a RecorderFunc adapter that
// bridges to the concrete backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/plugin"
	"github.com/xraph/catalog/user"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                   = (*Extension)(nil)
	_ plugin.OnListingCreated         = (*Extension)(nil)
	_ plugin.OnListingDeleted         = (*Extension)(nil)
	_ plugin.OnPromotionChanged       = (*Extension)(nil)
	_ plugin.OnRatingSubmitted        = (*Extension)(nil)
	_ plugin.OnLikeToggled            = (*Extension)(nil)
	_ plugin.OnQuotaExceeded          = (*Extension)(nil)
	_ plugin.OnEntitlementApplied     = (*Extension)(nil)
	_ plugin.OnBillingEventUnresolved = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// Defined locally so this package carries no backend dependency — callers
// inject the concrete recorder at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Catalog lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Listing lifecycle hooks
// ──────────────────────────────────────────────────

// OnListingCreated implements plugin.OnListingCreated.
func (e *Extension) OnListingCreated(ctx context.Context, a *app.Application) error {
	return e.record(ctx, ActionListingCreated, SeverityInfo, OutcomeSuccess,
		ResourceListing, a.ID.String(), CategoryCatalog, nil,
		"owner_id", a.OwnerID,
		"name", a.Name,
	)
}

// OnListingDeleted implements plugin.OnListingDeleted.
func (e *Extension) OnListingDeleted(ctx context.Context, a *app.Application) error {
	return e.record(ctx, ActionListingDeleted, SeverityInfo, OutcomeSuccess,
		ResourceListing, a.ID.String(), CategoryCatalog, nil,
		"owner_id", a.OwnerID,
	)
}

// OnPromotionChanged implements plugin.OnPromotionChanged.
func (e *Extension) OnPromotionChanged(ctx context.Context, a *app.Application, promoted bool) error {
	action := ActionListingPromoted
	if !promoted {
		action = ActionListingDemoted
	}

	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceListing, a.ID.String(), CategoryCatalog, nil,
		"owner_id", a.OwnerID,
		"promoted", promoted,
	)
}

// ──────────────────────────────────────────────────
// Aggregate hooks
// ──────────────────────────────────────────────────

// OnRatingSubmitted implements plugin.OnRatingSubmitted.
func (e *Extension) OnRatingSubmitted(ctx context.Context, a *app.Application, userID string, _ app.RatingInput) error {
	return e.record(ctx, ActionRatingSubmitted, SeverityInfo, OutcomeSuccess,
		ResourceListing, a.ID.String(), CategoryCatalog, nil,
		"user_id", userID,
	)
}

// OnLikeToggled implements plugin.OnLikeToggled.
func (e *Extension) OnLikeToggled(ctx context.Context, a *app.Application, userID string, liked bool) error {
	return e.record(ctx, ActionLikeToggled, SeverityInfo, OutcomeSuccess,
		ResourceListing, a.ID.String(), CategoryCatalog, nil,
		"user_id", userID,
		"liked", liked,
	)
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnQuotaExceeded implements plugin.OnQuotaExceeded.
func (e *Extension) OnQuotaExceeded(ctx context.Context, userID string, used, limit int) error {
	return e.record(ctx, ActionQuotaExceeded, SeverityWarning, OutcomeFailure,
		ResourceEntitlement, userID, CategoryAccess, nil,
		"user_id", userID,
		"used", used,
		"limit", limit,
	)
}

// OnEntitlementApplied implements plugin.OnEntitlementApplied.
func (e *Extension) OnEntitlementApplied(ctx context.Context, u *user.User, ev *billing.Event, outcome *billing.Outcome) error {
	return e.record(ctx, ActionEntitlementApplied, SeverityInfo, OutcomeSuccess,
		ResourceUser, u.ID, CategoryBilling, nil,
		"event_id", ev.ID.String(),
		"event_type", string(ev.Type),
		"strategy", outcome.Strategy,
		"is_pro", u.IsPro,
	)
}

// OnBillingEventUnresolved implements plugin.OnBillingEventUnresolved.
func (e *Extension) OnBillingEventUnresolved(ctx context.Context, ev *billing.Event) error {
	return e.record(ctx, ActionBillingEventUnresolved, SeverityWarning, OutcomePartial,
		ResourceBilling, ev.ID.String(), CategoryBilling, nil,
		"event_type", string(ev.Type),
		"customer_id", ev.CustomerID,
		"attempts", ev.Attempts,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
