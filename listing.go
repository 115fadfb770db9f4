package catalog

import (
	"context"
	"unicode/utf8"

	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/entitlement"
	"github.com/xraph/catalog/id"
	"github.com/xraph/catalog/types"
)

// ──────────────────────────────────────────────────
// Listing Management
// ──────────────────────────────────────────────────

// CheckListingQuota resolves the owner's plan tier and compares their
// current listing count against the tier's cap. The count is taken by
// query, not from the denormalized counter, so the boundary is exact.
func (c *Catalog) CheckListingQuota(ctx context.Context, userID string) (*entitlement.Result, error) {
	tier, err := c.resolveTier(ctx, userID)
	if err != nil {
		return nil, err
	}

	used, err := c.store.CountAppsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	limits := tier.Limits()
	result := &entitlement.Result{
		Tier:      tier,
		Used:      used,
		Limit:     limits.MaxListings,
		Remaining: max(0, limits.MaxListings-used),
	}

	if used < limits.MaxListings {
		result.Allowed = true
	} else {
		result.Reason = "listing quota exceeded"
		c.plugins.EmitQuotaExceeded(ctx, userID, used, limits.MaxListings)
	}

	return result, nil
}

// CreateListing validates the owner's quota and description cap, then
// persists the listing. The count-then-create sequence is not atomic: two
// racing creations can transiently exceed the quota by one, which this
// domain accepts.
func (c *Catalog) CreateListing(ctx context.Context, a *app.Application) error {
	if a == nil || a.OwnerID == "" || a.Name == "" {
		return ErrInvalidInput
	}

	quota, err := c.CheckListingQuota(ctx, a.OwnerID)
	if err != nil {
		return err
	}
	if !quota.Allowed {
		return &QuotaError{Resource: "listings", Limit: quota.Limit, Actual: quota.Used}
	}

	if ok, maxLen := quota.Tier.CheckDescription(a.Description); !ok {
		return &QuotaError{Resource: "description", Limit: maxLen, Actual: utf8.RuneCountInString(a.Description)}
	}

	if a.ID.IsNil() {
		a.ID = id.NewAppID()
	}
	a.Entity = types.NewEntity()
	a.SyncNameIndex()
	a.Version = 1

	if err := c.store.CreateApp(ctx, a); err != nil {
		return err
	}

	if _, err := c.store.AdjustAppCount(ctx, a.OwnerID, 1); err != nil {
		// The denormalized counter is advisory; the quota path recounts.
		c.logger.Warn("app count increment failed", "user_id", a.OwnerID, "error", err)
	}

	c.plugins.EmitListingCreated(ctx, a)
	return nil
}

// UpdateListing rewrites the caller's listing content. Aggregates,
// promotion state, and ownership are not touched here.
func (c *Catalog) UpdateListing(ctx context.Context, callerID string, in *app.Application) error {
	if in == nil || in.ID.IsNil() {
		return ErrInvalidInput
	}

	existing, err := c.store.GetApp(ctx, in.ID)
	if err != nil {
		return err
	}
	if existing.OwnerID != callerID {
		return ErrUnauthorized
	}

	tier, err := c.resolveTier(ctx, callerID)
	if err != nil {
		return err
	}
	if ok, maxLen := tier.CheckDescription(in.Description); !ok {
		return &QuotaError{Resource: "description", Limit: maxLen, Actual: utf8.RuneCountInString(in.Description)}
	}

	_, err = c.store.MutateApp(ctx, in.ID, func(a *app.Application) error {
		a.Name = in.Name
		a.Description = in.Description
		a.Category = in.Category
		a.AppType = in.AppType
		a.LiveURL = in.LiveURL
		a.RepoURL = in.RepoURL
		a.IconURL = in.IconURL
		a.ImageURLs = append([]string(nil), in.ImageURLs...)
		a.SyncNameIndex()
		a.Touch()
		return nil
	})
	return err
}

// DeleteListing removes the caller's listing, its feedback, and decrements
// the owner's listing count.
func (c *Catalog) DeleteListing(ctx context.Context, callerID string, appID id.AppID) error {
	a, err := c.store.GetApp(ctx, appID)
	if err != nil {
		return err
	}
	if a.OwnerID != callerID {
		return ErrUnauthorized
	}

	if _, err := c.store.DeleteFeedbackByApp(ctx, appID); err != nil {
		return err
	}
	if err := c.store.DeleteApp(ctx, appID); err != nil {
		return err
	}

	if _, err := c.store.AdjustAppCount(ctx, callerID, -1); err != nil {
		c.logger.Warn("app count decrement failed", "user_id", callerID, "error", err)
	}

	c.plugins.EmitListingDeleted(ctx, a)
	return nil
}

// GetListing retrieves a listing by id.
func (c *Catalog) GetListing(ctx context.Context, appID id.AppID) (*app.Application, error) {
	return c.store.GetApp(ctx, appID)
}

// ──────────────────────────────────────────────────
// Promotion Gate
// ──────────────────────────────────────────────────

// SetPromoted toggles the promoted flag. Only the owner may toggle it, and
// promoting requires a tier that grants it. Pro owners are additionally
// auto-promoted at display time regardless of this flag; that override is
// the presentation layer's concern, not stored state.
func (c *Catalog) SetPromoted(ctx context.Context, appID id.AppID, callerID string, desired bool) error {
	a, err := c.store.GetApp(ctx, appID)
	if err != nil {
		return err
	}
	if a.OwnerID != callerID {
		return ErrUnauthorized
	}

	if desired {
		tier, err := c.resolveTier(ctx, callerID)
		if err != nil {
			return err
		}
		if !tier.Limits().CanPromote {
			return ErrPlanRequired
		}
	}

	updated, err := c.store.MutateApp(ctx, appID, func(a *app.Application) error {
		a.IsPromoted = desired
		a.Touch()
		return nil
	})
	if err != nil {
		return err
	}

	c.plugins.EmitPromotionChanged(ctx, updated, desired)
	return nil
}
