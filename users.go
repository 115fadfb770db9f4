package catalog

import (
	"context"
	"errors"

	"github.com/xraph/catalog/plan"
	"github.com/xraph/catalog/types"
	"github.com/xraph/catalog/user"
)

// ──────────────────────────────────────────────────
// User Lifecycle
// ──────────────────────────────────────────────────

// EnsureUser upserts the user record for a sign-in event from the auth
// provider. The first sign-in creates the record; later sign-ins refresh
// the profile fields and leave plan state untouched.
func (c *Catalog) EnsureUser(ctx context.Context, userID, email, name string) (*user.User, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}

	existing, err := c.store.GetUser(ctx, userID)
	if err == nil {
		if existing.Email == email && existing.Name == name {
			return existing, nil
		}
		return c.store.MutateUser(ctx, userID, func(u *user.User) error {
			u.Email = email
			u.Name = name
			return nil
		})
	}
	if !IsNotFound(err) {
		return nil, err
	}

	u := &user.User{
		Entity: types.NewEntity(),
		ID:     userID,
		Email:  email,
		Name:   name,
	}
	if err := c.store.CreateUser(ctx, u); err != nil {
		// Concurrent first sign-in from another request.
		if errors.Is(err, ErrAlreadyExists) {
			return c.store.GetUser(ctx, userID)
		}
		return nil, err
	}
	return u, nil
}

// GetUser retrieves a user by auth-provider id.
func (c *Catalog) GetUser(ctx context.Context, userID string) (*user.User, error) {
	return c.store.GetUser(ctx, userID)
}

// DeleteAccount removes a user and every listing they own, for an
// account-deletion event from the auth provider. Feedback the user left on
// other listings is retained with its author id for audit; their historical
// contributions to other listings' aggregates are not unwound.
func (c *Catalog) DeleteAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidInput
	}

	owned, err := c.store.ListAppsByOwner(ctx, userID)
	if err != nil {
		return err
	}
	for _, a := range owned {
		if _, err := c.store.DeleteFeedbackByApp(ctx, a.ID); err != nil {
			return err
		}
		if err := c.store.DeleteApp(ctx, a.ID); err != nil && !IsNotFound(err) {
			return err
		}
		c.plugins.EmitListingDeleted(ctx, a)
	}

	if err := c.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	_ = c.store.InvalidateTier(ctx, userID) //nolint:errcheck // best-effort cache invalidation

	c.logger.Info("account deleted", "user_id", userID, "listings_removed", len(owned))
	return nil
}

// resolveTier returns the user's effective plan tier, consulting the tier
// cache first. Quota checks always recount listings; only the tier lookup
// is cached.
func (c *Catalog) resolveTier(ctx context.Context, userID string) (plan.Tier, error) {
	if tier, err := c.store.GetCachedTier(ctx, userID); err == nil {
		return tier, nil
	}

	u, err := c.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	tier := u.Tier()
	_ = c.store.SetCachedTier(ctx, userID, tier, c.tierCacheTTL) //nolint:errcheck // best-effort cache set
	return tier, nil
}
