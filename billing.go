package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/id"
	"github.com/xraph/catalog/user"
)

// ──────────────────────────────────────────────────
// Billing Reconciliation
// ──────────────────────────────────────────────────

// defaultStrategies builds the reconciliation cascade in priority order:
// stored customer id, event email, checkout metadata user id, then an
// out-of-band provider lookup. Each level returns (nil, nil) on a clean
// miss so the cascade falls through.
func (c *Catalog) defaultStrategies() []billing.Strategy {
	return []billing.Strategy{
		{
			Name: "customer_id",
			Resolve: func(ctx context.Context, ev *billing.Event) (*user.User, error) {
				if ev.CustomerID == "" {
					return nil, nil
				}
				u, err := c.store.GetUserByCustomerID(ctx, ev.CustomerID)
				if IsNotFound(err) {
					return nil, nil
				}
				return u, err
			},
		},
		{
			Name: "email",
			Resolve: func(ctx context.Context, ev *billing.Event) (*user.User, error) {
				if ev.CustomerEmail == "" {
					return nil, nil
				}
				u, err := c.store.GetUserByEmail(ctx, ev.CustomerEmail)
				if IsNotFound(err) {
					return nil, nil
				}
				return u, err
			},
		},
		{
			Name: "metadata_user_id",
			Resolve: func(ctx context.Context, ev *billing.Event) (*user.User, error) {
				if ev.MetadataUserID == "" {
					return nil, nil
				}
				u, err := c.store.GetUser(ctx, ev.MetadataUserID)
				if IsNotFound(err) {
					return nil, nil
				}
				return u, err
			},
		},
		{
			Name: "directory_lookup",
			Resolve: func(ctx context.Context, ev *billing.Event) (*user.User, error) {
				if c.directory == nil || ev.CustomerID == "" {
					return nil, nil
				}
				email, err := c.directory.CustomerEmail(ctx, ev.CustomerID)
				if err != nil {
					// Provider lookup failures are transient; abort so the
					// event lands in the retry queue.
					return nil, err
				}
				if email == "" {
					return nil, nil
				}
				u, err := c.store.GetUserByEmail(ctx, email)
				if IsNotFound(err) {
					return nil, nil
				}
				return u, err
			},
		},
	}
}

// ApplyBillingEvent runs the reconciliation cascade for a provider event
// and writes the resulting plan state onto the matched user. Events that
// match no user are recorded for background retry and reported as
// unresolved, not failed.
//
// The write is absolute-state, so re-delivering the same event is a no-op.
func (c *Catalog) ApplyBillingEvent(ctx context.Context, ev *billing.Event) (*billing.Outcome, error) {
	if ev == nil {
		return nil, ErrInvalidBillingEvent
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBillingEvent, err)
	}

	if ev.ID.IsNil() {
		ev.ID = id.NewBillingEventID()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}

	u, strategy, err := c.cascade.Resolve(ctx, ev)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return c.recordUnresolved(ctx, ev)
	}

	outcome, err := c.applyEntitlement(ctx, u.ID, ev, strategy)
	if err != nil {
		return nil, err
	}

	c.logger.Info("billing event applied",
		"event_id", ev.ID,
		"event_type", ev.Type,
		"user_id", u.ID,
		"strategy", strategy,
		"active", ev.Active(),
	)
	return outcome, nil
}

// applyEntitlement writes the event's plan state onto the user. Shared by
// the synchronous path and the background retry worker.
func (c *Catalog) applyEntitlement(ctx context.Context, userID string, ev *billing.Event, strategy string) (*billing.Outcome, error) {
	learned := false

	updated, err := c.store.MutateUser(ctx, userID, func(u *user.User) error {
		learned = u.StripeCustomerID == "" && ev.CustomerID != ""
		if learned {
			u.StripeCustomerID = ev.CustomerID
		}

		u.IsPro = ev.Active()
		if ev.Active() {
			u.SubscriptionID = ev.SubscriptionID
			if !ev.CurrentPeriodEnd.IsZero() {
				end := ev.CurrentPeriodEnd
				u.SubscriptionExpiresAt = &end
			}
		} else {
			u.SubscriptionID = ""
			u.SubscriptionExpiresAt = nil
		}
		u.Touch()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Tier changed; drop the cached resolution so quota checks see it now.
	_ = c.store.InvalidateTier(ctx, userID) //nolint:errcheck // best-effort cache invalidation

	outcome := &billing.Outcome{
		Resolved:          true,
		MatchedUserID:     updated.ID,
		Strategy:          strategy,
		LearnedCustomerID: learned,
	}
	c.plugins.EmitEntitlementApplied(ctx, updated, ev, outcome)
	return outcome, nil
}

// recordUnresolved queues an event that matched no user. This is the
// expected path for webhooks that race ahead of user sign-up.
func (c *Catalog) recordUnresolved(ctx context.Context, ev *billing.Event) (*billing.Outcome, error) {
	ev.Attempts++
	ev.LastError = ErrUnresolvedBillingEvent.Error()

	if err := c.store.RecordUnresolvedEvent(ctx, ev); err != nil {
		return nil, err
	}

	c.logger.Warn("billing event unresolved",
		"event_id", ev.ID,
		"event_type", ev.Type,
		"customer_id", ev.CustomerID,
		"attempts", ev.Attempts,
	)
	c.plugins.EmitBillingEventUnresolved(ctx, ev)

	return &billing.Outcome{Resolved: false}, nil
}

// UnresolvedBillingEvents lists events still awaiting a user match, oldest
// first.
func (c *Catalog) UnresolvedBillingEvents(ctx context.Context, limit int) ([]*billing.Event, error) {
	if limit <= 0 {
		limit = c.reconcileBatchSize
	}
	return c.store.ListUnresolvedEvents(ctx, limit)
}

// ReconcileUnresolved retries the cascade for queued events once. The
// background worker calls this on a ticker; it is exported so operators can
// trigger a pass after a manual data fix.
func (c *Catalog) ReconcileUnresolved(ctx context.Context) (resolved int, err error) {
	events, err := c.store.ListUnresolvedEvents(ctx, c.reconcileBatchSize)
	if err != nil {
		return 0, err
	}

	for _, ev := range events {
		u, strategy, rerr := c.cascade.Resolve(ctx, ev)
		if rerr != nil {
			ev.Attempts++
			ev.LastError = rerr.Error()
			if uerr := c.store.UpdateUnresolvedEvent(ctx, ev); uerr != nil {
				c.logger.Warn("unresolved event bookkeeping failed", "event_id", ev.ID, "error", uerr)
			}
			continue
		}
		if u == nil {
			ev.Attempts++
			ev.LastError = ErrUnresolvedBillingEvent.Error()
			if uerr := c.store.UpdateUnresolvedEvent(ctx, ev); uerr != nil {
				c.logger.Warn("unresolved event bookkeeping failed", "event_id", ev.ID, "error", uerr)
			}
			continue
		}

		if _, aerr := c.applyEntitlement(ctx, u.ID, ev, strategy); aerr != nil {
			c.logger.Warn("unresolved event apply failed", "event_id", ev.ID, "user_id", u.ID, "error", aerr)
			continue
		}
		if rerr := c.store.ResolveUnresolvedEvent(ctx, ev.ID); rerr != nil {
			c.logger.Warn("unresolved event removal failed", "event_id", ev.ID, "error", rerr)
			continue
		}

		resolved++
		c.logger.Info("unresolved billing event reconciled",
			"event_id", ev.ID,
			"user_id", u.ID,
			"strategy", strategy,
			"attempts", ev.Attempts,
		)
	}

	return resolved, nil
}

// reconcileWorker periodically retries unresolved billing events until
// Stop is called or the start context is cancelled.
func (c *Catalog) reconcileWorker(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.ReconcileUnresolved(ctx); err != nil {
				c.logger.Error("billing reconcile pass failed", "error", err)
			}
		}
	}
}
