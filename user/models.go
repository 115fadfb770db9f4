// Package user defines the platform user record. A user's primary key is
// the opaque identifier issued by the external auth provider; the billing
// identity (customer id) is learned lazily by the billing reconciler.
package user

import (
	"time"

	"github.com/xraph/catalog/plan"
	"github.com/xraph/catalog/types"
)

type User struct {
	types.Entity

	// ID is the external auth provider identity, not a TypeID.
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`

	// Billing identity. Empty until the first successful reconciliation
	// learns it from a provider event.
	StripeCustomerID string `json:"stripe_customer_id,omitempty"`

	// Plan state, written only by the billing reconciler.
	IsPro                 bool       `json:"is_pro"`
	SubscriptionID        string     `json:"subscription_id,omitempty"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`

	// AppCount is the denormalized listing count, maintained with atomic
	// increments alongside listing create/delete.
	AppCount int `json:"app_count"`
}

// Tier resolves the user's effective plan tier. A pro subscription whose
// period end has passed without a renewal event degrades to free.
func (u *User) Tier() plan.Tier {
	if !u.IsPro {
		return plan.TierFree
	}
	if u.SubscriptionExpiresAt != nil && time.Now().After(*u.SubscriptionExpiresAt) {
		return plan.TierFree
	}
	return plan.TierPro
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// alias the stored record.
func (u *User) Clone() *User {
	c := *u
	if u.SubscriptionExpiresAt != nil {
		t := *u.SubscriptionExpiresAt
		c.SubscriptionExpiresAt = &t
	}
	return &c
}
