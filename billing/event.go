// Package billing defines the payment-provider webhook event model and the
// identifier-resolution cascade that maps an event to exactly one user.
//
// Signature verification of the raw webhook payload is the transport
// layer's concern; events handed to this package are already trusted.
package billing

import (
	"errors"
	"time"

	"github.com/xraph/catalog/id"
)

// Type is the provider event type.
type Type string

const (
	TypeCheckoutCompleted   Type = "checkout_completed"
	TypeSubscriptionUpdated Type = "subscription_updated"
	TypeSubscriptionDeleted Type = "subscription_deleted"
)

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case TypeCheckoutCompleted, TypeSubscriptionUpdated, TypeSubscriptionDeleted:
		return true
	}
	return false
}

// Status is the target plan state carried by the event.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Event is a normalized payment-provider webhook event.
type Event struct {
	// ID is assigned locally when the event enters the system; the
	// provider's own delivery id is not trusted to be stable.
	ID id.BillingEventID `json:"id"`

	Type Type `json:"type"`

	// CustomerID is the provider's billing customer id. Reliably present,
	// but only matchable against users that already completed one
	// reconciliation.
	CustomerID string `json:"customer_id"`

	// CustomerEmail is present on some event types (notably checkout).
	CustomerEmail string `json:"customer_email,omitempty"`

	// MetadataUserID is the platform user id propagated through checkout
	// metadata, when the checkout flow supplied it.
	MetadataUserID string `json:"metadata_user_id,omitempty"`

	SubscriptionID   string    `json:"subscription_id,omitempty"`
	Status           Status    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end,omitzero"`

	ReceivedAt time.Time `json:"received_at"`

	// Attempts counts resolution tries; bookkeeping for the unresolved
	// retry queue.
	Attempts  int    `json:"attempts,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Active reports whether the event grants the paid tier. Deletion events
// always revoke, regardless of the carried status.
func (e *Event) Active() bool {
	if e.Type == TypeSubscriptionDeleted {
		return false
	}
	return e.Status == StatusActive
}

// Validate checks the minimum shape required to attempt resolution.
func (e *Event) Validate() error {
	if !e.Type.Valid() {
		return errors.New("billing: unknown event type")
	}
	if e.CustomerID == "" && e.CustomerEmail == "" && e.MetadataUserID == "" {
		return errors.New("billing: event carries no resolvable identifier")
	}
	return nil
}

// Outcome reports how an event application went.
type Outcome struct {
	// Resolved is false when every cascade strategy came up empty; the
	// event is then recorded for retry, not dropped.
	Resolved bool `json:"resolved"`

	// MatchedUserID is set when Resolved.
	MatchedUserID string `json:"matched_user_id,omitempty"`

	// Strategy names the cascade level that matched.
	Strategy string `json:"strategy,omitempty"`

	// LearnedCustomerID is true when this application stored the billing
	// customer id on the user for the first time.
	LearnedCustomerID bool `json:"learned_customer_id,omitempty"`
}
