package billing

import (
	"context"
	"fmt"

	"github.com/xraph/catalog/user"
)

// Strategy is one level of the reconciliation cascade: a named function
// that maps an event to a user, or to nothing. Returning (nil, nil) means
// "no match, try the next level"; an error aborts the cascade so the event
// can be retried later.
type Strategy struct {
	Name    string
	Resolve func(ctx context.Context, ev *Event) (*user.User, error)
}

// CustomerDirectory answers out-of-band queries against the billing
// provider. It backs the last-resort cascade level for events that arrive
// without an email or metadata identity.
type CustomerDirectory interface {
	// CustomerEmail returns the email on file for a billing customer.
	CustomerEmail(ctx context.Context, customerID string) (string, error)
}

// Cascade tries an ordered list of strategies; the first match wins.
type Cascade struct {
	strategies []Strategy
}

// NewCascade builds a cascade from strategies in priority order.
func NewCascade(strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies}
}

// Resolve runs the cascade. It returns the matched user and the name of
// the strategy that found it, or (nil, "", nil) when every level came up
// empty. A strategy error stops the cascade immediately.
func (c *Cascade) Resolve(ctx context.Context, ev *Event) (*user.User, string, error) {
	for _, s := range c.strategies {
		u, err := s.Resolve(ctx, ev)
		if err != nil {
			return nil, "", fmt.Errorf("billing: strategy %s: %w", s.Name, err)
		}
		if u != nil {
			return u, s.Name, nil
		}
	}
	return nil, "", nil
}
