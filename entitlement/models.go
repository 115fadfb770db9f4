package entitlement

import "github.com/xraph/catalog/plan"

// Result is the outcome of a listing-quota check.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Tier      plan.Tier `json:"tier"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reason    string    `json:"reason,omitempty"`
}
