// Package plan defines the plan tiers and the quota policy table that
// governs listing counts, description length, and promotion eligibility.
package plan

import (
	"unicode/utf8"

	"github.com/xraph/catalog/types"
)

// Tier is a plan tier. The platform has exactly two.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPro
}

// Limits is one row of the quota policy table.
type Limits struct {
	// MaxListings is the number of application listings a user may own.
	MaxListings int `json:"max_listings"`

	// MaxDescriptionLen is the description length cap in characters.
	MaxDescriptionLen int `json:"max_description_len"`

	// CanPromote grants the promoted-placement toggle.
	CanPromote bool `json:"can_promote"`
}

var limitsTable = map[Tier]Limits{
	TierFree: {MaxListings: 3, MaxDescriptionLen: 500, CanPromote: false},
	// Pro is "unbounded" in marketing terms but practically capped.
	TierPro: {MaxListings: 20, MaxDescriptionLen: 2000, CanPromote: true},
}

// Limits returns the policy row for the tier. Unknown tiers resolve to the
// free row so a corrupt plan state can never widen a quota.
func (t Tier) Limits() Limits {
	if l, ok := limitsTable[t]; ok {
		return l
	}
	return limitsTable[TierFree]
}

// Price returns the tier's display price per month.
func (t Tier) Price() types.Money {
	if t == TierPro {
		return types.USD(999)
	}
	return types.Zero("usd")
}

// CheckDescription reports whether text fits the tier's description cap,
// along with the cap itself. Length is measured in characters, not bytes.
func (t Tier) CheckDescription(text string) (ok bool, maxLen int) {
	maxLen = t.Limits().MaxDescriptionLen
	return utf8.RuneCountInString(text) <= maxLen, maxLen
}
