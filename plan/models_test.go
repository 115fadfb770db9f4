package plan

import (
	"strings"
	"testing"
)

func TestLimitsTable(t *testing.T) {
	tests := []struct {
		tier        Tier
		maxListings int
		maxDescLen  int
		canPromote  bool
	}{
		{TierFree, 3, 500, false},
		{TierPro, 20, 2000, true},
		{Tier("corrupt"), 3, 500, false}, // unknown tiers collapse to free
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			l := tt.tier.Limits()
			if l.MaxListings != tt.maxListings {
				t.Errorf("MaxListings: got %d, want %d", l.MaxListings, tt.maxListings)
			}
			if l.MaxDescriptionLen != tt.maxDescLen {
				t.Errorf("MaxDescriptionLen: got %d, want %d", l.MaxDescriptionLen, tt.maxDescLen)
			}
			if l.CanPromote != tt.canPromote {
				t.Errorf("CanPromote: got %v, want %v", l.CanPromote, tt.canPromote)
			}
		})
	}
}

func TestCheckDescription(t *testing.T) {
	tests := []struct {
		name string
		tier Tier
		text string
		ok   bool
	}{
		{"free under cap", TierFree, strings.Repeat("a", 500), true},
		{"free over cap", TierFree, strings.Repeat("a", 501), false},
		{"pro accepts what free rejects", TierPro, strings.Repeat("a", 501), true},
		{"pro over cap", TierPro, strings.Repeat("a", 2001), false},
		{"multibyte counted as characters", TierFree, strings.Repeat("é", 500), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, maxLen := tt.tier.CheckDescription(tt.text)
			if ok != tt.ok {
				t.Errorf("ok: got %v, want %v", ok, tt.ok)
			}
			if maxLen != tt.tier.Limits().MaxDescriptionLen {
				t.Errorf("maxLen: got %d, want %d", maxLen, tt.tier.Limits().MaxDescriptionLen)
			}
		})
	}
}

func TestTierPrice(t *testing.T) {
	if !TierFree.Price().IsZero() {
		t.Error("free tier should be free")
	}
	if !TierPro.Price().IsPositive() {
		t.Error("pro tier should carry a price")
	}
}
