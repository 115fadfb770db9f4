// Package app defines the application listing aggregate: the embedded
// like set and rating totals, and the pure update rules that keep them
// consistent. All mutation helpers here operate on a single in-memory
// document; persistence-level atomicity is the store's concern.
package app

import (
	"strings"

	"github.com/xraph/catalog/id"
	"github.com/xraph/catalog/types"
)

// Application is one catalog listing.
type Application struct {
	types.Entity

	ID      id.AppID `json:"id"`
	OwnerID string   `json:"owner_id"`

	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	AppType     string `json:"app_type,omitempty"`

	LiveURL   string   `json:"live_url,omitempty"`
	RepoURL   string   `json:"repo_url,omitempty"`
	IconURL   string   `json:"icon_url,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty"`

	// NameLower is the derived prefix-search key. Maintained at write time;
	// may be absent on records written before the index existed.
	NameLower string `json:"name_lower,omitempty"`

	Likes      Likes   `json:"likes"`
	Ratings    Ratings `json:"ratings"`
	IsPromoted bool    `json:"is_promoted"`

	// Version is the optimistic-concurrency token. Every persisted mutation
	// of the document increments it.
	Version int64 `json:"version"`
}

// SyncNameIndex refreshes the derived search key from Name.
func (a *Application) SyncNameIndex() {
	a.NameLower = strings.ToLower(strings.TrimSpace(a.Name))
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// alias the stored document.
func (a *Application) Clone() *Application {
	c := *a
	c.ImageURLs = append([]string(nil), a.ImageURLs...)
	c.Likes.Users = append([]string(nil), a.Likes.Users...)
	c.Ratings.Entries = make([]RatingEntry, len(a.Ratings.Entries))
	for i, e := range a.Ratings.Entries {
		c.Ratings.Entries[i] = e.clone()
	}
	return &c
}

// Summary is the lightweight projection served by search.
type Summary struct {
	ID          id.AppID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IconURL     string   `json:"icon_url,omitempty"`
}

// Summary projects the listing into its search shape.
func (a *Application) Summary() *Summary {
	return &Summary{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		IconURL:     a.IconURL,
	}
}

// ──────────────────────────────────────────────────
// Likes
// ──────────────────────────────────────────────────

// Likes is the like aggregate. Invariant: Count == len(Users).
type Likes struct {
	Count int      `json:"count"`
	Users []string `json:"users,omitempty"`
}

// Has reports whether userID is in the like set.
func (l *Likes) Has(userID string) bool {
	for _, u := range l.Users {
		if u == userID {
			return true
		}
	}
	return false
}

// Toggle flips userID's membership and returns the new liked state.
// Count is recomputed from the set, never adjusted independently.
func (l *Likes) Toggle(userID string) (liked bool) {
	for i, u := range l.Users {
		if u == userID {
			l.Users = append(l.Users[:i], l.Users[i+1:]...)
			l.Count = len(l.Users)
			return false
		}
	}
	l.Users = append(l.Users, userID)
	l.Count = len(l.Users)
	return true
}

// ──────────────────────────────────────────────────
// Ratings
// ──────────────────────────────────────────────────

// Rating bounds.
const (
	RatingMin = 1
	RatingMax = 5
)

// AxisTotals is the running aggregate for one rating axis.
// The average is always derived, never stored, so rounding drift cannot
// compound across updates.
type AxisTotals struct {
	Total int `json:"total"`
	Count int `json:"count"`
}

// Average returns Total/Count, or 0 when no ratings exist.
func (t AxisTotals) Average() float64 {
	if t.Count == 0 {
		return 0
	}
	return float64(t.Total) / float64(t.Count)
}

// RatingEntry is one user's recorded ratings. Either axis may be unset.
type RatingEntry struct {
	UserID  string `json:"user_id"`
	Idea    *int   `json:"idea,omitempty"`
	Product *int   `json:"product,omitempty"`
}

func (e RatingEntry) clone() RatingEntry {
	c := e
	if e.Idea != nil {
		v := *e.Idea
		c.Idea = &v
	}
	if e.Product != nil {
		v := *e.Product
		c.Product = &v
	}
	return c
}

// Ratings is the rating aggregate embedded in an Application.
//
// Invariants:
//   - Idea.Total == sum of Entries[*].Idea, Idea.Count == number of entries
//     with Idea set (symmetrically for Product)
//   - Entries is unique by UserID
type Ratings struct {
	Idea    AxisTotals `json:"idea"`
	Product AxisTotals `json:"product"`

	// FeedbackCount tracks Feedback rows referencing the application.
	// Best-effort: maintained by atomic increments that are not
	// transactional with feedback creation.
	FeedbackCount int `json:"feedback_count"`

	Entries []RatingEntry `json:"user_ratings,omitempty"`
}

// Entry returns the recorded entry for userID, or nil.
func (r *Ratings) Entry(userID string) *RatingEntry {
	for i := range r.Entries {
		if r.Entries[i].UserID == userID {
			return &r.Entries[i]
		}
	}
	return nil
}

// RatingInput carries the axes being submitted. At least one must be set.
type RatingInput struct {
	Idea    *int `json:"idea,omitempty"`
	Product *int `json:"product,omitempty"`
}

// Empty reports whether no axis is set.
func (in RatingInput) Empty() bool { return in.Idea == nil && in.Product == nil }

// InRange reports whether every supplied axis value is within bounds.
func (in RatingInput) InRange() bool {
	if in.Idea != nil && (*in.Idea < RatingMin || *in.Idea > RatingMax) {
		return false
	}
	if in.Product != nil && (*in.Product < RatingMin || *in.Product > RatingMax) {
		return false
	}
	return true
}

// Apply upserts the user's entry and adjusts the running totals. For each
// supplied axis: a prior value is replaced (total adjusted by the delta,
// count unchanged); a first-time value adds to the total and increments the
// count. Both axes of one call land in the same document mutation.
func (r *Ratings) Apply(userID string, in RatingInput) {
	e := r.Entry(userID)
	if e == nil {
		r.Entries = append(r.Entries, RatingEntry{UserID: userID})
		e = &r.Entries[len(r.Entries)-1]
	}

	if in.Idea != nil {
		if e.Idea != nil {
			r.Idea.Total += *in.Idea - *e.Idea
		} else {
			r.Idea.Total += *in.Idea
			r.Idea.Count++
		}
		v := *in.Idea
		e.Idea = &v
	}

	if in.Product != nil {
		if e.Product != nil {
			r.Product.Total += *in.Product - *e.Product
		} else {
			r.Product.Total += *in.Product
			r.Product.Count++
		}
		v := *in.Product
		e.Product = &v
	}
}

// RatingResult is returned to callers after a rating submission.
type RatingResult struct {
	IdeaAverage    float64 `json:"idea_average"`
	IdeaCount      int     `json:"idea_count"`
	ProductAverage float64 `json:"product_average"`
	ProductCount   int     `json:"product_count"`
}

// LikeResult is returned to callers after a like toggle.
type LikeResult struct {
	Liked    bool `json:"liked"`
	NewCount int  `json:"new_count"`
}
