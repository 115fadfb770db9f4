// Package memory provides an in-memory Store implementation, primarily for
// tests and local development. Documents are cloned on the way in and out
// so callers can never alias stored state.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/catalog"
	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/feedback"
	"github.com/xraph/catalog/id"
	"github.com/xraph/catalog/plan"
	"github.com/xraph/catalog/user"
)

type tierEntry struct {
	tier   plan.Tier
	expiry time.Time
}

type Store struct {
	mu sync.RWMutex

	// User storage, keyed by auth-provider id
	users map[string]*user.User

	// Application storage
	apps map[string]*app.Application

	// Feedback storage
	feedbacks map[string]*feedback.Feedback

	// Tier cache
	tierCache map[string]tierEntry

	// Unresolved billing event queue
	unresolved map[string]*billing.Event

	// indexAvailable simulates the presence of the lowercase-name search
	// index. Tests flip it off to exercise the fallback scan.
	indexAvailable bool

	closed bool
}

func New() *Store {
	return &Store{
		users:          make(map[string]*user.User),
		apps:           make(map[string]*app.Application),
		feedbacks:      make(map[string]*feedback.Feedback),
		tierCache:      make(map[string]tierEntry),
		unresolved:     make(map[string]*billing.Event),
		indexAvailable: true,
	}
}

// SetIndexAvailable toggles the simulated search index.
func (s *Store) SetIndexAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexAvailable = available
}

// ──────────────────────────────────────────────────
// User methods
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.ID]; exists {
		return catalog.ErrAlreadyExists
	}
	s.users[u.ID] = u.Clone()
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID]; ok {
		return u.Clone(), nil
	}
	return nil, catalog.ErrUserNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return u.Clone(), nil
		}
	}
	return nil, catalog.ErrUserNotFound
}

func (s *Store) GetUserByCustomerID(_ context.Context, customerID string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.StripeCustomerID != "" && u.StripeCustomerID == customerID {
			return u.Clone(), nil
		}
	}
	return nil, catalog.ErrUserNotFound
}

func (s *Store) MutateUser(_ context.Context, userID string, fn func(*user.User) error) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[userID]
	if !ok {
		return nil, catalog.ErrUserNotFound
	}

	// fn works on a private copy; a fn error leaves stored state untouched.
	draft := stored.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}

	s.users[userID] = draft
	return draft.Clone(), nil
}

func (s *Store) AdjustAppCount(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return 0, catalog.ErrUserNotFound
	}
	u.AppCount += delta
	if u.AppCount < 0 {
		u.AppCount = 0
	}
	return u.AppCount, nil
}

func (s *Store) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return catalog.ErrUserNotFound
	}
	delete(s.users, userID)
	delete(s.tierCache, userID)
	return nil
}

// ──────────────────────────────────────────────────
// Application methods
// ──────────────────────────────────────────────────

func (s *Store) CreateApp(_ context.Context, a *app.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := a.ID.String()
	if _, exists := s.apps[key]; exists {
		return catalog.ErrAlreadyExists
	}
	if a.Version == 0 {
		a.Version = 1
	}
	s.apps[key] = a.Clone()
	return nil
}

func (s *Store) GetApp(_ context.Context, appID id.AppID) (*app.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.apps[appID.String()]; ok {
		return a.Clone(), nil
	}
	return nil, catalog.ErrAppNotFound
}

func (s *Store) MutateApp(_ context.Context, appID id.AppID, fn func(*app.Application) error) (*app.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.apps[appID.String()]
	if !ok {
		return nil, catalog.ErrAppNotFound
	}

	draft := stored.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}

	draft.Version = stored.Version + 1
	s.apps[appID.String()] = draft
	return draft.Clone(), nil
}

func (s *Store) DeleteApp(_ context.Context, appID id.AppID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[appID.String()]; !ok {
		return catalog.ErrAppNotFound
	}
	delete(s.apps, appID.String())
	return nil
}

func (s *Store) CountAppsByOwner(_ context.Context, ownerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.apps {
		if a.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListAppsByOwner(_ context.Context, ownerID string) ([]*app.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*app.Application, 0)
	for _, a := range s.apps {
		if a.OwnerID == ownerID {
			result = append(result, a.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) ListRecentApps(_ context.Context, limit int) ([]*app.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*app.Application, 0, len(s.apps))
	for _, a := range s.apps {
		result = append(result, a.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) SearchAppsByPrefix(_ context.Context, prefix string, limit int) ([]*app.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.indexAvailable {
		return nil, catalog.ErrSearchIndexUnavailable
	}

	matched := make([]*app.Application, 0)
	for _, a := range s.apps {
		// Records written before the name key existed have no NameLower and
		// are invisible to the indexed path, same as an unbackfilled index.
		if a.NameLower == "" {
			continue
		}
		if strings.HasPrefix(a.NameLower, prefix) {
			matched = append(matched, a)
		}
	}
	// Promoted listings rank first, then alphabetical on the derived key.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IsPromoted != matched[j].IsPromoted {
			return matched[i].IsPromoted
		}
		return matched[i].NameLower < matched[j].NameLower
	})

	result := make([]*app.Summary, 0, len(matched))
	for _, a := range matched {
		result = append(result, a.Summary())
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) AdjustFeedbackCount(_ context.Context, appID id.AppID, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[appID.String()]
	if !ok {
		return 0, catalog.ErrAppNotFound
	}
	a.Ratings.FeedbackCount += delta
	if a.Ratings.FeedbackCount < 0 {
		a.Ratings.FeedbackCount = 0
	}
	return a.Ratings.FeedbackCount, nil
}

func (s *Store) SetFeedbackCount(_ context.Context, appID id.AppID, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[appID.String()]
	if !ok {
		return catalog.ErrAppNotFound
	}
	a.Ratings.FeedbackCount = count
	return nil
}

// ──────────────────────────────────────────────────
// Feedback methods
// ──────────────────────────────────────────────────

func (s *Store) CreateFeedback(_ context.Context, f *feedback.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := f.ID.String()
	if _, exists := s.feedbacks[key]; exists {
		return catalog.ErrAlreadyExists
	}
	clone := *f
	s.feedbacks[key] = &clone
	return nil
}

func (s *Store) GetFeedback(_ context.Context, fbID id.FeedbackID) (*feedback.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.feedbacks[fbID.String()]; ok {
		clone := *f
		return &clone, nil
	}
	return nil, catalog.ErrFeedbackNotFound
}

func (s *Store) UpdateFeedback(_ context.Context, f *feedback.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := f.ID.String()
	if _, ok := s.feedbacks[key]; !ok {
		return catalog.ErrFeedbackNotFound
	}
	clone := *f
	s.feedbacks[key] = &clone
	return nil
}

func (s *Store) DeleteFeedback(_ context.Context, fbID id.FeedbackID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.feedbacks[fbID.String()]; !ok {
		return catalog.ErrFeedbackNotFound
	}
	delete(s.feedbacks, fbID.String())
	return nil
}

func (s *Store) DeleteFeedbackByApp(_ context.Context, appID id.AppID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, f := range s.feedbacks {
		if f.AppID == appID {
			delete(s.feedbacks, key)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) ListFeedback(_ context.Context, appID id.AppID, opts feedback.ListOpts) ([]*feedback.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*feedback.Feedback, 0)
	for _, f := range s.feedbacks {
		if f.AppID == appID {
			clone := *f
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

func (s *Store) CountFeedback(_ context.Context, appID id.AppID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, f := range s.feedbacks {
		if f.AppID == appID {
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Tier cache methods
// ──────────────────────────────────────────────────

func (s *Store) GetCachedTier(_ context.Context, userID string) (plan.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.tierCache[userID]
	if !ok || time.Now().After(entry.expiry) {
		return "", catalog.ErrCacheMiss
	}
	return entry.tier, nil
}

func (s *Store) SetCachedTier(_ context.Context, userID string, tier plan.Tier, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tierCache[userID] = tierEntry{tier: tier, expiry: time.Now().Add(ttl)}
	return nil
}

func (s *Store) InvalidateTier(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tierCache, userID)
	return nil
}

// ──────────────────────────────────────────────────
// Unresolved billing event methods
// ──────────────────────────────────────────────────

func (s *Store) RecordUnresolvedEvent(_ context.Context, ev *billing.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *ev
	s.unresolved[ev.ID.String()] = &clone
	return nil
}

func (s *Store) ListUnresolvedEvents(_ context.Context, limit int) ([]*billing.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*billing.Event, 0, len(s.unresolved))
	for _, ev := range s.unresolved {
		clone := *ev
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ReceivedAt.Before(result[j].ReceivedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) UpdateUnresolvedEvent(_ context.Context, ev *billing.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.unresolved[ev.ID.String()]; !ok {
		return catalog.ErrNotFound
	}
	clone := *ev
	s.unresolved[ev.ID.String()] = &clone
	return nil
}

func (s *Store) ResolveUnresolvedEvent(_ context.Context, eventID id.BillingEventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.unresolved[eventID.String()]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.unresolved, eventID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Core methods
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return catalog.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
