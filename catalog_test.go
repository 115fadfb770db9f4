package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xraph/catalog"
	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/plan"
	"github.com/xraph/catalog/store/memory"
)

func iptr(v int) *int { return &v }

func newCatalog(opts ...catalog.Option) (*catalog.Catalog, *memory.Store) {
	s := memory.New()
	return catalog.New(s, opts...), s
}

func mustEnsureUser(t *testing.T, c *catalog.Catalog, userID, email string) {
	t.Helper()
	if _, err := c.EnsureUser(context.Background(), userID, email, "Test User"); err != nil {
		t.Fatalf("EnsureUser(%s): %v", userID, err)
	}
}

func mustCreateListing(t *testing.T, c *catalog.Catalog, ownerID, name string) *app.Application {
	t.Helper()
	a := &app.Application{OwnerID: ownerID, Name: name, Description: "a listing"}
	if err := c.CreateListing(context.Background(), a); err != nil {
		t.Fatalf("CreateListing(%s): %v", name, err)
	}
	return a
}

func upgradeToPro(t *testing.T, c *catalog.Catalog, email, customerID string) {
	t.Helper()
	end := time.Now().Add(30 * 24 * time.Hour)
	outcome, err := c.ApplyBillingEvent(context.Background(), &billing.Event{
		Type:             billing.TypeCheckoutCompleted,
		CustomerID:       customerID,
		CustomerEmail:    email,
		Status:           billing.StatusActive,
		CurrentPeriodEnd: end,
	})
	if err != nil {
		t.Fatalf("ApplyBillingEvent: %v", err)
	}
	if !outcome.Resolved {
		t.Fatalf("upgrade event did not resolve")
	}
}

// ──────────────────────────────────────────────────
// User lifecycle
// ──────────────────────────────────────────────────

func TestEnsureUser(t *testing.T) {
	c, _ := newCatalog()
	ctx := context.Background()

	t.Run("FirstSignInCreates", func(t *testing.T) {
		u, err := c.EnsureUser(ctx, "auth_1", "one@example.com", "One")
		if err != nil {
			t.Fatal(err)
		}
		if u.Tier() != plan.TierFree {
			t.Errorf("new user tier = %s, want free", u.Tier())
		}
	})

	t.Run("RepeatSignInIsIdempotent", func(t *testing.T) {
		u, err := c.EnsureUser(ctx, "auth_1", "one@example.com", "One")
		if err != nil {
			t.Fatal(err)
		}
		if u.ID != "auth_1" {
			t.Errorf("ID = %s, want auth_1", u.ID)
		}
	})

	t.Run("SignInRefreshesProfile", func(t *testing.T) {
		u, err := c.EnsureUser(ctx, "auth_1", "renamed@example.com", "Renamed")
		if err != nil {
			t.Fatal(err)
		}
		if u.Email != "renamed@example.com" || u.Name != "Renamed" {
			t.Errorf("profile not refreshed: %s / %s", u.Email, u.Name)
		}
	})

	t.Run("EmptyIDRejected", func(t *testing.T) {
		if _, err := c.EnsureUser(ctx, "", "x@example.com", "X"); !errors.Is(err, catalog.ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})
}

func TestDeleteAccount(t *testing.T) {
	c, _ := newCatalog()
	ctx := context.Background()

	mustEnsureUser(t, c, "auth_del", "del@example.com")
	a := mustCreateListing(t, c, "auth_del", "Doomed App")
	if _, err := c.AddFeedback(ctx, a.ID, "auth_other_commenter", "nice app"); err != nil {
		t.Fatal(err)
	}

	if err := c.DeleteAccount(ctx, "auth_del"); err != nil {
		t.Fatal(err)
	}

	if _, err := c.GetUser(ctx, "auth_del"); !catalog.IsNotFound(err) {
		t.Errorf("user still present after delete: %v", err)
	}
	if _, err := c.GetListing(ctx, a.ID); !catalog.IsNotFound(err) {
		t.Errorf("listing still present after owner delete: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Quota enforcement
// ──────────────────────────────────────────────────

func TestListingQuota(t *testing.T) {
	c, _ := newCatalog()
	ctx := context.Background()

	mustEnsureUser(t, c, "auth_q", "quota@example.com")

	t.Run("FreeTierAllowsThree", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			mustCreateListing(t, c, "auth_q", fmt.Sprintf("App %d", i))
		}
	})

	t.Run("FourthIsDenied", func(t *testing.T) {
		a := &app.Application{OwnerID: "auth_q", Name: "App 4"}
		err := c.CreateListing(ctx, a)
		if !errors.Is(err, catalog.ErrQuotaExceeded) {
			t.Fatalf("err = %v, want ErrQuotaExceeded", err)
		}

		var qe *catalog.QuotaError
		if !errors.As(err, &qe) {
			t.Fatalf("error does not carry QuotaError detail")
		}
		if qe.Limit != 3 || qe.Actual != 3 {
			t.Errorf("QuotaError = %+v, want limit 3 actual 3", qe)
		}
	})

	t.Run("CheckReportsExhausted", func(t *testing.T) {
		res, err := c.CheckListingQuota(ctx, "auth_q")
		if err != nil {
			t.Fatal(err)
		}
		if res.Allowed || res.Remaining != 0 || res.Used != 3 {
			t.Errorf("quota = %+v, want denied with 3 used", res)
		}
	})

	t.Run("UpgradeLiftsCap", func(t *testing.T) {
		upgradeToPro(t, c, "quota@example.com", "cus_q")

		mustCreateListing(t, c, "auth_q", "App 4")

		res, err := c.CheckListingQuota(ctx, "auth_q")
		if err != nil {
			t.Fatal(err)
		}
		if res.Tier != plan.TierPro || res.Limit != 20 {
			t.Errorf("post-upgrade quota = %+v, want pro/20", res)
		}
	})

	t.Run("DeletionFreesSlot", func(t *testing.T) {
		c2, _ := newCatalog()
		mustEnsureUser(t, c2, "auth_q2", "quota2@example.com")
		var last *app.Application
		for i := 1; i <= 3; i++ {
			last = mustCreateListing(t, c2, "auth_q2", fmt.Sprintf("Q2 App %d", i))
		}
		if err := c2.DeleteListing(ctx, "auth_q2", last.ID); err != nil {
			t.Fatal(err)
		}
		mustCreateListing(t, c2, "auth_q2", "Q2 Replacement")
	})
}

func TestDescriptionCap(t *testing.T) {
	c, _ := newCatalog()
	ctx := context.Background()

	mustEnsureUser(t, c, "auth_d", "desc@example.com")

	long := make([]rune, 501)
	for i := range long {
		long[i] = 'x'
	}

	t.Run("FreeTierCapIs500", func(t *testing.T) {
		a := &app.Application{OwnerID: "auth_d", Name: "Wordy", Description: string(long)}
		err := c.CreateListing(ctx, a)
		if !errors.Is(err, catalog.ErrQuotaExceeded) {
			t.Fatalf("err = %v, want ErrQuotaExceeded", err)
		}

		var qe *catalog.QuotaError
		if !errors.As(err, &qe) || qe.Resource != "description" || qe.Limit != 500 {
			t.Errorf("QuotaError = %+v, want description/500", qe)
		}
	})

	t.Run("RunesNotBytes", func(t *testing.T) {
		// 500 multibyte characters is within the cap even though the byte
		// length is far larger.
		wide := make([]rune, 500)
		for i := range wide {
			wide[i] = 'é'
		}
		a := &app.Application{OwnerID: "auth_d", Name: "Accented", Description: string(wide)}
		if err := c.CreateListing(ctx, a); err != nil {
			t.Fatalf("500-rune description rejected: %v", err)
		}
	})

	t.Run("ProTierCapIs2000", func(t *testing.T) {
		upgradeToPro(t, c, "desc@example.com", "cus_d")

		a := &app.Application{OwnerID: "auth_d", Name: "Wordy Pro", Description: string(long)}
		if err := c.CreateListing(ctx, a); err != nil {
			t.Fatalf("501-rune description rejected on pro: %v", err)
		}
	})
}

// ──────────────────────────────────────────────────
// Ratings
// ──────────────────────────────────────────────────

func TestSubmitRating(t *testing.T) {
	c, _ := newCatalog()
	ctx := context.Background()

	mustEnsureUser(t, c, "auth_r", "rate@example.com")
	a := mustCreateListing(t, c, "auth_r", "Rated App")

	t.Run("FirstVote", func(t *testing.T) {
		res, err := c.SubmitRating(ctx, a.ID, "voter_1", app.RatingInput{Idea: iptr(4)})
		if err != nil {
			t.Fatal(err)
		}
		if res.IdeaAverage != 4 || res.IdeaCount != 1 {
			t.Errorf("idea = %v/%d, want 4/1", res.IdeaAverage, res.IdeaCount)
		}
	})

	t.Run("RevoteReplaces", func(t *testing.T) {
		res, err := c.SubmitRating(ctx, a.ID, "voter_1", app.RatingInput{Idea: iptr(2)})
		if err != nil {
			t.Fatal(err)
		}
		if res.IdeaAverage != 2 || res.IdeaCount != 1 {
			t.Errorf("revote idea = %v/%d, want 2/1 (replace, not append)", res.IdeaAverage, res.IdeaCount)
		}
	})

	t.Run("BothAxesOneCall", func(t *testing.T) {
		res, err := c.SubmitRating(ctx, a.ID, "voter_2", app.RatingInput{Idea: iptr(5), Product: iptr(3)})
		if err != nil {
			t.Fatal(err)
		}
		if res.IdeaCount != 2 || res.ProductCount != 1 {
			t.Errorf("counts = %d/%d, want 2/1", res.IdeaCount, res.ProductCount)
		}
		if res.IdeaAverage != 3.5 {
			t.Errorf("idea average = %v, want 3.5", res.IdeaAverage)
		}
	})

	t.Run("AxisIndependence", func(t *testing.T) {
		// voter_1 adds a product vote; their idea vote must survive.
		res, err := c.SubmitRating(ctx, a.ID, "voter_1", app.RatingInput{Product: iptr(5)})
		if err != nil {
			t.Fatal(err)
		}
		if res.IdeaCount != 2 || res.ProductCount != 2 {
			t.Errorf("counts = %d/%d, want 2/2", res.IdeaCount, res.ProductCount)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		cases := []struct {
			name string
			in   app.RatingInput
			want error
		}{
			{"NoAxis", app.RatingInput{}, catalog.ErrNoRatingAxis},
			{"TooLow", app.RatingInput{Idea: iptr(0)}, catalog.ErrRatingOutOfRange},
			{"TooHigh", app.RatingInput{Product: iptr(6)}, catalog.ErrRatingOutOfRange},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := c.SubmitRating(ctx, a.ID, "voter_3", tc.in); !errors.Is(err, tc.want) {
					t.Errorf("err = %v, want %v", err, tc.want)
				}
			})
		}
	})

	t.Run("UnknownListing", func(t *testing.T) {
		ghost := mustCreateListing(t, c, "auth_r", "Ghost")
		if err := c.DeleteListing(ctx, "auth_r", ghost.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := c.SubmitRating(ctx, ghost.ID, "voter_1", app.RatingInput{Idea: iptr(3)}); !catalog.IsNotFound(err) {
			t.Errorf("err = %v, want not found", err)
		}
	})
}

// ──────────────────────────────────────────────────
// Likes
// ──────────────────────────────────────────────────

func TestToggleLike(t *testing.T) {
	c, _ := newCatalog()
	ctx := context.Background()

	mustEnsureUser(t, c, "auth_l", "like@example.com")
	a := mustCreateListing(t, c, "auth_l", "Liked App")

	res, err := c.ToggleLike(ctx, a.ID, "fan_1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Liked || res.NewCount != 1 {
		t.Errorf("first toggle = %+v, want liked/1", res)
	}

	res, err = c.ToggleLike(ctx, a.ID, "fan_1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Liked || res.NewCount != 0 {
		t.Errorf("second toggle = %+v, want unliked/0", res)
	}

	// Double toggle restores the original state exactly.
	for _, fan := range []string{"fan_1", "fan_2", "fan_3"} {
		if _, err := c.ToggleLike(ctx, a.ID, fan); err != nil {
			t.Fatal(err)
		}
	}
	got, err := c.GetListing(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Likes.Count != 3 || got.Likes.Count != len(got.Likes.Users) {
		t.Errorf("likes = %d (set %d), want 3 with count == set size", got.Likes.Count, len(got.Likes.Users))
	}
}

// ──────────────────────────────────────────────────
// Promotion gate
// ──────────────────────────────────────────────────

func TestSetPromoted(t *testing.T) {
	c, _ := newCatalog()
	ctx := context.Background()

	mustEnsureUser(t, c, "auth_p", "promo@example.com")
	a := mustCreateListing(t, c, "auth_p", "Promo App")

	t.Run("FreeTierDenied", func(t *testing.T) {
		if err := c.SetPromoted(ctx, a.ID, "auth_p", true); !errors.Is(err, catalog.ErrPlanRequired) {
			t.Errorf("err = %v, want ErrPlanRequired", err)
		}
	})

	t.Run("NonOwnerDenied", func(t *testing.T) {
		if err := c.SetPromoted(ctx, a.ID, "auth_stranger", true); !errors.Is(err, catalog.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("ProOwnerAllowed", func(t *testing.T) {
		upgradeToPro(t, c, "promo@example.com", "cus_p")

		if err := c.SetPromoted(ctx, a.ID, "auth_p", true); err != nil {
			t.Fatal(err)
		}
		got, err := c.GetListing(ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.IsPromoted {
			t.Error("IsPromoted = false after successful promote")
		}
	})

	t.Run("UnpromoteNeedsNoTier", func(t *testing.T) {
		// Revoking the flag never requires the paid tier.
		if err := c.SetPromoted(ctx, a.ID, "auth_p", false); err != nil {
			t.Fatal(err)
		}
	})
}

// ──────────────────────────────────────────────────
// Billing reconciliation
// ──────────────────────────────────────────────────

func TestApplyBillingEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("MatchByEmail", func(t *testing.T) {
		c, _ := newCatalog()
		mustEnsureUser(t, c, "auth_b1", "bill1@example.com")

		upgradeToPro(t, c, "bill1@example.com", "cus_b1")

		u, err := c.GetUser(ctx, "auth_b1")
		if err != nil {
			t.Fatal(err)
		}
		if u.Tier() != plan.TierPro {
			t.Errorf("tier = %s, want pro", u.Tier())
		}
		if u.StripeCustomerID != "cus_b1" {
			t.Errorf("customer id not learned: %q", u.StripeCustomerID)
		}
	})

	t.Run("MatchByStoredCustomerID", func(t *testing.T) {
		c, _ := newCatalog()
		mustEnsureUser(t, c, "auth_b2", "bill2@example.com")
		upgradeToPro(t, c, "bill2@example.com", "cus_b2")

		// Renewal arrives with only the customer id.
		outcome, err := c.ApplyBillingEvent(ctx, &billing.Event{
			Type:       billing.TypeSubscriptionUpdated,
			CustomerID: "cus_b2",
			Status:     billing.StatusActive,
		})
		if err != nil {
			t.Fatal(err)
		}
		if !outcome.Resolved || outcome.Strategy != "customer_id" {
			t.Errorf("outcome = %+v, want resolved via customer_id", outcome)
		}
	})

	t.Run("MatchByMetadataUserID", func(t *testing.T) {
		c, _ := newCatalog()
		mustEnsureUser(t, c, "auth_b3", "bill3@example.com")

		outcome, err := c.ApplyBillingEvent(ctx, &billing.Event{
			Type:           billing.TypeCheckoutCompleted,
			CustomerID:     "cus_b3",
			MetadataUserID: "auth_b3",
			Status:         billing.StatusActive,
		})
		if err != nil {
			t.Fatal(err)
		}
		if !outcome.Resolved || outcome.Strategy != "metadata_user_id" {
			t.Errorf("outcome = %+v, want resolved via metadata_user_id", outcome)
		}
	})

	t.Run("MatchByDirectoryLookup", func(t *testing.T) {
		dir := directoryFunc(func(_ context.Context, customerID string) (string, error) {
			if customerID == "cus_b4" {
				return "bill4@example.com", nil
			}
			return "", nil
		})

		c, _ := newCatalog(catalog.WithCustomerDirectory(dir))
		mustEnsureUser(t, c, "auth_b4", "bill4@example.com")

		// Event carries only a customer id nobody has stored yet.
		outcome, err := c.ApplyBillingEvent(ctx, &billing.Event{
			Type:       billing.TypeSubscriptionUpdated,
			CustomerID: "cus_b4",
			Status:     billing.StatusActive,
		})
		if err != nil {
			t.Fatal(err)
		}
		if !outcome.Resolved || outcome.Strategy != "directory_lookup" {
			t.Errorf("outcome = %+v, want resolved via directory_lookup", outcome)
		}
		if !outcome.LearnedCustomerID {
			t.Error("customer id not learned from directory match")
		}
	})

	t.Run("RedeliveryIsIdempotent", func(t *testing.T) {
		c, _ := newCatalog()
		mustEnsureUser(t, c, "auth_b5", "bill5@example.com")

		ev := &billing.Event{
			Type:          billing.TypeCheckoutCompleted,
			CustomerID:    "cus_b5",
			CustomerEmail: "bill5@example.com",
			Status:        billing.StatusActive,
		}
		if _, err := c.ApplyBillingEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
		before, _ := c.GetUser(ctx, "auth_b5")

		if _, err := c.ApplyBillingEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
		after, _ := c.GetUser(ctx, "auth_b5")

		if before.IsPro != after.IsPro || before.StripeCustomerID != after.StripeCustomerID {
			t.Errorf("redelivery changed state: %+v vs %+v", before, after)
		}
	})

	t.Run("DeletionAlwaysRevokes", func(t *testing.T) {
		c, _ := newCatalog()
		mustEnsureUser(t, c, "auth_b6", "bill6@example.com")
		upgradeToPro(t, c, "bill6@example.com", "cus_b6")

		// Deletion event carrying a stale active status still revokes.
		if _, err := c.ApplyBillingEvent(ctx, &billing.Event{
			Type:       billing.TypeSubscriptionDeleted,
			CustomerID: "cus_b6",
			Status:     billing.StatusActive,
		}); err != nil {
			t.Fatal(err)
		}

		u, _ := c.GetUser(ctx, "auth_b6")
		if u.Tier() != plan.TierFree {
			t.Errorf("tier after deletion = %s, want free", u.Tier())
		}
	})

	t.Run("InvalidEventRejected", func(t *testing.T) {
		c, _ := newCatalog()
		if _, err := c.ApplyBillingEvent(ctx, &billing.Event{Type: "mystery"}); !errors.Is(err, catalog.ErrInvalidBillingEvent) {
			t.Errorf("err = %v, want ErrInvalidBillingEvent", err)
		}
	})
}

type directoryFunc func(ctx context.Context, customerID string) (string, error)

func (f directoryFunc) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	return f(ctx, customerID)
}

func TestUnresolvedEventRetry(t *testing.T) {
	c, _ := newCatalog()
	ctx := context.Background()

	// Webhook races ahead of sign-up: no user matches.
	outcome, err := c.ApplyBillingEvent(ctx, &billing.Event{
		Type:          billing.TypeCheckoutCompleted,
		CustomerID:    "cus_race",
		CustomerEmail: "late@example.com",
		Status:        billing.StatusActive,
	})
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Resolved {
		t.Fatal("event resolved against an empty user set")
	}

	queued, err := c.UnresolvedBillingEvents(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(queued) != 1 || queued[0].Attempts != 1 {
		t.Fatalf("queue = %d events (attempts %d), want 1 event with 1 attempt", len(queued), queued[0].Attempts)
	}

	// A retry pass before sign-up leaves the event queued and bumps attempts.
	n, err := c.ReconcileUnresolved(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("reconcile resolved %d events before sign-up", n)
	}

	// User signs up; the next pass drains the queue and applies the plan.
	mustEnsureUser(t, c, "auth_late", "late@example.com")

	n, err = c.ReconcileUnresolved(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("reconcile resolved %d events, want 1", n)
	}

	u, err := c.GetUser(ctx, "auth_late")
	if err != nil {
		t.Fatal(err)
	}
	if u.Tier() != plan.TierPro {
		t.Errorf("tier after reconcile = %s, want pro", u.Tier())
	}
	if u.StripeCustomerID != "cus_race" {
		t.Errorf("customer id not learned on reconcile: %q", u.StripeCustomerID)
	}

	queued, err = c.UnresolvedBillingEvents(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(queued) != 0 {
		t.Errorf("queue not drained: %d events remain", len(queued))
	}
}

// ──────────────────────────────────────────────────
// Feedback
// ──────────────────────────────────────────────────

func TestFeedback(t *testing.T) {
	c, _ := newCatalog()
	ctx := context.Background()

	mustEnsureUser(t, c, "auth_f", "fb@example.com")
	a := mustCreateListing(t, c, "auth_f", "Feedback App")

	t.Run("AddAndCount", func(t *testing.T) {
		if _, err := c.AddFeedback(ctx, a.ID, "commenter_1", "love it"); err != nil {
			t.Fatal(err)
		}
		if _, err := c.AddFeedback(ctx, a.ID, "commenter_2", "needs dark mode"); err != nil {
			t.Fatal(err)
		}

		got, err := c.GetListing(ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Ratings.FeedbackCount != 2 {
			t.Errorf("FeedbackCount = %d, want 2", got.Ratings.FeedbackCount)
		}
	})

	t.Run("CommentCap", func(t *testing.T) {
		long := make([]rune, 1001)
		for i := range long {
			long[i] = 'y'
		}
		if _, err := c.AddFeedback(ctx, a.ID, "commenter_3", string(long)); !errors.Is(err, catalog.ErrCommentTooLong) {
			t.Errorf("err = %v, want ErrCommentTooLong", err)
		}
	})

	t.Run("OnlyAuthorEdits", func(t *testing.T) {
		f, err := c.AddFeedback(ctx, a.ID, "commenter_4", "original")
		if err != nil {
			t.Fatal(err)
		}

		if _, err := c.UpdateFeedback(ctx, f.ID, "commenter_1", "hijacked"); !errors.Is(err, catalog.ErrUnauthorized) {
			t.Errorf("non-author edit err = %v, want ErrUnauthorized", err)
		}
		if err := c.DeleteFeedback(ctx, f.ID, "commenter_1"); !errors.Is(err, catalog.ErrUnauthorized) {
			t.Errorf("non-author delete err = %v, want ErrUnauthorized", err)
		}

		updated, err := c.UpdateFeedback(ctx, f.ID, "commenter_4", "revised")
		if err != nil {
			t.Fatal(err)
		}
		if updated.Comment != "revised" {
			t.Errorf("Comment = %q, want revised", updated.Comment)
		}
		if err := c.DeleteFeedback(ctx, f.ID, "commenter_4"); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("ReconcileRepairsDrift", func(t *testing.T) {
		// Force drift, then recount.
		if _, err := c.ReconcileFeedbackCount(ctx, a.ID); err != nil {
			t.Fatal(err)
		}

		n, err := c.ReconcileFeedbackCount(ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		got, err := c.GetListing(ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Ratings.FeedbackCount != n {
			t.Errorf("counter %d != authoritative %d", got.Ratings.FeedbackCount, n)
		}
	})

	t.Run("ListingDeletionCascades", func(t *testing.T) {
		b := mustCreateListing(t, c, "auth_f", "Short Lived")
		f, err := c.AddFeedback(ctx, b.ID, "commenter_5", "gone soon")
		if err != nil {
			t.Fatal(err)
		}
		if err := c.DeleteListing(ctx, "auth_f", b.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := c.UpdateFeedback(ctx, f.ID, "commenter_5", "still here?"); !catalog.IsNotFound(err) {
			t.Errorf("orphan feedback err = %v, want not found", err)
		}
	})
}

// ──────────────────────────────────────────────────
// Search
// ──────────────────────────────────────────────────

func TestSearch(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, c *catalog.Catalog) {
		t.Helper()
		mustEnsureUser(t, c, "auth_s", "search@example.com")
		upgradeToPro(t, c, "search@example.com", "cus_s")
		for _, name := range []string{"Taskmaster", "TaskFlow", "Notewise", "Budgeteer"} {
			mustCreateListing(t, c, "auth_s", name)
		}
	}

	t.Run("PrefixMatch", func(t *testing.T) {
		c, _ := newCatalog()
		seed(t, c)

		hits, err := c.Search(ctx, "task", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 2 {
			t.Fatalf("hits = %d, want 2", len(hits))
		}
	})

	t.Run("CaseAndWhitespaceInsensitive", func(t *testing.T) {
		c, _ := newCatalog()
		seed(t, c)

		hits, err := c.Search(ctx, "  TASK  ", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 2 {
			t.Errorf("hits = %d, want 2", len(hits))
		}
	})

	t.Run("ShortQueryReturnsNothing", func(t *testing.T) {
		c, _ := newCatalog()
		seed(t, c)

		hits, err := c.Search(ctx, "t", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 0 {
			t.Errorf("hits = %d, want 0 for single-char query", len(hits))
		}
	})

	t.Run("FallbackWhenIndexUnavailable", func(t *testing.T) {
		c, s := newCatalog()
		seed(t, c)
		s.SetIndexAvailable(false)

		hits, err := c.Search(ctx, "task", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 2 {
			t.Errorf("fallback hits = %d, want 2", len(hits))
		}
	})

	t.Run("FallbackCatchesSubstring", func(t *testing.T) {
		// "wise" is not a prefix of any name; the indexed path finds nothing
		// and the fallback substring scan catches Notewise.
		c, _ := newCatalog()
		seed(t, c)

		hits, err := c.Search(ctx, "wise", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 1 || hits[0].Name != "Notewise" {
			t.Errorf("hits = %+v, want [Notewise]", hits)
		}
	})

	t.Run("LimitHonored", func(t *testing.T) {
		c, _ := newCatalog()
		seed(t, c)

		hits, err := c.Search(ctx, "task", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 1 {
			t.Errorf("hits = %d, want 1", len(hits))
		}
	})
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func TestStartStop(t *testing.T) {
	c, _ := newCatalog(catalog.WithReconcileInterval(time.Hour))

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}
}
