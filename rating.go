package catalog

import (
	"context"

	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/id"
)

// ──────────────────────────────────────────────────
// Ratings & Likes
// ──────────────────────────────────────────────────

// SubmitRating records the caller's ratings for a listing. A prior value on
// a supplied axis is replaced; the axis count only grows on a user's first
// vote. Both axes of one call land in a single document mutation, so
// readers never observe one axis updated without the other.
func (c *Catalog) SubmitRating(ctx context.Context, appID id.AppID, userID string, in app.RatingInput) (*app.RatingResult, error) {
	if appID.IsNil() || userID == "" {
		return nil, ErrInvalidInput
	}
	if in.Empty() {
		return nil, ErrNoRatingAxis
	}
	if !in.InRange() {
		return nil, ErrRatingOutOfRange
	}

	updated, err := c.store.MutateApp(ctx, appID, func(a *app.Application) error {
		a.Ratings.Apply(userID, in)
		a.Touch()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &app.RatingResult{
		IdeaAverage:    updated.Ratings.Idea.Average(),
		IdeaCount:      updated.Ratings.Idea.Count,
		ProductAverage: updated.Ratings.Product.Average(),
		ProductCount:   updated.Ratings.Product.Count,
	}

	c.plugins.EmitRatingSubmitted(ctx, updated, userID, in)
	return result, nil
}

// ToggleLike flips the caller's like on a listing and returns the new
// state. The count is recomputed from the membership set inside the same
// mutation, so it cannot drift from the set.
func (c *Catalog) ToggleLike(ctx context.Context, appID id.AppID, userID string) (*app.LikeResult, error) {
	if appID.IsNil() || userID == "" {
		return nil, ErrInvalidInput
	}

	var liked bool
	updated, err := c.store.MutateApp(ctx, appID, func(a *app.Application) error {
		liked = a.Likes.Toggle(userID)
		a.Touch()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &app.LikeResult{Liked: liked, NewCount: updated.Likes.Count}

	c.plugins.EmitLikeToggled(ctx, updated, userID, liked)
	return result, nil
}
