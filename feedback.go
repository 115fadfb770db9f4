package catalog

import (
	"context"

	"github.com/xraph/catalog/feedback"
	"github.com/xraph/catalog/id"
	"github.com/xraph/catalog/types"
)

// ──────────────────────────────────────────────────
// Feedback
// ──────────────────────────────────────────────────

// AddFeedback stores a comment on a listing and bumps the listing's
// denormalized feedback counter. The counter increment is best-effort and
// not transactional with the insert; ReconcileFeedbackCount repairs drift.
func (c *Catalog) AddFeedback(ctx context.Context, appID id.AppID, userID, comment string) (*feedback.Feedback, error) {
	if appID.IsNil() || userID == "" || comment == "" {
		return nil, ErrInvalidInput
	}
	if !feedback.CommentFits(comment) {
		return nil, ErrCommentTooLong
	}

	// Listing must exist before accepting feedback on it.
	if _, err := c.store.GetApp(ctx, appID); err != nil {
		return nil, err
	}

	f := &feedback.Feedback{
		Entity:  types.NewEntity(),
		ID:      id.NewFeedbackID(),
		AppID:   appID,
		UserID:  userID,
		Comment: comment,
	}
	if err := c.store.CreateFeedback(ctx, f); err != nil {
		return nil, err
	}

	if _, err := c.store.AdjustFeedbackCount(ctx, appID, 1); err != nil {
		c.logger.Warn("feedback count increment failed", "app_id", appID, "error", err)
	}

	return f, nil
}

// UpdateFeedback rewrites a comment. Only the author may edit.
func (c *Catalog) UpdateFeedback(ctx context.Context, fbID id.FeedbackID, callerID, comment string) (*feedback.Feedback, error) {
	if fbID.IsNil() || callerID == "" {
		return nil, ErrInvalidInput
	}
	if !feedback.CommentFits(comment) {
		return nil, ErrCommentTooLong
	}

	f, err := c.store.GetFeedback(ctx, fbID)
	if err != nil {
		return nil, err
	}
	if f.UserID != callerID {
		return nil, ErrUnauthorized
	}

	f.Comment = comment
	f.Touch()
	if err := c.store.UpdateFeedback(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFeedback removes a comment and decrements the listing's counter.
// Only the author may delete.
func (c *Catalog) DeleteFeedback(ctx context.Context, fbID id.FeedbackID, callerID string) error {
	f, err := c.store.GetFeedback(ctx, fbID)
	if err != nil {
		return err
	}
	if f.UserID != callerID {
		return ErrUnauthorized
	}

	if err := c.store.DeleteFeedback(ctx, fbID); err != nil {
		return err
	}

	if _, err := c.store.AdjustFeedbackCount(ctx, f.AppID, -1); err != nil {
		c.logger.Warn("feedback count decrement failed", "app_id", f.AppID, "error", err)
	}
	return nil
}

// ListFeedback returns a listing's feedback, newest first.
func (c *Catalog) ListFeedback(ctx context.Context, appID id.AppID, opts feedback.ListOpts) ([]*feedback.Feedback, error) {
	return c.store.ListFeedback(ctx, appID, opts)
}

// ReconcileFeedbackCount recounts a listing's feedback by query and
// rewrites the denormalized counter. Returns the authoritative count.
func (c *Catalog) ReconcileFeedbackCount(ctx context.Context, appID id.AppID) (int, error) {
	n, err := c.store.CountFeedback(ctx, appID)
	if err != nil {
		return 0, err
	}
	if err := c.store.SetFeedbackCount(ctx, appID, n); err != nil {
		return 0, err
	}
	return n, nil
}
