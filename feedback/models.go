// Package feedback defines free-text feedback left on a listing.
package feedback

import (
	"unicode/utf8"

	"github.com/xraph/catalog/id"
	"github.com/xraph/catalog/types"
)

// CommentMaxLen is the fixed character cap on a feedback comment,
// independent of the author's plan tier.
const CommentMaxLen = 1000

// Feedback is one comment on a listing. Only its author may edit or
// delete it.
type Feedback struct {
	types.Entity

	ID      id.FeedbackID `json:"id"`
	AppID   id.AppID      `json:"app_id"`
	UserID  string        `json:"user_id"`
	Comment string        `json:"comment"`
}

// CommentFits reports whether a comment is within the cap.
// Length is measured in characters, not bytes.
func CommentFits(comment string) bool {
	return utf8.RuneCountInString(comment) <= CommentMaxLen
}

// ListOpts control feedback listing.
type ListOpts struct {
	Limit  int
	Offset int
}
