// Package store defines the canonical aggregate-store interface for
// Catalog. There is exactly one storage abstraction; backends implement it
// over a document database (store/mongo) or in memory (store/memory).
package store

import (
	"context"
	"time"

	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/feedback"
	"github.com/xraph/catalog/id"
	"github.com/xraph/catalog/plan"
	"github.com/xraph/catalog/user"
)

// Store is the unified storage interface for all Catalog entities.
// Instead of embedding sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Concurrency contract: MutateApp and MutateUser apply fn to a private
// copy of the current document and persist the result atomically with
// respect to other mutators of the same document (optimistic version
// check or equivalent). fn may be invoked more than once; it must be free
// of side effects beyond the document it is given. An error returned by
// fn aborts the mutation without writing and is propagated unchanged.
type Store interface {
	// User methods
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, userID string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByCustomerID(ctx context.Context, customerID string) (*user.User, error)
	MutateUser(ctx context.Context, userID string, fn func(*user.User) error) (*user.User, error)
	AdjustAppCount(ctx context.Context, userID string, delta int) (int, error)
	DeleteUser(ctx context.Context, userID string) error

	// Application methods
	CreateApp(ctx context.Context, a *app.Application) error
	GetApp(ctx context.Context, appID id.AppID) (*app.Application, error)
	MutateApp(ctx context.Context, appID id.AppID, fn func(*app.Application) error) (*app.Application, error)
	DeleteApp(ctx context.Context, appID id.AppID) error
	CountAppsByOwner(ctx context.Context, ownerID string) (int, error)
	ListAppsByOwner(ctx context.Context, ownerID string) ([]*app.Application, error)
	ListRecentApps(ctx context.Context, limit int) ([]*app.Application, error)
	SearchAppsByPrefix(ctx context.Context, prefix string, limit int) ([]*app.Summary, error)
	AdjustFeedbackCount(ctx context.Context, appID id.AppID, delta int) (int, error)
	SetFeedbackCount(ctx context.Context, appID id.AppID, count int) error

	// Feedback methods
	CreateFeedback(ctx context.Context, f *feedback.Feedback) error
	GetFeedback(ctx context.Context, fbID id.FeedbackID) (*feedback.Feedback, error)
	UpdateFeedback(ctx context.Context, f *feedback.Feedback) error
	DeleteFeedback(ctx context.Context, fbID id.FeedbackID) error
	DeleteFeedbackByApp(ctx context.Context, appID id.AppID) (int, error)
	ListFeedback(ctx context.Context, appID id.AppID, opts feedback.ListOpts) ([]*feedback.Feedback, error)
	CountFeedback(ctx context.Context, appID id.AppID) (int, error)

	// Tier cache methods
	GetCachedTier(ctx context.Context, userID string) (plan.Tier, error)
	SetCachedTier(ctx context.Context, userID string, tier plan.Tier, ttl time.Duration) error
	InvalidateTier(ctx context.Context, userID string) error

	// Unresolved billing event methods
	RecordUnresolvedEvent(ctx context.Context, ev *billing.Event) error
	ListUnresolvedEvents(ctx context.Context, limit int) ([]*billing.Event, error)
	UpdateUnresolvedEvent(ctx context.Context, ev *billing.Event) error
	ResolveUnresolvedEvent(ctx context.Context, eventID id.BillingEventID) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
