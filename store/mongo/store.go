// Package mongo implements the catalog Store on MongoDB via Grove ORM.
//
// Per-document concurrency uses an optimistic version token on the listing
// document and the updated_at stamp on the user document; decomposable
// counters go through $inc so concurrent adjustments never lose updates.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	catalog "github.com/xraph/catalog"
	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/feedback"
	"github.com/xraph/catalog/id"
	"github.com/xraph/catalog/plan"
	catalogstore "github.com/xraph/catalog/store"
	"github.com/xraph/catalog/user"
)

// Collection name constants.
const (
	colUsers      = "catalog_users"
	colApps       = "catalog_apps"
	colFeedback   = "catalog_feedback"
	colTierCache  = "catalog_tier_cache"
	colUnresolved = "catalog_unresolved_events"
)

// maxMutateRetries bounds optimistic-concurrency retries before the store
// gives up with ErrWriteConflict.
const maxMutateRetries = 5

// compile-time interface check
var _ catalogstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all catalog collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("catalog/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== User Store ====================

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	m := toUserModel(u)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return catalog.ErrAlreadyExists
		}
		return fmt.Errorf("catalog/mongo: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*user.User, error) {
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": userID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, catalog.ErrUserNotFound
		}
		return nil, fmt.Errorf("catalog/mongo: get user: %w", err)
	}
	return fromUserModel(&m), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"email": email}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, catalog.ErrUserNotFound
		}
		return nil, fmt.Errorf("catalog/mongo: get user by email: %w", err)
	}
	return fromUserModel(&m), nil
}

func (s *Store) GetUserByCustomerID(ctx context.Context, customerID string) (*user.User, error) {
	var m userModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"stripe_customer_id": customerID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, catalog.ErrUserNotFound
		}
		return nil, fmt.Errorf("catalog/mongo: get user by customer id: %w", err)
	}
	return fromUserModel(&m), nil
}

// MutateUser applies fn to a fresh copy of the user document and persists
// it with the prior updated_at stamp as the optimistic token. Conflicting
// writers retry against the re-read document.
func (s *Store) MutateUser(ctx context.Context, userID string, fn func(*user.User) error) (*user.User, error) {
	for attempt := 0; attempt < maxMutateRetries; attempt++ {
		var m userModel
		err := s.mdb.NewFind(&m).
			Filter(bson.M{"_id": userID}).
			Scan(ctx)
		if err != nil {
			if isNoDocuments(err) {
				return nil, catalog.ErrUserNotFound
			}
			return nil, fmt.Errorf("catalog/mongo: mutate user load: %w", err)
		}

		draft := fromUserModel(&m)
		if err := fn(draft); err != nil {
			return nil, err
		}

		updated := toUserModel(draft)
		if updated.UpdatedAt.Equal(m.UpdatedAt) {
			updated.UpdatedAt = now()
		}

		res, err := s.mdb.NewUpdate(updated).
			Filter(bson.M{"_id": userID, "updated_at": m.UpdatedAt}).
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog/mongo: mutate user write: %w", err)
		}
		if res.MatchedCount() == 0 {
			continue
		}
		return fromUserModel(updated), nil
	}
	return nil, catalog.ErrWriteConflict
}

func (s *Store) AdjustAppCount(ctx context.Context, userID string, delta int) (int, error) {
	var m userModel
	err := s.mdb.Collection(colUsers).FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"app_count": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return 0, catalog.ErrUserNotFound
		}
		return 0, fmt.Errorf("catalog/mongo: adjust app count: %w", err)
	}
	return m.AppCount, nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	res, err := s.mdb.NewDelete((*userModel)(nil)).
		Filter(bson.M{"_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog/mongo: delete user: %w", err)
	}
	if res.DeletedCount() == 0 {
		return catalog.ErrUserNotFound
	}
	return nil
}

// ==================== Application Store ====================

func (s *Store) CreateApp(ctx context.Context, a *app.Application) error {
	m := toAppModel(a)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return catalog.ErrAlreadyExists
		}
		return fmt.Errorf("catalog/mongo: create app: %w", err)
	}
	return nil
}

func (s *Store) GetApp(ctx context.Context, appID id.AppID) (*app.Application, error) {
	var m appModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": appID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, catalog.ErrAppNotFound
		}
		return nil, fmt.Errorf("catalog/mongo: get app: %w", err)
	}
	return fromAppModel(&m)
}

// MutateApp applies fn to a fresh copy of the listing document and writes
// it back filtered on the prior version token. A concurrent mutation bumps
// the version first, the filter misses, and the whole read-apply-write
// cycle retries.
func (s *Store) MutateApp(ctx context.Context, appID id.AppID, fn func(*app.Application) error) (*app.Application, error) {
	for attempt := 0; attempt < maxMutateRetries; attempt++ {
		var m appModel
		err := s.mdb.NewFind(&m).
			Filter(bson.M{"_id": appID.String()}).
			Scan(ctx)
		if err != nil {
			if isNoDocuments(err) {
				return nil, catalog.ErrAppNotFound
			}
			return nil, fmt.Errorf("catalog/mongo: mutate app load: %w", err)
		}

		draft, err := fromAppModel(&m)
		if err != nil {
			return nil, err
		}
		if err := fn(draft); err != nil {
			return nil, err
		}

		draft.Version = m.Version + 1
		updated := toAppModel(draft)
		updated.UpdatedAt = now()

		res, err := s.mdb.NewUpdate(updated).
			Filter(bson.M{"_id": appID.String(), "version": m.Version}).
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog/mongo: mutate app write: %w", err)
		}
		if res.MatchedCount() == 0 {
			continue
		}
		return fromAppModel(updated)
	}
	return nil, catalog.ErrWriteConflict
}

func (s *Store) DeleteApp(ctx context.Context, appID id.AppID) error {
	res, err := s.mdb.NewDelete((*appModel)(nil)).
		Filter(bson.M{"_id": appID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog/mongo: delete app: %w", err)
	}
	if res.DeletedCount() == 0 {
		return catalog.ErrAppNotFound
	}
	return nil
}

func (s *Store) CountAppsByOwner(ctx context.Context, ownerID string) (int, error) {
	n, err := s.mdb.Collection(colApps).CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("catalog/mongo: count apps by owner: %w", err)
	}
	return int(n), nil
}

func (s *Store) ListAppsByOwner(ctx context.Context, ownerID string) ([]*app.Application, error) {
	var models []appModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"owner_id": ownerID}).
		Sort(bson.D{{Key: "created_at", Value: -1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog/mongo: list apps by owner: %w", err)
	}

	result := make([]*app.Application, len(models))
	for i := range models {
		a, err := fromAppModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) ListRecentApps(ctx context.Context, limit int) ([]*app.Application, error) {
	var models []appModel

	q := s.mdb.NewFind(&models).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("catalog/mongo: list recent apps: %w", err)
	}

	result := make([]*app.Application, len(models))
	for i := range models {
		a, err := fromAppModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// SearchAppsByPrefix runs a range scan on the name_lower index, promoted
// listings first. Documents written before the derived key existed have no
// name_lower and are invisible here; the engine's fallback scan covers them.
func (s *Store) SearchAppsByPrefix(ctx context.Context, prefix string, limit int) ([]*app.Summary, error) {
	var models []appModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"name_lower": bson.M{
			"$gte": prefix,
			"$lt":  prefix + "\uffff",
		}}).
		Sort(bson.D{{Key: "is_promoted", Value: -1}, {Key: "name_lower", Value: 1}})
	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("catalog/mongo: search apps: %w", err)
	}

	result := make([]*app.Summary, len(models))
	for i := range models {
		a, err := fromAppModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a.Summary()
	}
	return result, nil
}

func (s *Store) AdjustFeedbackCount(ctx context.Context, appID id.AppID, delta int) (int, error) {
	var m appModel
	err := s.mdb.Collection(colApps).FindOneAndUpdate(ctx,
		bson.M{"_id": appID.String()},
		bson.M{"$inc": bson.M{"ratings.feedback_count": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return 0, catalog.ErrAppNotFound
		}
		return 0, fmt.Errorf("catalog/mongo: adjust feedback count: %w", err)
	}
	return m.Ratings.FeedbackCount, nil
}

func (s *Store) SetFeedbackCount(ctx context.Context, appID id.AppID, count int) error {
	res, err := s.mdb.NewUpdate((*appModel)(nil)).
		Filter(bson.M{"_id": appID.String()}).
		Set("ratings.feedback_count", count).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog/mongo: set feedback count: %w", err)
	}
	if res.MatchedCount() == 0 {
		return catalog.ErrAppNotFound
	}
	return nil
}

// ==================== Feedback Store ====================

func (s *Store) CreateFeedback(ctx context.Context, f *feedback.Feedback) error {
	m := toFeedbackModel(f)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return catalog.ErrAlreadyExists
		}
		return fmt.Errorf("catalog/mongo: create feedback: %w", err)
	}
	return nil
}

func (s *Store) GetFeedback(ctx context.Context, fbID id.FeedbackID) (*feedback.Feedback, error) {
	var m feedbackModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": fbID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, catalog.ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("catalog/mongo: get feedback: %w", err)
	}
	return fromFeedbackModel(&m)
}

func (s *Store) UpdateFeedback(ctx context.Context, f *feedback.Feedback) error {
	m := toFeedbackModel(f)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog/mongo: update feedback: %w", err)
	}
	if res.MatchedCount() == 0 {
		return catalog.ErrFeedbackNotFound
	}
	return nil
}

func (s *Store) DeleteFeedback(ctx context.Context, fbID id.FeedbackID) error {
	res, err := s.mdb.NewDelete((*feedbackModel)(nil)).
		Filter(bson.M{"_id": fbID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog/mongo: delete feedback: %w", err)
	}
	if res.DeletedCount() == 0 {
		return catalog.ErrFeedbackNotFound
	}
	return nil
}

func (s *Store) DeleteFeedbackByApp(ctx context.Context, appID id.AppID) (int, error) {
	res, err := s.mdb.NewDelete((*feedbackModel)(nil)).
		Filter(bson.M{"app_id": appID.String()}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog/mongo: delete feedback by app: %w", err)
	}
	return int(res.DeletedCount()), nil
}

func (s *Store) ListFeedback(ctx context.Context, appID id.AppID, opts feedback.ListOpts) ([]*feedback.Feedback, error) {
	var models []feedbackModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"app_id": appID.String()}).
		Sort(bson.D{{Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("catalog/mongo: list feedback: %w", err)
	}

	result := make([]*feedback.Feedback, len(models))
	for i := range models {
		f, err := fromFeedbackModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = f
	}
	return result, nil
}

func (s *Store) CountFeedback(ctx context.Context, appID id.AppID) (int, error) {
	n, err := s.mdb.Collection(colFeedback).CountDocuments(ctx, bson.M{"app_id": appID.String()})
	if err != nil {
		return 0, fmt.Errorf("catalog/mongo: count feedback: %w", err)
	}
	return int(n), nil
}

// ==================== Tier Cache Store ====================

func (s *Store) GetCachedTier(ctx context.Context, userID string) (plan.Tier, error) {
	var m tierCacheModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"_id":        userID,
			"expires_at": bson.M{"$gt": time.Now().UTC()},
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return "", catalog.ErrCacheMiss
		}
		return "", fmt.Errorf("catalog/mongo: get cached tier: %w", err)
	}
	return plan.Tier(m.Tier), nil
}

func (s *Store) SetCachedTier(ctx context.Context, userID string, tier plan.Tier, ttl time.Duration) error {
	t := now()
	m := &tierCacheModel{
		UserID:    userID,
		Tier:      string(tier),
		ExpiresAt: t.Add(ttl),
		CreatedAt: t,
	}

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": userID}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":        m.UserID,
			"tier":       m.Tier,
			"expires_at": m.ExpiresAt,
			"created_at": m.CreatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog/mongo: set cached tier: %w", err)
	}
	return nil
}

func (s *Store) InvalidateTier(ctx context.Context, userID string) error {
	_, err := s.mdb.NewDelete((*tierCacheModel)(nil)).
		Filter(bson.M{"_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog/mongo: invalidate tier: %w", err)
	}
	return nil
}

// ==================== Unresolved Event Store ====================

func (s *Store) RecordUnresolvedEvent(ctx context.Context, ev *billing.Event) error {
	m := toUnresolvedEventModel(ev)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":                m.ID,
			"type":               m.Type,
			"customer_id":        m.CustomerID,
			"customer_email":     m.CustomerEmail,
			"metadata_user_id":   m.MetadataUserID,
			"subscription_id":    m.SubscriptionID,
			"status":             m.Status,
			"current_period_end": m.CurrentPeriodEnd,
			"received_at":        m.ReceivedAt,
			"attempts":           m.Attempts,
			"last_error":         m.LastError,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog/mongo: record unresolved event: %w", err)
	}
	return nil
}

func (s *Store) ListUnresolvedEvents(ctx context.Context, limit int) ([]*billing.Event, error) {
	var models []unresolvedEventModel

	q := s.mdb.NewFind(&models).
		Sort(bson.D{{Key: "received_at", Value: 1}})
	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("catalog/mongo: list unresolved events: %w", err)
	}

	result := make([]*billing.Event, len(models))
	for i := range models {
		ev, err := fromUnresolvedEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = ev
	}
	return result, nil
}

func (s *Store) UpdateUnresolvedEvent(ctx context.Context, ev *billing.Event) error {
	m := toUnresolvedEventModel(ev)

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog/mongo: update unresolved event: %w", err)
	}
	if res.MatchedCount() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *Store) ResolveUnresolvedEvent(ctx context.Context, eventID id.BillingEventID) error {
	res, err := s.mdb.NewDelete((*unresolvedEventModel)(nil)).
		Filter(bson.M{"_id": eventID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog/mongo: resolve unresolved event: %w", err)
	}
	if res.DeletedCount() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all catalog collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}},
			{
				Keys:    bson.D{{Key: "stripe_customer_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		colApps: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "name_lower", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		colFeedback: {
			{Keys: bson.D{{Key: "app_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		colTierCache: {
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
		colUnresolved: {
			{Keys: bson.D{{Key: "received_at", Value: 1}}},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		},
	}
}
