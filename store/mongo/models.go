package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/catalog/app"
	"github.com/xraph/catalog/billing"
	"github.com/xraph/catalog/feedback"
	"github.com/xraph/catalog/id"
	"github.com/xraph/catalog/types"
	"github.com/xraph/catalog/user"
)

// ==================== User models ====================

type userModel struct {
	grove.BaseModel `grove:"table:catalog_users"`

	ID                    string     `grove:"id,pk"              bson:"_id"`
	Email                 string     `grove:"email"              bson:"email"`
	Name                  string     `grove:"name"               bson:"name,omitempty"`
	StripeCustomerID      string     `grove:"stripe_customer_id" bson:"stripe_customer_id,omitempty"`
	IsPro                 bool       `grove:"is_pro"             bson:"is_pro"`
	SubscriptionID        string     `grove:"subscription_id"    bson:"subscription_id,omitempty"`
	SubscriptionExpiresAt *time.Time `grove:"subscription_expires_at" bson:"subscription_expires_at,omitempty"`
	AppCount              int        `grove:"app_count"          bson:"app_count"`
	CreatedAt             time.Time  `grove:"created_at"         bson:"created_at"`
	UpdatedAt             time.Time  `grove:"updated_at"         bson:"updated_at"`
}

func toUserModel(u *user.User) *userModel {
	return &userModel{
		ID:                    u.ID,
		Email:                 u.Email,
		Name:                  u.Name,
		StripeCustomerID:      u.StripeCustomerID,
		IsPro:                 u.IsPro,
		SubscriptionID:        u.SubscriptionID,
		SubscriptionExpiresAt: u.SubscriptionExpiresAt,
		AppCount:              u.AppCount,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func fromUserModel(m *userModel) *user.User {
	return &user.User{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                    m.ID,
		Email:                 m.Email,
		Name:                  m.Name,
		StripeCustomerID:      m.StripeCustomerID,
		IsPro:                 m.IsPro,
		SubscriptionID:        m.SubscriptionID,
		SubscriptionExpiresAt: m.SubscriptionExpiresAt,
		AppCount:              m.AppCount,
	}
}

// ==================== Application models ====================

type appModel struct {
	grove.BaseModel `grove:"table:catalog_apps"`

	ID          string   `grove:"id,pk"       bson:"_id"`
	OwnerID     string   `grove:"owner_id"    bson:"owner_id"`
	Name        string   `grove:"name"        bson:"name"`
	Description string   `grove:"description" bson:"description"`
	Category    string   `grove:"category"    bson:"category,omitempty"`
	AppType     string   `grove:"app_type"    bson:"app_type,omitempty"`
	LiveURL     string   `grove:"live_url"    bson:"live_url,omitempty"`
	RepoURL     string   `grove:"repo_url"    bson:"repo_url,omitempty"`
	IconURL     string   `grove:"icon_url"    bson:"icon_url,omitempty"`
	ImageURLs   []string `grove:"image_urls"  bson:"image_urls,omitempty"`

	NameLower string `grove:"name_lower" bson:"name_lower,omitempty"`

	Likes      likesModel   `grove:"likes"       bson:"likes"`
	Ratings    ratingsModel `grove:"ratings"     bson:"ratings"`
	IsPromoted bool         `grove:"is_promoted" bson:"is_promoted"`

	Version   int64     `grove:"version"    bson:"version"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

type likesModel struct {
	Count int      `bson:"count"`
	Users []string `bson:"users,omitempty"`
}

type axisTotalsModel struct {
	Total int `bson:"total"`
	Count int `bson:"count"`
}

type ratingEntryModel struct {
	UserID  string `bson:"user_id"`
	Idea    *int   `bson:"idea,omitempty"`
	Product *int   `bson:"product,omitempty"`
}

type ratingsModel struct {
	Idea          axisTotalsModel    `bson:"idea"`
	Product       axisTotalsModel    `bson:"product"`
	FeedbackCount int                `bson:"feedback_count"`
	Entries       []ratingEntryModel `bson:"user_ratings,omitempty"`
}

func toAppModel(a *app.Application) *appModel {
	entries := make([]ratingEntryModel, len(a.Ratings.Entries))
	for i, e := range a.Ratings.Entries {
		entries[i] = ratingEntryModel{UserID: e.UserID, Idea: e.Idea, Product: e.Product}
	}

	return &appModel{
		ID:          a.ID.String(),
		OwnerID:     a.OwnerID,
		Name:        a.Name,
		Description: a.Description,
		Category:    a.Category,
		AppType:     a.AppType,
		LiveURL:     a.LiveURL,
		RepoURL:     a.RepoURL,
		IconURL:     a.IconURL,
		ImageURLs:   a.ImageURLs,
		NameLower:   a.NameLower,
		Likes: likesModel{
			Count: a.Likes.Count,
			Users: a.Likes.Users,
		},
		Ratings: ratingsModel{
			Idea:          axisTotalsModel{Total: a.Ratings.Idea.Total, Count: a.Ratings.Idea.Count},
			Product:       axisTotalsModel{Total: a.Ratings.Product.Total, Count: a.Ratings.Product.Count},
			FeedbackCount: a.Ratings.FeedbackCount,
			Entries:       entries,
		},
		IsPromoted: a.IsPromoted,
		Version:    a.Version,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func fromAppModel(m *appModel) (*app.Application, error) {
	appID, err := id.ParseAppID(m.ID)
	if err != nil {
		return nil, err
	}

	entries := make([]app.RatingEntry, len(m.Ratings.Entries))
	for i, e := range m.Ratings.Entries {
		entries[i] = app.RatingEntry{UserID: e.UserID, Idea: e.Idea, Product: e.Product}
	}

	return &app.Application{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          appID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		AppType:     m.AppType,
		LiveURL:     m.LiveURL,
		RepoURL:     m.RepoURL,
		IconURL:     m.IconURL,
		ImageURLs:   m.ImageURLs,
		NameLower:   m.NameLower,
		Likes: app.Likes{
			Count: m.Likes.Count,
			Users: m.Likes.Users,
		},
		Ratings: app.Ratings{
			Idea:          app.AxisTotals{Total: m.Ratings.Idea.Total, Count: m.Ratings.Idea.Count},
			Product:       app.AxisTotals{Total: m.Ratings.Product.Total, Count: m.Ratings.Product.Count},
			FeedbackCount: m.Ratings.FeedbackCount,
			Entries:       entries,
		},
		IsPromoted: m.IsPromoted,
		Version:    m.Version,
	}, nil
}

// ==================== Feedback models ====================

type feedbackModel struct {
	grove.BaseModel `grove:"table:catalog_feedback"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	AppID     string    `grove:"app_id"     bson:"app_id"`
	UserID    string    `grove:"user_id"    bson:"user_id"`
	Comment   string    `grove:"comment"    bson:"comment"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toFeedbackModel(f *feedback.Feedback) *feedbackModel {
	return &feedbackModel{
		ID:        f.ID.String(),
		AppID:     f.AppID.String(),
		UserID:    f.UserID,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func fromFeedbackModel(m *feedbackModel) (*feedback.Feedback, error) {
	fbID, err := id.ParseFeedbackID(m.ID)
	if err != nil {
		return nil, err
	}
	appID, err := id.ParseAppID(m.AppID)
	if err != nil {
		return nil, err
	}

	return &feedback.Feedback{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:      fbID,
		AppID:   appID,
		UserID:  m.UserID,
		Comment: m.Comment,
	}, nil
}

// ==================== Tier cache models ====================

type tierCacheModel struct {
	grove.BaseModel `grove:"table:catalog_tier_cache"`

	UserID    string    `grove:"id,pk"      bson:"_id"`
	Tier      string    `grove:"tier"       bson:"tier"`
	ExpiresAt time.Time `grove:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
}

// ==================== Unresolved event models ====================

type unresolvedEventModel struct {
	grove.BaseModel `grove:"table:catalog_unresolved_events"`

	ID               string    `grove:"id,pk"            bson:"_id"`
	Type             string    `grove:"type"             bson:"type"`
	CustomerID       string    `grove:"customer_id"      bson:"customer_id,omitempty"`
	CustomerEmail    string    `grove:"customer_email"   bson:"customer_email,omitempty"`
	MetadataUserID   string    `grove:"metadata_user_id" bson:"metadata_user_id,omitempty"`
	SubscriptionID   string    `grove:"subscription_id"  bson:"subscription_id,omitempty"`
	Status           string    `grove:"status"           bson:"status"`
	CurrentPeriodEnd time.Time `grove:"current_period_end" bson:"current_period_end,omitempty"`
	ReceivedAt       time.Time `grove:"received_at"      bson:"received_at"`
	Attempts         int       `grove:"attempts"         bson:"attempts"`
	LastError        string    `grove:"last_error"       bson:"last_error,omitempty"`
}

func toUnresolvedEventModel(ev *billing.Event) *unresolvedEventModel {
	return &unresolvedEventModel{
		ID:               ev.ID.String(),
		Type:             string(ev.Type),
		CustomerID:       ev.CustomerID,
		CustomerEmail:    ev.CustomerEmail,
		MetadataUserID:   ev.MetadataUserID,
		SubscriptionID:   ev.SubscriptionID,
		Status:           string(ev.Status),
		CurrentPeriodEnd: ev.CurrentPeriodEnd,
		ReceivedAt:       ev.ReceivedAt,
		Attempts:         ev.Attempts,
		LastError:        ev.LastError,
	}
}

func fromUnresolvedEventModel(m *unresolvedEventModel) (*billing.Event, error) {
	evID, err := id.ParseBillingEventID(m.ID)
	if err != nil {
		return nil, err
	}

	return &billing.Event{
		ID:               evID,
		Type:             billing.Type(m.Type),
		CustomerID:       m.CustomerID,
		CustomerEmail:    m.CustomerEmail,
		MetadataUserID:   m.MetadataUserID,
		SubscriptionID:   m.SubscriptionID,
		Status:           billing.Status(m.Status),
		CurrentPeriodEnd: m.CurrentPeriodEnd,
		ReceivedAt:       m.ReceivedAt,
		Attempts:         m.Attempts,
		LastError:        m.LastError,
	}, nil
}
