// Package adprovider is the platform-neutral contract between the ads
// services and a remote advertising API.
package adprovider

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
)

var (
	// ErrNoProvider is returned by Registry.Get for an unregistered platform.
	ErrNoProvider = errors.New("no provider registered for platform")
	// ErrNotConfigured means the provider lacks application credentials.
	ErrNotConfigured = errors.New("provider credentials are not configured")
	// ErrInvalidRequest marks a request rejected before it was sent.
	ErrInvalidRequest = errors.New("invalid provider request")
)

// Credentials identify the account a call acts on.
type Credentials struct {
	AccessToken string
	AdAccountID string
}

type TokenResult struct {
	AccessToken string
	TokenType   string
	// ExpiresIn is in seconds; 0 when the provider did not say.
	ExpiresIn int64
}

type UserProfile struct {
	ID    string
	Name  string
	Email string
}

type Page struct {
	ID                         string `json:"id"`
	Name                       string `json:"name"`
	AccessToken                string `json:"access_token,omitempty"`
	FanCount                   int64  `json:"fan_count"`
	PictureURL                 string `json:"picture_url,omitempty"`
	InstagramBusinessAccountID string `json:"instagram_business_account_id,omitempty"`
}

// AccountInfo carries money in major units; minor-unit conversion happens
// inside the provider.
type AccountInfo struct {
	ID            string  `json:"id"`
	AccountID     string  `json:"account_id"`
	Name          string  `json:"name"`
	Currency      string  `json:"currency"`
	Timezone      string  `json:"timezone_name"`
	AccountStatus string  `json:"account_status"`
	AmountSpent   float64 `json:"amount_spent"`
	Balance       float64 `json:"balance"`
}

type CampaignRequest struct {
	Name              string
	Objective         string
	SpecialAdCategory string
	Enabled           bool
	DailyBudget       float64
	BudgetSharing     bool
	StartTime         *time.Time
	EndTime           *time.Time
}

type AdSetRequest struct {
	Name             string
	CampaignRemoteID string
	DailyBudget      float64
	BidAmount        float64
	BillingEvent     string
	PerformanceGoal  string
	GeoCountry       string
	AgeMin           int
	AgeMax           int
	Gender           ads.Gender

	// CampaignBudget means the parent campaign carries the daily budget; the
	// ad set then sends none.
	CampaignBudget bool
}

type MediaUpload struct {
	Filename string
	Body     io.Reader
}

type CreativeRequest struct {
	Name         string
	PageID       string
	ImageHash    string
	Message      string
	Link         string
	Caption      string
	Description  string
	CallToAction string
	// InstagramActorID places the creative on an Instagram business account.
	InstagramActorID string
}

type AdRequest struct {
	Name              string
	AdSetRemoteID     string
	CreativeRemoteID  string
	PartnershipPageID string
	InstagramHandle   string
}

type InsightRow struct {
	Impressions int64
	Clicks      int64
	Reach       int64
	Spend       float64
	CTR         float64
	CPM         float64
	CPC         float64
	DateStart   string
	DateStop    string
	Raw         map[string]any
}

type RemoteCampaign struct {
	ID          string
	Name        string
	Status      string
	Objective   string
	CreatedTime *time.Time
	UpdatedTime *time.Time
}

// Provider publishes and reads advertising objects for one account.
type Provider interface {
	CreateCampaign(ctx context.Context, cred Credentials, req CampaignRequest) (string, error)
	CreateAdSet(ctx context.Context, cred Credentials, req AdSetRequest) (string, error)
	// UploadMedia returns the provider's content hash for the upload.
	UploadMedia(ctx context.Context, cred Credentials, upload MediaUpload) (string, error)
	CreateCreative(ctx context.Context, cred Credentials, req CreativeRequest) (string, error)
	CreateAd(ctx context.Context, cred Credentials, req AdRequest) (string, error)
	FetchAccountInsights(ctx context.Context, cred Credentials) ([]InsightRow, error)
	RefreshToken(ctx context.Context, accessToken string) (TokenResult, error)
	FetchAccount(ctx context.Context, cred Credentials) (AccountInfo, error)
	ListCampaigns(ctx context.Context, cred Credentials) ([]RemoteCampaign, error)
	FetchPageToken(ctx context.Context, userToken, pageID string) (string, error)
}

// OAuthProvider runs the authorization-code flow and the identity reads
// that follow it.
type OAuthProvider interface {
	AuthURL(platform ads.Platform, redirectURI, state string) (string, error)
	ExchangeCode(ctx context.Context, redirectURI, code string) (TokenResult, error)
	ExchangeLongLived(ctx context.Context, shortToken string) (TokenResult, error)
	Me(ctx context.Context, token string) (UserProfile, error)
	Pages(ctx context.Context, token string) ([]Page, error)
	AdAccounts(ctx context.Context, token string) ([]AccountInfo, error)
}

// Client is everything a platform integration offers.
type Client interface {
	Provider
	OAuthProvider
}

// RemoteMessager is implemented by errors carrying a message produced by the
// remote API that is safe to show to the user.
type RemoteMessager interface {
	RemoteMessage() string
}

// RemoteMessage extracts the user-facing remote message from err's chain.
func RemoteMessage(err error) (string, bool) {
	var rm RemoteMessager
	if errors.As(err, &rm) {
		return rm.RemoteMessage(), true
	}
	return "", false
}
