package ads

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "Connected"
	StatusNotConnected ConnectionStatus = "Not Connected"
	StatusExpired      ConnectionStatus = "Expired"
	StatusError        ConnectionStatus = "Error"
)

// Integration is one connected remote ad account. It is unique on
// (platform, ad_account_id); reconnecting updates the row in place.
type Integration struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Platform    Platform  `gorm:"column:platform;not null;uniqueIndex:idx_ads_integration_platform_account,priority:1" json:"platform"`
	AdAccountID string    `gorm:"column:ad_account_id;not null;uniqueIndex:idx_ads_integration_platform_account,priority:2" json:"ad_account_id"`
	AdID        string    `gorm:"column:ad_id" json:"ad_id"`

	AccountName        string `gorm:"column:account_name" json:"account_name"`
	AccountDescription string `gorm:"column:account_description" json:"account_description,omitempty"`
	Organization       string `gorm:"column:organization;index" json:"organization,omitempty"`
	OwnerUserID        string `gorm:"column:owner_user_id;index" json:"owner_user_id"`

	ConnectionStatus ConnectionStatus `gorm:"column:connection_status;not null;index" json:"connection_status"`
	Enabled          bool             `gorm:"column:enabled;not null" json:"enabled"`
	AutoSync         bool             `gorm:"column:auto_sync;not null" json:"auto_sync"`

	// Sealed at rest; never serialized.
	AccessToken  string     `gorm:"column:access_token" json:"-"`
	RefreshToken string     `gorm:"column:refresh_token" json:"-"`
	TokenExpiry  *time.Time `gorm:"column:token_expiry;index" json:"token_expiry,omitempty"`

	AuthorizedUserID    string     `gorm:"column:authorized_user_id" json:"authorized_user_id,omitempty"`
	AuthorizedUserName  string     `gorm:"column:authorized_user_name" json:"authorized_user_name,omitempty"`
	AuthorizedUserEmail string     `gorm:"column:authorized_user_email" json:"authorized_user_email,omitempty"`
	AuthorizationDate   *time.Time `gorm:"column:authorization_date" json:"authorization_date,omitempty"`
	DisconnectedAt      *time.Time `gorm:"column:disconnected_at" json:"disconnected_at,omitempty"`

	Currency                   string  `gorm:"column:currency" json:"currency,omitempty"`
	Timezone                   string  `gorm:"column:timezone" json:"timezone,omitempty"`
	AccountStatus              string  `gorm:"column:account_status" json:"account_status,omitempty"`
	AmountSpent                float64 `gorm:"column:amount_spent" json:"amount_spent"`
	Balance                    float64 `gorm:"column:balance" json:"balance"`
	InstagramBusinessAccountID string  `gorm:"column:instagram_business_account_id" json:"instagram_business_account_id,omitempty"`

	LastError     string     `gorm:"column:last_error" json:"last_error,omitempty"`
	LastErrorTime *time.Time `gorm:"column:last_error_time" json:"last_error_time,omitempty"`
	LastSynced    *time.Time `gorm:"column:last_synced" json:"last_synced,omitempty"`
	SyncStatus    string     `gorm:"column:sync_status" json:"sync_status,omitempty"`

	Pages []LinkedPage `gorm:"foreignKey:IntegrationID;constraint:OnDelete:CASCADE" json:"pages,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Integration) TableName() string { return "ads_integration" }

func (i *Integration) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.ConnectionStatus == "" {
		i.ConnectionStatus = StatusNotConnected
	}
	return nil
}

// Validate enforces the account id format, fills the display name and marks
// the connection Expired once the token is past its expiry.
func (i *Integration) Validate(now time.Time) error {
	if i.AdAccountID != "" && !strings.HasPrefix(i.AdAccountID, "act_") {
		return ErrInvalidAccountID
	}
	if strings.TrimSpace(i.AccountName) == "" {
		i.AccountName = "Account " + i.AdAccountID
	}
	if i.TokenExpired(now) && i.ConnectionStatus == StatusConnected {
		i.ConnectionStatus = StatusExpired
	}
	return nil
}

func (i *Integration) TokenExpired(now time.Time) bool {
	return i.TokenExpiry != nil && now.After(*i.TokenExpiry)
}

// Active reports whether the integration may be used for remote calls.
func (i *Integration) Active() bool {
	return i.Enabled && i.AccessToken != "" && i.ConnectionStatus == StatusConnected
}

// ClearSecrets drops every credential held for the account, including the
// page tokens of loaded pages.
func (i *Integration) ClearSecrets() {
	i.AccessToken = ""
	i.RefreshToken = ""
	for idx := range i.Pages {
		i.Pages[idx].PageAccessToken = ""
	}
}

// PageByID returns the linked page with id, if any.
func (i *Integration) PageByID(id string) (*LinkedPage, bool) {
	for idx := range i.Pages {
		if i.Pages[idx].PageID == id {
			return &i.Pages[idx], true
		}
	}
	return nil, false
}

// LinkedPage is a page the authorizing user manages. Ads are posted through
// a page, so the list is required for creative creation.
type LinkedPage struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IntegrationID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ads_linked_page_integration_page,priority:1" json:"integration_id"`
	PageID          string    `gorm:"column:page_id;not null;uniqueIndex:idx_ads_linked_page_integration_page,priority:2" json:"page_id"`
	PageName        string    `gorm:"column:page_name" json:"page_name"`
	PageAccessToken string    `gorm:"column:page_access_token" json:"-"`
	FollowerCount   int64     `gorm:"column:follower_count" json:"follower_count"`
	Image           string    `gorm:"column:image" json:"image,omitempty"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (LinkedPage) TableName() string { return "ads_linked_page" }

func (p *LinkedPage) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p LinkedPage) Label() string { return FormatPageLabel(p.PageName, p.PageID) }
