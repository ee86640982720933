package ads

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CampaignStatus string

const (
	CampaignDraft           CampaignStatus = "Draft"
	CampaignScheduled       CampaignStatus = "Scheduled"
	CampaignLaunching       CampaignStatus = "Launching"
	CampaignActive          CampaignStatus = "Active"
	CampaignPartiallyActive CampaignStatus = "Partially Active"
	CampaignFailed          CampaignStatus = "Failed"
	CampaignCancelled       CampaignStatus = "Cancelled"
)

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:           {CampaignScheduled, CampaignLaunching, CampaignCancelled},
	CampaignScheduled:       {CampaignLaunching, CampaignDraft, CampaignCancelled},
	CampaignLaunching:       {CampaignActive, CampaignPartiallyActive, CampaignFailed},
	CampaignActive:          {},
	CampaignPartiallyActive: {CampaignLaunching},
	CampaignFailed:          {CampaignScheduled, CampaignLaunching, CampaignCancelled},
	CampaignCancelled:       {CampaignDraft},
}

func ParseCampaignStatus(raw string) (CampaignStatus, error) {
	raw = strings.TrimSpace(raw)
	for s := range campaignTransitions {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown campaign status %q", raw)
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to CampaignStatus) bool {
	if from == "" {
		from = CampaignDraft
	}
	for _, next := range campaignTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Remote status vocabulary returned by campaign listings.
const (
	RemoteActive   = "Active"
	RemotePaused   = "Paused"
	RemoteArchived = "Archived"
	RemoteDraft    = "Draft"
)

// MapRemoteCampaignStatus folds the provider's effective status into the
// local display vocabulary.
func MapRemoteCampaignStatus(remote string) string {
	switch strings.ToUpper(strings.TrimSpace(remote)) {
	case "ACTIVE":
		return RemoteActive
	case "PAUSED":
		return RemotePaused
	case "DELETED", "ARCHIVED":
		return RemoteArchived
	default:
		return RemoteDraft
	}
}

type Campaign struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;index" json:"integration_id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	Objective     string    `gorm:"column:objective" json:"objective"`

	// Single UI selection; mapped to an array at the provider boundary.
	SpecialAdCategory string `gorm:"column:special_ad_category" json:"special_ad_category,omitempty"`

	// Major units (e.g. 12.50). Converted to minor units only when sent.
	DailyBudget    float64 `gorm:"column:daily_budget" json:"daily_budget"`
	LifetimeBudget float64 `gorm:"column:lifetime_budget" json:"lifetime_budget"`
	BudgetSharing  bool    `gorm:"column:budget_sharing;not null" json:"budget_sharing"`
	Enabled        bool    `gorm:"column:enabled;not null" json:"enabled"`

	Status     CampaignStatus `gorm:"column:status;not null;index" json:"status"`
	RemoteID   string         `gorm:"column:remote_id;index" json:"remote_id,omitempty"`
	StartTime  *time.Time     `gorm:"column:start_time;index" json:"start_time,omitempty"`
	EndTime    *time.Time     `gorm:"column:end_time" json:"end_time,omitempty"`
	LastError  string         `gorm:"column:last_error" json:"last_error,omitempty"`
	LaunchedAt *time.Time     `gorm:"column:launched_at" json:"launched_at,omitempty"`

	RemoteStatus string     `gorm:"column:remote_status" json:"remote_status,omitempty"`
	CreatedTime  *time.Time `gorm:"column:created_time" json:"created_time,omitempty"`
	UpdatedTime  *time.Time `gorm:"column:updated_time" json:"updated_time,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Campaign) TableName() string { return "ads_campaign" }

func (c *Campaign) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignDraft
	}
	return nil
}

// TransitionTo moves the campaign along the lifecycle graph.
func (c *Campaign) TransitionTo(to CampaignStatus) error {
	if !CanTransition(c.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}
	c.Status = to
	return nil
}

func (c *Campaign) Published() bool { return c.RemoteID != "" }

// CampaignOwnsBudget reports whether the daily budget is set on the campaign
// rather than on each ad set.
func CampaignOwnsBudget(sharing bool, dailyBudget float64) bool {
	return sharing && dailyBudget > 0
}

func (c *Campaign) OwnsBudget() bool { return CampaignOwnsBudget(c.BudgetSharing, c.DailyBudget) }
