package ads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AccountAnalytics is one day's aggregated insight snapshot for an account.
type AccountAnalytics struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	IntegrationID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_ads_analytics_integration_date,priority:1" json:"integration_id"`
	Date          datatypes.Date `gorm:"column:date;not null;uniqueIndex:idx_ads_analytics_integration_date,priority:2" json:"date"`

	Impressions int64   `gorm:"column:impressions" json:"impressions"`
	Clicks      int64   `gorm:"column:clicks" json:"clicks"`
	Reach       int64   `gorm:"column:reach" json:"reach"`
	Spend       float64 `gorm:"column:spend" json:"spend"`
	CTR         float64 `gorm:"column:ctr" json:"ctr"`
	CPM         float64 `gorm:"column:cpm" json:"cpm"`
	CPC         float64 `gorm:"column:cpc" json:"cpc"`

	Raw datatypes.JSON `gorm:"column:raw" json:"raw,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (AccountAnalytics) TableName() string { return "ads_account_analytics" }

func (a *AccountAnalytics) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// LaunchCounter counts campaign launches per platform per UTC day.
type LaunchCounter struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Platform  Platform  `gorm:"column:platform;not null;uniqueIndex:idx_ads_launch_counter_platform_day,priority:1" json:"platform"`
	Day       string    `gorm:"column:day;not null;uniqueIndex:idx_ads_launch_counter_platform_day,priority:2" json:"day"`
	Launches  int       `gorm:"column:launches;not null" json:"launches"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LaunchCounter) TableName() string { return "ads_launch_counter" }

func (c *LaunchCounter) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// DayKey formats t as the UTC calendar day used by counters.
func DayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }
