package ads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderAll    Gender = "All"
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Code is the provider's numeric gender code; 0 means no restriction.
func (g Gender) Code() int {
	switch g {
	case GenderMale:
		return 1
	case GenderFemale:
		return 2
	default:
		return 0
	}
}

type AdSet struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;index" json:"campaign_id"`
	Name       string    `gorm:"column:name;not null" json:"name"`

	DailyBudget     float64 `gorm:"column:daily_budget" json:"daily_budget"`
	BidAmount       float64 `gorm:"column:bid_amount" json:"bid_amount"`
	BillingEvent    string  `gorm:"column:billing_event" json:"billing_event,omitempty"`
	PerformanceGoal string  `gorm:"column:performance_goal" json:"performance_goal,omitempty"`

	GeoCountry string `gorm:"column:geo_country" json:"geo_country,omitempty"`
	AgeMin     int    `gorm:"column:age_min" json:"age_min,omitempty"`
	AgeMax     int    `gorm:"column:age_max" json:"age_max,omitempty"`
	Gender     Gender `gorm:"column:gender" json:"gender,omitempty"`

	Enabled   bool   `gorm:"column:enabled;not null" json:"enabled"`
	Status    string `gorm:"column:status" json:"status,omitempty"`
	RemoteID  string `gorm:"column:remote_id;index" json:"remote_id,omitempty"`
	LastError string `gorm:"column:last_error" json:"last_error,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (AdSet) TableName() string { return "ads_ad_set" }

func (s *AdSet) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
