package ads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AdStatusActive = "ACTIVE"
	AdStatusPaused = "PAUSED"
)

const MaxAdNameLength = 100

type Ad struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AdSetID       uuid.UUID `gorm:"type:uuid;not null;index" json:"ad_set_id"`
	CreativeID    uuid.UUID `gorm:"type:uuid;not null;index" json:"creative_id"`
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;index" json:"integration_id"`
	Name          string    `gorm:"column:name;not null" json:"name"`

	Enabled bool   `gorm:"column:enabled;not null" json:"enabled"`
	Status  string `gorm:"column:status;not null" json:"status"`

	PartnershipPageID          string `gorm:"column:partnership_page_id" json:"partnership_page_id,omitempty"`
	PartnershipInstagramHandle string `gorm:"column:partnership_instagram_handle" json:"partnership_instagram_handle,omitempty"`

	RemoteID  string `gorm:"column:remote_id;index" json:"remote_id,omitempty"`
	LastError string `gorm:"column:last_error" json:"last_error,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Ad) TableName() string { return "ads_ad" }

func (a *Ad) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps status derived from the enabled flag.
func (a *Ad) BeforeSave(*gorm.DB) error {
	a.Status = AdStatusFor(a.Enabled)
	return nil
}

func AdStatusFor(enabled bool) string {
	if enabled {
		return AdStatusActive
	}
	return AdStatusPaused
}

// RemoteName is the name trimmed to the provider's length limit.
func (a *Ad) RemoteName() string {
	r := []rune(a.Name)
	if len(r) > MaxAdNameLength {
		return string(r[:MaxAdNameLength])
	}
	return a.Name
}
