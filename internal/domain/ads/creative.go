package ads

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaType string

const (
	MediaImage MediaType = "Image"
	MediaVideo MediaType = "Video"
)

// MediaTypeForRef infers the media kind from the file extension.
func MediaTypeForRef(ref string) MediaType {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return MediaImage
	default:
		return MediaVideo
	}
}

type Creative struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;index" json:"integration_id"`
	Name          string    `gorm:"column:name;not null" json:"name"`

	PageID    string `gorm:"column:page_id" json:"page_id,omitempty"`
	PageLabel string `gorm:"column:page_label" json:"page_label,omitempty"`

	Message      string `gorm:"column:message" json:"message,omitempty"`
	Link         string `gorm:"column:link" json:"link,omitempty"`
	Caption      string `gorm:"column:caption" json:"caption,omitempty"`
	Description  string `gorm:"column:description" json:"description,omitempty"`
	CallToAction string `gorm:"column:call_to_action" json:"call_to_action,omitempty"`

	RemoteID  string `gorm:"column:remote_id;index" json:"remote_id,omitempty"`
	LastError string `gorm:"column:last_error" json:"last_error,omitempty"`

	Media []CreativeMedia `gorm:"foreignKey:CreativeID;constraint:OnDelete:CASCADE" json:"media,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Creative) TableName() string { return "ads_creative" }

func (c *Creative) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ResolvePageID prefers the structured page id and falls back to parsing the
// display label.
func (c *Creative) ResolvePageID() (string, error) {
	if id := strings.TrimSpace(c.PageID); id != "" {
		return id, nil
	}
	return ParsePageLabel(c.PageLabel)
}

// PrimaryImageHash is the hash of the first uploaded image.
func (c *Creative) PrimaryImageHash() string {
	for _, m := range c.Media {
		if m.MediaType == MediaImage && m.MediaHash != "" {
			return m.MediaHash
		}
	}
	return ""
}

type CreativeMedia struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreativeID uuid.UUID `gorm:"type:uuid;not null;index" json:"creative_id"`
	Position   int       `gorm:"column:position;not null" json:"position"`
	MediaRef   string    `gorm:"column:media_ref;not null" json:"media_ref"`
	MediaType  MediaType `gorm:"column:media_type" json:"media_type"`
	MediaHash  string    `gorm:"column:media_hash" json:"media_hash,omitempty"`
	FileSize   int64     `gorm:"column:file_size" json:"file_size"`
	Uploaded   bool      `gorm:"column:uploaded;not null" json:"uploaded"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (CreativeMedia) TableName() string { return "ads_creative_media" }

func (m *CreativeMedia) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.MediaType == "" {
		m.MediaType = MediaTypeForRef(m.MediaRef)
	}
	return nil
}
