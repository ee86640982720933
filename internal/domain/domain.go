package domain

import (
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
)

type Platform = ads.Platform

const (
	PlatformFacebook  = ads.PlatformFacebook
	PlatformInstagram = ads.PlatformInstagram
)

type ConnectionStatus = ads.ConnectionStatus

const (
	StatusConnected    = ads.StatusConnected
	StatusNotConnected = ads.StatusNotConnected
	StatusExpired      = ads.StatusExpired
	StatusError        = ads.StatusError
)

type CampaignStatus = ads.CampaignStatus

const (
	CampaignDraft           = ads.CampaignDraft
	CampaignScheduled       = ads.CampaignScheduled
	CampaignLaunching       = ads.CampaignLaunching
	CampaignActive          = ads.CampaignActive
	CampaignPartiallyActive = ads.CampaignPartiallyActive
	CampaignFailed          = ads.CampaignFailed
	CampaignCancelled       = ads.CampaignCancelled
)

type Gender = ads.Gender

const (
	GenderAll    = ads.GenderAll
	GenderMale   = ads.GenderMale
	GenderFemale = ads.GenderFemale
)

type MediaType = ads.MediaType

const (
	MediaImage = ads.MediaImage
	MediaVideo = ads.MediaVideo
)

const (
	AdStatusActive = ads.AdStatusActive
	AdStatusPaused = ads.AdStatusPaused
)

type Integration = ads.Integration
type LinkedPage = ads.LinkedPage
type Campaign = ads.Campaign
type AdSet = ads.AdSet
type Creative = ads.Creative
type CreativeMedia = ads.CreativeMedia
type Ad = ads.Ad
type AccountAnalytics = ads.AccountAnalytics
type LaunchCounter = ads.LaunchCounter

// Models lists every table the service owns, in migration order.
func Models() []any {
	return []any{
		&Integration{},
		&LinkedPage{},
		&Campaign{},
		&AdSet{},
		&Creative{},
		&CreativeMedia{},
		&Ad{},
		&AccountAnalytics{},
		&LaunchCounter{},
	}
}
