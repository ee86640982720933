package repos

import (
	"gorm.io/gorm"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

type IntegrationRepo = ads.IntegrationRepo
type CampaignRepo = ads.CampaignRepo
type AdSetRepo = ads.AdSetRepo
type CreativeRepo = ads.CreativeRepo
type AdRepo = ads.AdRepo
type AnalyticsRepo = ads.AnalyticsRepo
type LaunchCounterRepo = ads.LaunchCounterRepo

var ErrNotFound = ads.ErrNotFound

func IsUniqueViolation(err error) bool { return ads.IsUniqueViolation(err) }

func NewIntegrationRepo(db *gorm.DB, baseLog *logger.Logger) IntegrationRepo {
	return ads.NewIntegrationRepo(db, baseLog)
}
func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	return ads.NewCampaignRepo(db, baseLog)
}
func NewAdSetRepo(db *gorm.DB, baseLog *logger.Logger) AdSetRepo {
	return ads.NewAdSetRepo(db, baseLog)
}
func NewCreativeRepo(db *gorm.DB, baseLog *logger.Logger) CreativeRepo {
	return ads.NewCreativeRepo(db, baseLog)
}
func NewAdRepo(db *gorm.DB, baseLog *logger.Logger) AdRepo { return ads.NewAdRepo(db, baseLog) }
func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
	return ads.NewAnalyticsRepo(db, baseLog)
}
func NewLaunchCounterRepo(db *gorm.DB, baseLog *logger.Logger) LaunchCounterRepo {
	return ads.NewLaunchCounterRepo(db, baseLog)
}

// Set is every repository the services use, built over one pool.
type Set struct {
	Integrations   IntegrationRepo
	Campaigns      CampaignRepo
	AdSets         AdSetRepo
	Creatives      CreativeRepo
	Ads            AdRepo
	Analytics      AnalyticsRepo
	LaunchCounters LaunchCounterRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Integrations:   NewIntegrationRepo(db, baseLog),
		Campaigns:      NewCampaignRepo(db, baseLog),
		AdSets:         NewAdSetRepo(db, baseLog),
		Creatives:      NewCreativeRepo(db, baseLog),
		Ads:            NewAdRepo(db, baseLog),
		Analytics:      NewAnalyticsRepo(db, baseLog),
		LaunchCounters: NewLaunchCounterRepo(db, baseLog),
	}
}
