package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/jobs"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/jobs/worker"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/secretbox"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/services"
)

type Services struct {
	OAuth        services.OAuthService
	Integrations services.IntegrationService
	Publication  services.PublicationService
	Tokens       services.TokenService
	Analytics    services.AnalyticsService
	Scheduler    services.CampaignScheduler

	// Worker is nil when CRON_ENABLED is off.
	Worker *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, rs repos.Set) (Services, error) {
	log.Info("Wiring services...")
	box := secretbox.New(cfg.TokenEncryptionKey)
	if !box.Enabled() {
		log.Warn("TOKEN_ENCRYPTION_KEY not set; tokens are stored unsealed")
	}
	settings := cfg.settings()

	integrations := services.NewIntegrationService(db, log, clients.State, rs, clients.Providers, box, settings)
	publication := services.NewPublicationService(log, rs, clients.Providers, box, clients.Media, settings)
	out := Services{
		OAuth:        services.NewOAuthService(log, clients.State, clients.Providers, integrations, settings),
		Integrations: integrations,
		Publication:  publication,
		Tokens:       services.NewTokenService(log, rs.Integrations, clients.Providers, box),
		Analytics:    services.NewAnalyticsService(log, rs, clients.Providers, box),
		Scheduler:    services.NewCampaignScheduler(log, rs, publication),
	}

	if cfg.Cron.Enabled {
		w := worker.NewWorker(log)
		err := jobs.Register(w, cfg.Cron.Schedules, jobs.Deps{
			Tokens:    out.Tokens,
			Analytics: out.Analytics,
			Campaigns: out.Scheduler,
		})
		if err != nil {
			return Services{}, fmt.Errorf("register jobs: %w", err)
		}
		out.Worker = w
	}
	return out, nil
}
