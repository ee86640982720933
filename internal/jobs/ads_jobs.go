// Package jobs defines the scheduled maintenance work of the ads service.
package jobs

import (
	"context"
	"time"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/jobs/worker"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/services"
)

const (
	JobRefreshTokens   = "refresh_expiring_tokens"
	JobFetchAnalytics  = "fetch_daily_analytics"
	JobLaunchScheduled = "launch_scheduled_campaigns"
	JobPruneCounters   = "prune_launch_counters"
)

// Schedules are cron expressions (five fields, or @descriptors).
type Schedules struct {
	RefreshTokens   string `yaml:"refresh_tokens"`
	FetchAnalytics  string `yaml:"fetch_analytics"`
	LaunchScheduled string `yaml:"launch_scheduled"`
	PruneCounters   string `yaml:"prune_counters"`
}

func DefaultSchedules() Schedules {
	return Schedules{
		RefreshTokens:   "@hourly",
		FetchAnalytics:  "0 3 * * *",
		LaunchScheduled: "* * * * *",
		PruneCounters:   "5 0 * * *",
	}
}

func (s Schedules) withDefaults() Schedules {
	d := DefaultSchedules()
	if s.RefreshTokens == "" {
		s.RefreshTokens = d.RefreshTokens
	}
	if s.FetchAnalytics == "" {
		s.FetchAnalytics = d.FetchAnalytics
	}
	if s.LaunchScheduled == "" {
		s.LaunchScheduled = d.LaunchScheduled
	}
	if s.PruneCounters == "" {
		s.PruneCounters = d.PruneCounters
	}
	return s
}

type Deps struct {
	Tokens    services.TokenService
	Analytics services.AnalyticsService
	Campaigns services.CampaignScheduler
}

func AdsJobs(s Schedules, d Deps) []worker.Job {
	s = s.withDefaults()
	return []worker.Job{
		{
			Name:     JobRefreshTokens,
			Schedule: s.RefreshTokens,
			Timeout:  15 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := d.Tokens.ScanForExpiring(ctx, services.DefaultRefreshWindow)
				return err
			},
		},
		{
			Name:     JobFetchAnalytics,
			Schedule: s.FetchAnalytics,
			Timeout:  30 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := d.Analytics.FetchAll(ctx)
				return err
			},
		},
		{
			Name:     JobLaunchScheduled,
			Schedule: s.LaunchScheduled,
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := d.Campaigns.LaunchDue(ctx)
				return err
			},
		},
		{
			Name:     JobPruneCounters,
			Schedule: s.PruneCounters,
			Timeout:  time.Minute,
			Run: func(ctx context.Context) error {
				_, err := d.Campaigns.PruneLaunchCounters(ctx)
				return err
			},
		},
	}
}

// Register adds every ads job to w.
func Register(w *worker.Worker, s Schedules, d Deps) error {
	for _, j := range AdsJobs(s, d) {
		if err := w.Register(j); err != nil {
			return err
		}
	}
	return nil
}
