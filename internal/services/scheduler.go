package services

import (
	"context"
	"errors"
	"time"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

const (
	dueBatchSize = 50
	// Launch counters older than this are pruned.
	counterRetention = 7 * 24 * time.Hour
)

type LaunchDueResult struct {
	Due      int `json:"due"`
	Launched int `json:"launched"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// CampaignScheduler drives the time-based parts of the campaign lifecycle.
type CampaignScheduler interface {
	LaunchDue(ctx context.Context) (LaunchDueResult, error)
	PruneLaunchCounters(ctx context.Context) (int64, error)
}

type campaignScheduler struct {
	log         *logger.Logger
	campaigns   repos.CampaignRepo
	counters    repos.LaunchCounterRepo
	publication PublicationService
	now         func() time.Time
}

func NewCampaignScheduler(log *logger.Logger, rs repos.Set, publication PublicationService) CampaignScheduler {
	return &campaignScheduler{
		log:         log.With("service", "CampaignScheduler"),
		campaigns:   rs.Campaigns,
		counters:    rs.LaunchCounters,
		publication: publication,
		now:         time.Now,
	}
}

func (s *campaignScheduler) LaunchDue(ctx context.Context) (LaunchDueResult, error) {
	due, err := s.campaigns.ListDueScheduled(dbctx.Background(ctx), s.now().UTC(), dueBatchSize)
	if err != nil {
		return LaunchDueResult{}, err
	}
	res := LaunchDueResult{Due: len(due)}
	for _, c := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out, err := s.publication.LaunchCampaign(ctx, c.ID, "")
		switch {
		case errors.Is(err, ErrLimitReached), errors.Is(err, ErrNotConnected), errors.Is(err, ads.ErrInvalidTransition):
			// Left Scheduled; retried on a later tick.
			res.Skipped++
			s.log.Info("scheduled launch skipped", "campaign_id", c.ID, "reason", err)
		case err != nil:
			res.Failed++
			s.log.Warn("scheduled launch failed", "campaign_id", c.ID, "error", err)
		case out.Campaign.Status == ads.CampaignFailed:
			res.Failed++
		default:
			res.Launched++
		}
	}
	return res, nil
}

func (s *campaignScheduler) PruneLaunchCounters(ctx context.Context) (int64, error) {
	cutoff := ads.DayKey(s.now().Add(-counterRetention))
	n, err := s.counters.PruneBefore(dbctx.Background(ctx), cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("launch counters pruned", "rows", n, "before", cutoff)
	}
	return n, nil
}
