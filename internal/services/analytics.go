package services

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos"
	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/secretbox"
)

const (
	DefaultSummaryDays   = 30
	analyticsConcurrency = 4
)

type FetchAllResult struct {
	Integrations int `json:"integrations"`
	Fetched      int `json:"fetched"`
	Failed       int `json:"failed"`
}

type SummaryTotals struct {
	Impressions int64   `json:"impressions"`
	Spend       float64 `json:"spend"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
}

type AnalyticsSummary struct {
	HasData    bool           `json:"has_data"`
	PeriodDays int            `json:"period_days,omitempty"`
	DataPoints int            `json:"data_points,omitempty"`
	Totals     *SummaryTotals `json:"totals,omitempty"`
}

type AnalyticsService interface {
	FetchAccountAnalytics(ctx context.Context, id uuid.UUID, user string) (*types.AccountAnalytics, error)
	FetchAll(ctx context.Context) (FetchAllResult, error)
	Summary(ctx context.Context, id uuid.UUID, days int, user string) (*AnalyticsSummary, error)
}

type analyticsService struct {
	log          *logger.Logger
	integrations repos.IntegrationRepo
	analytics    repos.AnalyticsRepo
	access       accountAccess
	now          func() time.Time
}

func NewAnalyticsService(log *logger.Logger, rs repos.Set, providers *adprovider.Registry, box *secretbox.Box) AnalyticsService {
	return &analyticsService{
		log:          log.With("service", "AnalyticsService"),
		integrations: rs.Integrations,
		analytics:    rs.Analytics,
		access:       accountAccess{integrations: rs.Integrations, providers: providers, box: box},
		now:          time.Now,
	}
}

func (s *analyticsService) FetchAccountAnalytics(ctx context.Context, id uuid.UUID, user string) (*types.AccountAnalytics, error) {
	dbc := dbctx.Background(ctx)
	in, err := s.access.load(dbc, id, user)
	if err != nil {
		return nil, err
	}
	return s.fetch(dbc, in)
}

func (s *analyticsService) fetch(dbc dbctx.Context, in *types.Integration) (*types.AccountAnalytics, error) {
	if !in.Active() {
		return nil, ErrNotConnected
	}
	client, err := s.access.provider(in.Platform)
	if err != nil {
		return nil, err
	}
	cred, err := s.access.credentials(in)
	if err != nil {
		return nil, err
	}
	rows, err := client.FetchAccountInsights(dbc.Ctx, cred)
	if err != nil {
		return nil, classifyRemote(err)
	}

	row := aggregateInsights(rows)
	row.IntegrationID = in.ID
	row.Date = datatypes.Date(s.now().UTC())
	if err := s.analytics.Upsert(dbc, row); err != nil {
		return nil, err
	}
	s.log.Info("analytics stored", "integration_id", in.ID, "rows", len(rows))
	return row, nil
}

// aggregateInsights sums the counters and averages the ratios of rows.
func aggregateInsights(rows []adprovider.InsightRow) *types.AccountAnalytics {
	out := &types.AccountAnalytics{}
	var ctr, cpm, cpc float64
	raw := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out.Impressions += r.Impressions
		out.Clicks += r.Clicks
		out.Reach += r.Reach
		out.Spend += r.Spend
		ctr += r.CTR
		cpm += r.CPM
		cpc += r.CPC
		if r.Raw != nil {
			raw = append(raw, r.Raw)
		}
	}
	if n := float64(len(rows)); n > 0 {
		out.CTR = round(ctr/n, 4)
		out.CPM = round(cpm/n, 2)
		out.CPC = round(cpc/n, 2)
	}
	if b, err := json.Marshal(raw); err == nil {
		out.Raw = datatypes.JSON(b)
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func (s *analyticsService) FetchAll(ctx context.Context) (FetchAllResult, error) {
	dbc := dbctx.Background(ctx)
	rows, err := s.integrations.ListEnabled(dbc)
	if err != nil {
		return FetchAllResult{}, err
	}

	res := FetchAllResult{Integrations: len(rows)}
	results := make([]error, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(analyticsConcurrency)
	for i, in := range rows {
		g.Go(func() error {
			_, results[i] = s.fetch(dbctx.Background(gctx), in)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range results {
		if err != nil {
			res.Failed++
			s.log.Warn("analytics fetch failed", "integration_id", rows[i].ID, "error", err)
			continue
		}
		res.Fetched++
	}
	return res, nil
}

func (s *analyticsService) Summary(ctx context.Context, id uuid.UUID, days int, user string) (*AnalyticsSummary, error) {
	if days <= 0 {
		days = DefaultSummaryDays
	}
	dbc := dbctx.Background(ctx)
	if _, err := s.access.load(dbc, id, user); err != nil {
		return nil, err
	}
	since := s.now().UTC().AddDate(0, 0, -days)
	rows, err := s.analytics.ListSince(dbc, id, since)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &AnalyticsSummary{HasData: false}, nil
	}

	totals := &SummaryTotals{}
	var ctr float64
	for _, r := range rows {
		totals.Impressions += r.Impressions
		totals.Spend += r.Spend
		totals.Clicks += r.Clicks
		ctr += r.CTR
	}
	totals.CTR = ctr / float64(len(rows))
	return &AnalyticsSummary{
		HasData:    true,
		PeriodDays: days,
		DataPoints: len(rows),
		Totals:     totals,
	}, nil
}
