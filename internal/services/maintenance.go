package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos"
	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/secretbox"
)

const (
	DefaultRefreshWindow = 24 * time.Hour
	refreshConcurrency   = 4
)

type RefreshSummary struct {
	Scanned   int `json:"scanned"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

type ValidityResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

type TokenService interface {
	RefreshToken(ctx context.Context, id uuid.UUID, user string) (*types.Integration, error)
	// ScanForExpiring refreshes every usable token that expires within
	// window. Individual failures are counted, not returned.
	ScanForExpiring(ctx context.Context, window time.Duration) (RefreshSummary, error)
	CheckValidity(ctx context.Context, id uuid.UUID, user string) (*ValidityResult, error)
}

type tokenService struct {
	log          *logger.Logger
	integrations repos.IntegrationRepo
	access       accountAccess
	box          *secretbox.Box
	now          func() time.Time
}

func NewTokenService(log *logger.Logger, integrations repos.IntegrationRepo, providers *adprovider.Registry, box *secretbox.Box) TokenService {
	return &tokenService{
		log:          log.With("service", "TokenService"),
		integrations: integrations,
		access:       accountAccess{integrations: integrations, providers: providers, box: box},
		box:          box,
		now:          time.Now,
	}
}

func (s *tokenService) RefreshToken(ctx context.Context, id uuid.UUID, user string) (*types.Integration, error) {
	dbc := dbctx.Background(ctx)
	in, err := s.access.load(dbc, id, user)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(dbc, in); err != nil {
		return nil, err
	}
	out, err := s.integrations.GetByID(dbc, id)
	if err != nil {
		return nil, notFoundAs(err)
	}
	out.ClearSecrets()
	return out, nil
}

func (s *tokenService) refresh(dbc dbctx.Context, in *types.Integration) error {
	if !in.Enabled || in.AccessToken == "" {
		return ErrNotConnected
	}
	client, err := s.access.provider(in.Platform)
	if err != nil {
		return err
	}
	cred, err := s.access.credentials(in)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	res, err := client.RefreshToken(dbc.Ctx, cred.AccessToken)
	if err == nil && res.AccessToken == "" {
		err = &RemoteError{Message: "No access token in refresh response", Err: ErrRemote}
	}
	if err != nil {
		err = classifyRemote(err)
		msg := userMessage(err)
		if uerr := s.integrations.UpdateFields(dbc, in.ID, map[string]any{
			"connection_status": types.StatusExpired,
			"last_error":        msg,
			"last_error_time":   now,
		}); uerr != nil {
			s.log.Error("failed to record refresh failure", "integration_id", in.ID, "error", uerr)
		}
		s.log.Warn("token refresh failed", "integration_id", in.ID, "error", err)
		return err
	}

	sealed, err := s.box.Seal(res.AccessToken)
	if err != nil {
		return err
	}
	expiresIn := res.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = LongLivedTokenTTL
	}
	if err := s.integrations.UpdateFields(dbc, in.ID, map[string]any{
		"access_token":      sealed,
		"token_expiry":      now.Add(time.Duration(expiresIn) * time.Second),
		"connection_status": types.StatusConnected,
		"last_error":        "",
		"last_error_time":   nil,
	}); err != nil {
		return err
	}
	s.log.Info("token refreshed", "integration_id", in.ID, "expires_in", expiresIn)
	return nil
}

func (s *tokenService) ScanForExpiring(ctx context.Context, window time.Duration) (RefreshSummary, error) {
	if window <= 0 {
		window = DefaultRefreshWindow
	}
	dbc := dbctx.Background(ctx)
	now := s.now().UTC()
	rows, err := s.integrations.ListExpiring(dbc, now, now.Add(window))
	if err != nil {
		return RefreshSummary{}, err
	}

	var refreshed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, in := range rows {
		g.Go(func() error {
			if err := s.refresh(dbctx.Background(gctx), in); err != nil {
				failed.Add(1)
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	sum := RefreshSummary{Scanned: len(rows), Refreshed: int(refreshed.Load()), Failed: int(failed.Load())}
	s.log.Info("expiring token scan finished", "scanned", sum.Scanned, "refreshed", sum.Refreshed, "failed", sum.Failed)
	return sum, nil
}

func (s *tokenService) CheckValidity(ctx context.Context, id uuid.UUID, user string) (*ValidityResult, error) {
	in, err := s.access.load(dbctx.Background(ctx), id, user)
	if err != nil {
		return nil, err
	}
	switch {
	case !in.Enabled:
		return &ValidityResult{Reason: "Integration disabled"}, nil
	case in.AccessToken == "":
		return &ValidityResult{Reason: "No access token"}, nil
	case in.TokenExpired(s.now()):
		return &ValidityResult{Reason: "Token expired"}, nil
	}
	return &ValidityResult{Valid: true}, nil
}
