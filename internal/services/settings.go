package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos"
	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/secretbox"
)

const (
	DefaultStateTTL   = 5 * time.Minute
	DefaultSessionTTL = 10 * time.Minute
	DefaultDailyLimit = 25
)

// Settings are the tunables shared by the ads services.
type Settings struct {
	PublicBaseURL   string
	FrontendBaseURL string
	StateTTL        time.Duration
	SessionTTL      time.Duration
	DailyLimits     map[types.Platform]int
}

func (s Settings) withDefaults() Settings {
	if s.StateTTL <= 0 {
		s.StateTTL = DefaultStateTTL
	}
	if s.SessionTTL <= 0 {
		s.SessionTTL = DefaultSessionTTL
	}
	s.PublicBaseURL = strings.TrimRight(strings.TrimSpace(s.PublicBaseURL), "/")
	s.FrontendBaseURL = strings.TrimRight(strings.TrimSpace(s.FrontendBaseURL), "/")
	return s
}

func (s Settings) dailyLimit(p types.Platform) int {
	if n, ok := s.DailyLimits[p]; ok && n > 0 {
		return n
	}
	return DefaultDailyLimit
}

// accountAccess loads integrations and turns them into provider calls.
type accountAccess struct {
	integrations repos.IntegrationRepo
	providers    *adprovider.Registry
	box          *secretbox.Box
}

// load fetches the integration and checks that user may act on it. An empty
// user is an internal caller (jobs) and skips the check.
func (a accountAccess) load(dbc dbctx.Context, id uuid.UUID, user string) (*types.Integration, error) {
	in, err := a.integrations.GetByID(dbc, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if user != "" && in.OwnerUserID != "" && in.OwnerUserID != user {
		return nil, ErrForbidden
	}
	return in, nil
}

func (a accountAccess) provider(p types.Platform) (adprovider.Client, error) {
	c, err := a.providers.Get(p)
	if err != nil {
		return nil, ErrNotConfigured
	}
	return c, nil
}

func (a accountAccess) credentials(in *types.Integration) (adprovider.Credentials, error) {
	tok, err := a.box.Open(in.AccessToken)
	if err != nil {
		return adprovider.Credentials{}, err
	}
	return adprovider.Credentials{AccessToken: tok, AdAccountID: in.AdAccountID}, nil
}

func ptrTime(t time.Time) *time.Time { return &t }
