package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos"
	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/secretbox"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/statestore"
)

const minSessionKeyLength = 20

type AccountOption struct {
	Index       int     `json:"index"`
	ID          string  `json:"id"`
	AccountID   string  `json:"account_id"`
	Name        string  `json:"name"`
	Currency    string  `json:"currency"`
	Timezone    string  `json:"timezone"`
	Status      string  `json:"status"`
	AmountSpent float64 `json:"amount_spent"`
	Balance     float64 `json:"balance"`
}

type AvailableAccounts struct {
	Platform     types.Platform  `json:"platform"`
	AdAccounts   []AccountOption `json:"ad_accounts"`
	AuthorizedBy string          `json:"authorized_by"`
	AccountCount int             `json:"account_count"`
}

type ValidationResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AccountName string `json:"account_name,omitempty"`
}

type SyncResult struct {
	Success         bool   `json:"success"`
	CampaignsSynced int    `json:"campaigns_synced"`
	Created         int    `json:"created"`
	Updated         int    `json:"updated"`
	Message         string `json:"message,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
}

type PageOption struct {
	PageID string `json:"page_id"`
	Label  string `json:"label"`
}

type IntegrationService interface {
	AvailableAccounts(ctx context.Context, sessionKey, user string) (*AvailableAccounts, error)
	SelectAccount(ctx context.Context, sessionKey string, index int, user string) (*types.Integration, error)
	Get(ctx context.Context, id uuid.UUID, user string) (*types.Integration, error)
	Disconnect(ctx context.Context, id uuid.UUID, user string) error
	ValidateCredentials(ctx context.Context, id uuid.UUID, user string) (*ValidationResult, error)
	SyncCampaigns(ctx context.Context, id uuid.UUID, user string) (*SyncResult, error)
	ListPages(ctx context.Context, id uuid.UUID, query, user string) ([]PageOption, error)
	RefreshAccountInfo(ctx context.Context, id uuid.UUID, user string) (*types.Integration, error)
}

type integrationService struct {
	db        *gorm.DB
	log       *logger.Logger
	store     statestore.Store
	repos     repos.Set
	access    accountAccess
	box       *secretbox.Box
	settings  Settings
	now       func() time.Time
	syncAsync func(id uuid.UUID)
}

func NewIntegrationService(
	db *gorm.DB,
	log *logger.Logger,
	store statestore.Store,
	rs repos.Set,
	providers *adprovider.Registry,
	box *secretbox.Box,
	settings Settings,
) IntegrationService {
	s := &integrationService{
		db:       db,
		log:      log.With("service", "IntegrationService"),
		store:    store,
		repos:    rs,
		access:   accountAccess{integrations: rs.Integrations, providers: providers, box: box},
		box:      box,
		settings: settings.withDefaults(),
		now:      time.Now,
	}
	s.syncAsync = s.backgroundSync
	return s
}

func (s *integrationService) loadSession(ctx context.Context, key, user string) (*OAuthSession, error) {
	if len(key) < minSessionKeyLength {
		return nil, ErrSessionInvalid
	}
	var sess OAuthSession
	if err := statestore.GetJSON(ctx, s.store, sessionKey(key), &sess); err != nil {
		return nil, s.sessionMiss(err)
	}
	if sess.User != user {
		s.log.Warn("session user mismatch", "session", key, "user", user)
		return nil, ErrSessionInvalid
	}
	return &sess, nil
}

// takeSession removes the session from the store. Of two concurrent
// selections on one key only one gets it.
func (s *integrationService) takeSession(ctx context.Context, key string) (*OAuthSession, error) {
	if len(key) < minSessionKeyLength {
		return nil, ErrSessionInvalid
	}
	var sess OAuthSession
	if err := statestore.TakeJSON(ctx, s.store, sessionKey(key), &sess); err != nil {
		return nil, s.sessionMiss(err)
	}
	return &sess, nil
}

// releaseSession puts a taken session back for the rest of its lifetime so
// a rejected selection can be retried.
func (s *integrationService) releaseSession(ctx context.Context, key string, sess *OAuthSession) {
	ttl := s.settings.SessionTTL
	if !sess.ExpiresAt.IsZero() {
		ttl = sess.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return
	}
	if err := statestore.SetJSON(context.WithoutCancel(ctx), s.store, sessionKey(key), sess, ttl); err != nil {
		s.log.Warn("session restore failed", "error", err)
	}
}

func (s *integrationService) sessionMiss(err error) error {
	if !errors.Is(err, statestore.ErrMiss) {
		s.log.Error("session read failed", "error", err)
	}
	return ErrSessionInvalid
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func (s *integrationService) AvailableAccounts(ctx context.Context, key, user string) (*AvailableAccounts, error) {
	sess, err := s.loadSession(ctx, key, user)
	if err != nil {
		return nil, err
	}
	out := &AvailableAccounts{
		Platform:     sess.Platform,
		AdAccounts:   make([]AccountOption, 0, len(sess.AdAccounts)),
		AuthorizedBy: orDefault(sess.AuthUserName, "Unknown"),
	}
	for i, a := range sess.AdAccounts {
		out.AdAccounts = append(out.AdAccounts, AccountOption{
			Index:       i,
			ID:          a.ID,
			AccountID:   a.AccountID,
			Name:        orDefault(a.Name, "Unknown"),
			Currency:    orDefault(a.Currency, "N/A"),
			Timezone:    orDefault(a.Timezone, "N/A"),
			Status:      orDefault(a.AccountStatus, "N/A"),
			AmountSpent: a.AmountSpent,
			Balance:     a.Balance,
		})
	}
	out.AccountCount = len(out.AdAccounts)
	return out, nil
}

func (s *integrationService) SelectAccount(ctx context.Context, key string, index int, user string) (_ *types.Integration, err error) {
	sess, err := s.takeSession(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.releaseSession(ctx, key, sess)
		}
	}()
	if sess.User != user {
		s.log.Warn("session user mismatch", "session", key, "user", user)
		return nil, ErrSessionInvalid
	}
	if index < 0 || index >= len(sess.AdAccounts) {
		return nil, fmt.Errorf("%w: invalid account selection", ErrInvalidArgument)
	}
	acct := sess.AdAccounts[index]

	pages := sess.Pages
	if client, err := s.access.provider(sess.Platform); err == nil {
		fresh, err := client.Pages(ctx, sess.UserAccessToken)
		switch {
		case err != nil:
			s.log.Warn("page refresh failed, using pages from session", "platform", sess.Platform, "error", err)
		case len(fresh) > 0:
			pages = fresh
		}
	}

	sealed, err := s.box.Seal(sess.UserAccessToken)
	if err != nil {
		return nil, err
	}
	linked := make([]types.LinkedPage, 0, len(pages))
	igActor := ""
	for _, p := range pages {
		pageTok, err := s.box.Seal(p.AccessToken)
		if err != nil {
			return nil, err
		}
		if igActor == "" {
			igActor = p.InstagramBusinessAccountID
		}
		linked = append(linked, types.LinkedPage{
			PageID:          p.ID,
			PageName:        p.Name,
			PageAccessToken: pageTok,
			FollowerCount:   p.FanCount,
			Image:           p.PictureURL,
		})
	}

	now := s.now().UTC()
	expiresIn := sess.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = LongLivedTokenTTL
	}
	expiry := now.Add(time.Duration(expiresIn) * time.Second)

	var (
		out     *types.Integration
		created bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		in, err := s.repos.Integrations.UpsertByAccount(dbc, sess.Platform, acct.ID, func(in *types.Integration) error {
			created = in.ID == uuid.Nil
			in.AdID = acct.AccountID
			in.AccountName = orDefault(sess.AccountName, acct.Name)
			if sess.AccountDescription != "" {
				in.AccountDescription = sess.AccountDescription
			}
			if sess.Organization != "" {
				in.Organization = sess.Organization
			}
			if sess.User != "" {
				in.OwnerUserID = sess.User
			}
			in.ConnectionStatus = types.StatusConnected
			in.Enabled = true
			in.LastError = ""
			in.LastErrorTime = nil
			in.DisconnectedAt = nil
			in.AuthorizationDate = ptrTime(now)
			in.AccessToken = sealed
			in.TokenExpiry = ptrTime(expiry)
			in.AuthorizedUserID = sess.AuthUserID
			in.AuthorizedUserName = sess.AuthUserName
			if sess.AuthUserEmail != "" {
				in.AuthorizedUserEmail = sess.AuthUserEmail
			}
			if acct.Currency != "" {
				in.Currency = acct.Currency
			}
			if acct.Timezone != "" {
				in.Timezone = acct.Timezone
			}
			if acct.AccountStatus != "" {
				in.AccountStatus = acct.AccountStatus
			}
			in.AmountSpent = acct.AmountSpent
			in.Balance = acct.Balance
			if igActor != "" {
				in.InstagramBusinessAccountID = igActor
			}
			return in.Validate(now)
		})
		if err != nil {
			return err
		}
		pages, err := s.repos.Integrations.ReplacePages(dbc, in.ID, linked)
		if err != nil {
			return err
		}
		in.Pages = pages
		out = in
		return nil
	})
	if err != nil {
		if errors.Is(err, ads.ErrInvalidAccountID) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return nil, fmt.Errorf("save integration: %w", err)
	}

	action := "updated"
	if created {
		action = "created"
	}
	s.log.Info("integration "+action, "integration_id", out.ID, "platform", out.Platform, "ad_account_id", out.AdAccountID)

	if out.AutoSync && s.syncAsync != nil {
		s.syncAsync(out.ID)
	}
	out.ClearSecrets()
	return out, nil
}

// backgroundSync runs a campaign sync detached from the request that
// triggered it.
func (s *integrationService) backgroundSync(id uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("auto sync panicked", "integration_id", id, "panic", r)
			}
		}()
		res, err := s.SyncCampaigns(ctx, id, "")
		if err != nil {
			s.log.Warn("auto sync failed", "integration_id", id, "error", err)
			return
		}
		s.log.Info("auto sync finished", "integration_id", id, "synced", res.CampaignsSynced)
	}()
}

func (s *integrationService) Get(ctx context.Context, id uuid.UUID, user string) (*types.Integration, error) {
	in, err := s.access.load(dbctx.Background(ctx), id, user)
	if err != nil {
		return nil, err
	}
	in.ClearSecrets()
	return in, nil
}

func (s *integrationService) Disconnect(ctx context.Context, id uuid.UUID, user string) error {
	dbc := dbctx.Background(ctx)
	in, err := s.access.load(dbc, id, user)
	if err != nil {
		return err
	}
	if in.ConnectionStatus == types.StatusNotConnected && !in.Enabled && in.AccessToken == "" {
		return nil
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		if err := s.repos.Integrations.UpdateFields(txc, in.ID, map[string]any{
			"connection_status": types.StatusNotConnected,
			"access_token":      "",
			"refresh_token":     "",
			"enabled":           false,
			"disconnected_at":   s.now().UTC(),
		}); err != nil {
			return err
		}
		return s.repos.Integrations.ClearPageTokens(txc, in.ID)
	})
	if err != nil {
		return fmt.Errorf("disconnect integration: %w", err)
	}
	s.log.Info("integration disconnected", "integration_id", in.ID, "user", user)
	return nil
}

func (s *integrationService) ValidateCredentials(ctx context.Context, id uuid.UUID, user string) (*ValidationResult, error) {
	dbc := dbctx.Background(ctx)
	in, err := s.access.load(dbc, id, user)
	if err != nil {
		return nil, err
	}
	if !in.Enabled || in.AccessToken == "" {
		return &ValidationResult{Success: false, Message: "Integration is not active or has no access token"}, nil
	}

	now := s.now().UTC()
	if in.TokenExpired(now) && in.ConnectionStatus != types.StatusExpired {
		if err := s.repos.Integrations.UpdateFields(dbc, in.ID, map[string]any{"connection_status": types.StatusExpired}); err != nil {
			return nil, err
		}
	}

	client, err := s.access.provider(in.Platform)
	if err != nil {
		return nil, err
	}
	cred, err := s.access.credentials(in)
	if err != nil {
		return nil, err
	}
	info, err := client.FetchAccount(ctx, cred)
	if err != nil {
		err = classifyRemote(err)
		msg := userMessage(err)
		if uerr := s.repos.Integrations.UpdateFields(dbc, in.ID, map[string]any{
			"connection_status": types.StatusError,
			"last_error":        msg,
			"last_error_time":   now,
		}); uerr != nil {
			s.log.Error("failed to record validation error", "integration_id", in.ID, "error", uerr)
		}
		s.log.Warn("credential validation failed", "integration_id", in.ID, "error", err)
		return &ValidationResult{Success: false, Message: msg, AccountName: in.AccountName}, nil
	}

	name := orDefault(info.Name, in.AccountName)
	if err := s.repos.Integrations.UpdateFields(dbc, in.ID, map[string]any{
		"connection_status": types.StatusConnected,
		"account_name":      name,
		"account_status":    info.AccountStatus,
		"last_error":        "",
	}); err != nil {
		return nil, err
	}
	return &ValidationResult{Success: true, Message: "Connection successful", AccountName: name}, nil
}

func (s *integrationService) SyncCampaigns(ctx context.Context, id uuid.UUID, user string) (*SyncResult, error) {
	dbc := dbctx.Background(ctx)
	in, err := s.access.load(dbc, id, user)
	if err != nil {
		return nil, err
	}
	if in.ConnectionStatus != types.StatusConnected || in.AccessToken == "" {
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

	now := s.now().UTC()
	remote, err := client.ListCampaigns(ctx, cred)
	if err != nil {
		err = classifyRemote(err)
		msg := userMessage(err)
		if uerr := s.repos.Integrations.UpdateFields(dbc, in.ID, map[string]any{
			"sync_status":     "Error",
			"last_error":      msg,
			"last_error_time": now,
		}); uerr != nil {
			s.log.Error("failed to record sync error", "integration_id", in.ID, "error", uerr)
		}
		return &SyncResult{Success: false, ErrorMessage: msg}, nil
	}

	res := &SyncResult{Success: true}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		for _, rc := range remote {
			if rc.ID == "" {
				continue
			}
			mapped := ads.MapRemoteCampaignStatus(rc.Status)
			existing, err := s.repos.Campaigns.GetByRemoteID(txc, in.ID, rc.ID)
			switch {
			case err == nil:
				existing.Name = orDefault(rc.Name, existing.Name)
				existing.Objective = orDefault(rc.Objective, existing.Objective)
				existing.RemoteStatus = mapped
				existing.CreatedTime = rc.CreatedTime
				existing.UpdatedTime = rc.UpdatedTime
				if err := s.repos.Campaigns.Update(txc, existing); err != nil {
					return err
				}
				res.Updated++
			case errors.Is(err, repos.ErrNotFound):
				status := types.CampaignDraft
				if mapped == ads.RemoteActive {
					status = types.CampaignActive
				}
				c := &types.Campaign{
					IntegrationID: in.ID,
					Name:          orDefault(rc.Name, "Campaign "+rc.ID),
					Objective:     rc.Objective,
					Enabled:       mapped == ads.RemoteActive,
					Status:        status,
					RemoteID:      rc.ID,
					RemoteStatus:  mapped,
					CreatedTime:   rc.CreatedTime,
					UpdatedTime:   rc.UpdatedTime,
				}
				if err := s.repos.Campaigns.Create(txc, c); err != nil {
					return err
				}
				res.Created++
			default:
				return err
			}
		}
		return s.repos.Integrations.UpdateFields(txc, in.ID, map[string]any{
			"last_synced": now,
			"sync_status": "Success",
			"last_error":  "",
		})
	})
	if err != nil {
		return nil, fmt.Errorf("sync campaigns: %w", err)
	}
	res.CampaignsSynced = res.Created + res.Updated
	res.Message = fmt.Sprintf("Synced %d campaigns", res.CampaignsSynced)
	s.log.Info("campaigns synced", "integration_id", in.ID, "created", res.Created, "updated", res.Updated)
	return res, nil
}

func (s *integrationService) ListPages(ctx context.Context, id uuid.UUID, query, user string) ([]PageOption, error) {
	in, err := s.access.load(dbctx.Background(ctx), id, user)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]PageOption, 0, len(in.Pages))
	for _, p := range in.Pages {
		label := p.Label()
		if q != "" && !strings.Contains(strings.ToLower(label), q) {
			continue
		}
		out = append(out, PageOption{PageID: p.PageID, Label: label})
	}
	return out, nil
}

func (s *integrationService) RefreshAccountInfo(ctx context.Context, id uuid.UUID, user string) (*types.Integration, error) {
	dbc := dbctx.Background(ctx)
	in, err := s.access.load(dbc, id, user)
	if err != nil {
		return nil, err
	}
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
	info, err := client.FetchAccount(ctx, cred)
	if err != nil {
		return nil, classifyRemote(err)
	}
	fields := map[string]any{
		"amount_spent": info.AmountSpent,
		"balance":      info.Balance,
	}
	if info.Name != "" {
		fields["account_name"] = info.Name
	}
	if info.Currency != "" {
		fields["currency"] = info.Currency
	}
	if info.Timezone != "" {
		fields["timezone"] = info.Timezone
	}
	if info.AccountStatus != "" {
		fields["account_status"] = info.AccountStatus
	}
	if err := s.repos.Integrations.UpdateFields(dbc, in.ID, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id, user)
}
