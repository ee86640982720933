package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/httpx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/statestore"
)

const (
	stateKeyPrefix   = "oauth_state_"
	sessionKeyPrefix = "oauth_session_"

	MaxAccountNameLength = 140
	// Fallback lifetime of a long-lived user token, in seconds.
	LongLivedTokenTTL int64 = 5184000

	msgStateInvalid     = "OAuth state expired or invalid"
	msgTokenFailed      = "Failed to obtain access token"
	msgProfileFailed    = "Failed to fetch user profile"
	msgNoPages          = "No Pages Found"
	msgNoAdAccounts     = "No ad accounts found for this user"
	msgAutoConnect      = "Failed to connect account automatically"
	msgNetwork          = "Network error. Please try again."
	msgUnexpected       = "An unexpected error occurred. Please try again."
	integrationListPath = "/app/ads-account-integration"
	accountSelectPath   = "/select-ads-account"
)

// OAuthState is the single-use record written by Initiate and consumed by
// the callback.
type OAuthState struct {
	Platform           types.Platform `json:"platform"`
	User               string         `json:"user"`
	AccountName        string         `json:"account_name,omitempty"`
	AccountDescription string         `json:"account_description,omitempty"`
	Organization       string         `json:"organization,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}

// OAuthSession holds what the callback learned until the user picks an ad
// account.
type OAuthSession struct {
	Platform           types.Platform           `json:"platform"`
	User               string                   `json:"user"`
	UserAccessToken    string                   `json:"user_access_token"`
	ExpiresIn          int64                    `json:"expires_in"`
	Pages              []adprovider.Page        `json:"pages"`
	AdAccounts         []adprovider.AccountInfo `json:"ad_accounts"`
	AuthUserID         string                   `json:"auth_user_id"`
	AuthUserName       string                   `json:"auth_user_name"`
	AuthUserEmail      string                   `json:"auth_user_email,omitempty"`
	AccountName        string                   `json:"account_name,omitempty"`
	AccountDescription string                   `json:"account_description,omitempty"`
	Organization       string                   `json:"organization,omitempty"`
	ExpiresAt          time.Time                `json:"expires_at"`
}

type InitiateInput struct {
	Platform           string `json:"platform"`
	AccountName        string `json:"account_name"`
	AccountDescription string `json:"account_description"`
	Organization       string `json:"organization"`
}

type InitiateResult struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
	ExpiresIn        int    `json:"expires_in"`
}

type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

type OAuthService interface {
	Initiate(ctx context.Context, in InitiateInput, user string) (*InitiateResult, error)
	// HandleCallback finishes the authorization and returns the location the
	// browser should be redirected to. It never returns raw error text.
	HandleCallback(ctx context.Context, platform string, p CallbackParams) string
}

type oauthService struct {
	log          *logger.Logger
	store        statestore.Store
	providers    *adprovider.Registry
	integrations IntegrationService
	settings     Settings
	now          func() time.Time
}

func NewOAuthService(
	log *logger.Logger,
	store statestore.Store,
	providers *adprovider.Registry,
	integrations IntegrationService,
	settings Settings,
) OAuthService {
	return &oauthService{
		log:          log.With("service", "OAuthService"),
		store:        store,
		providers:    providers,
		integrations: integrations,
		settings:     settings.withDefaults(),
		now:          time.Now,
	}
}

func stateKey(token string) string   { return stateKeyPrefix + token }
func sessionKey(token string) string { return sessionKeyPrefix + token }

// randomToken returns 32 random bytes as unpadded base64url (43 chars).
func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CallbackURL is the redirect URI registered with the platform.
func (s *oauthService) CallbackURL(p types.Platform) string {
	return s.settings.PublicBaseURL + "/api/oauth/callback/" + p.Slug()
}

func (s *oauthService) Initiate(ctx context.Context, in InitiateInput, user string) (*InitiateResult, error) {
	platform, err := ads.ParsePlatform(in.Platform)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.AccountName)
	if utf8.RuneCountInString(name) > MaxAccountNameLength {
		return nil, fmt.Errorf("%w: account_name exceeds %d characters", ErrInvalidArgument, MaxAccountNameLength)
	}
	client, err := s.providers.Get(platform)
	if err != nil {
		return nil, ErrNotConfigured
	}

	token, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	authURL, err := client.AuthURL(platform, s.CallbackURL(platform), token)
	if err != nil {
		if errors.Is(err, adprovider.ErrNotConfigured) {
			return nil, ErrNotConfigured
		}
		return nil, err
	}

	st := OAuthState{
		Platform:           platform,
		User:               user,
		AccountName:        name,
		AccountDescription: strings.TrimSpace(in.AccountDescription),
		Organization:       strings.TrimSpace(in.Organization),
		CreatedAt:          s.now().UTC(),
	}
	if err := statestore.SetJSON(ctx, s.store, stateKey(token), st, s.settings.StateTTL); err != nil {
		return nil, fmt.Errorf("store oauth state: %w", err)
	}

	s.log.Info("oauth initiated", "platform", platform, "user", user)
	return &InitiateResult{
		AuthorizationURL: authURL,
		State:            token,
		ExpiresIn:        int(s.settings.StateTTL / time.Second),
	}, nil
}

// callbackFailure is a step failure with its user-facing message.
type callbackFailure struct {
	msg string
	err error
}

func (f *callbackFailure) Error() string {
	if f.err == nil {
		return f.msg
	}
	return f.msg + ": " + f.err.Error()
}

func (f *callbackFailure) Unwrap() error { return f.err }

func fail(msg string, err error) error { return &callbackFailure{msg: msg, err: err} }

func (s *oauthService) HandleCallback(ctx context.Context, rawPlatform string, p CallbackParams) string {
	platform, platformErr := ads.ParsePlatform(rawPlatform)

	if p.Error != "" {
		if p.State != "" {
			if err := s.store.Delete(ctx, stateKey(p.State)); err != nil {
				s.log.Warn("oauth state cleanup failed", "error", err)
			}
		}
		label := rawPlatform
		if platformErr == nil {
			label = string(platform)
		}
		s.log.Warn("oauth provider returned error", "platform", label, "provider_error", p.Error, "description", p.ErrorDescription)
		return s.errorRedirect(fmt.Sprintf("%s: %s", label, p.Error))
	}

	var st OAuthState
	if p.State == "" {
		return s.errorRedirect(msgStateInvalid)
	}
	if err := statestore.TakeJSON(ctx, s.store, stateKey(p.State), &st); err != nil {
		if !errors.Is(err, statestore.ErrMiss) {
			s.log.Error("oauth state read failed", "error", err)
		}
		return s.errorRedirect(msgStateInvalid)
	}
	if platformErr != nil || st.Platform != platform {
		s.log.Warn("oauth state platform mismatch", "expected", st.Platform, "got", rawPlatform)
		return s.errorRedirect(msgStateInvalid)
	}
	if strings.TrimSpace(p.Code) == "" {
		return s.errorRedirect(msgTokenFailed)
	}

	loc, err := s.complete(ctx, platform, st, p.Code)
	if err == nil {
		return loc
	}

	var cf *callbackFailure
	switch {
	case httpx.IsTransportError(err):
		s.log.Error("network error during oauth callback", "platform", platform, "error", err)
		return s.errorRedirect(msgNetwork)
	case errors.As(err, &cf):
		s.log.Warn("oauth callback step failed", "platform", platform, "step", cf.msg, "error", cf.err)
		return s.errorRedirect(cf.msg)
	default:
		s.log.Error("unexpected error in oauth callback", "platform", platform, "error", err)
		return s.errorRedirect(msgUnexpected)
	}
}

// complete runs the five remote calls in order and parks the result in a
// session.
func (s *oauthService) complete(ctx context.Context, platform types.Platform, st OAuthState, code string) (string, error) {
	client, err := s.providers.Get(platform)
	if err != nil {
		return "", err
	}

	short, err := client.ExchangeCode(ctx, s.CallbackURL(platform), code)
	if err != nil || short.AccessToken == "" {
		return "", fail(msgTokenFailed, err)
	}

	userToken := short.AccessToken
	expiresIn := LongLivedTokenTTL
	long, err := client.ExchangeLongLived(ctx, short.AccessToken)
	switch {
	case err != nil && httpx.IsTransportError(err):
		return "", err
	case err != nil || long.AccessToken == "":
		s.log.Warn("long-lived token exchange failed, continuing with short-lived token", "platform", platform, "error", err)
		if short.ExpiresIn > 0 {
			expiresIn = short.ExpiresIn
		}
	default:
		userToken = long.AccessToken
		if long.ExpiresIn > 0 {
			expiresIn = long.ExpiresIn
		}
	}

	me, err := client.Me(ctx, userToken)
	if err != nil || me.ID == "" {
		return "", fail(msgProfileFailed, err)
	}

	pages, err := client.Pages(ctx, userToken)
	if err != nil && httpx.IsTransportError(err) {
		return "", err
	}
	if len(pages) == 0 {
		return "", fail(msgNoPages, err)
	}

	accounts, err := client.AdAccounts(ctx, userToken)
	if err != nil && httpx.IsTransportError(err) {
		return "", err
	}
	if len(accounts) == 0 {
		return "", fail(msgNoAdAccounts, err)
	}

	key, err := randomToken()
	if err != nil {
		return "", err
	}
	sess := OAuthSession{
		Platform:           platform,
		User:               st.User,
		UserAccessToken:    userToken,
		ExpiresIn:          expiresIn,
		Pages:              pages,
		AdAccounts:         accounts,
		AuthUserID:         me.ID,
		AuthUserName:       me.Name,
		AuthUserEmail:      me.Email,
		AccountName:        st.AccountName,
		AccountDescription: st.AccountDescription,
		Organization:       st.Organization,
		ExpiresAt:          s.now().UTC().Add(s.settings.SessionTTL),
	}
	if err := statestore.SetJSON(ctx, s.store, sessionKey(key), sess, s.settings.SessionTTL); err != nil {
		return "", err
	}

	if len(accounts) == 1 {
		in, err := s.integrations.SelectAccount(ctx, key, 0, st.User)
		if err != nil {
			return "", fail(msgAutoConnect, err)
		}
		return s.frontend(integrationListPath + "/" + in.ID.String()), nil
	}

	q := url.Values{}
	q.Set("session", key)
	q.Set("platform", string(platform))
	return s.frontend(accountSelectPath + "?" + q.Encode()), nil
}

func (s *oauthService) frontend(path string) string {
	return s.settings.FrontendBaseURL + path
}

func (s *oauthService) errorRedirect(msg string) string {
	return s.frontend(integrationListPath + "?error=" + url.QueryEscape(msg))
}
