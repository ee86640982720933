package meta

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
)

var ErrNotConfigured = adprovider.ErrNotConfigured

func (c *Client) oauthConfig(platform ads.Platform, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.AppID,
		ClientSecret: c.cfg.AppSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes(platform),
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.cfg.DialogBaseURL + "/" + c.cfg.APIVersion + "/dialog/oauth",
			TokenURL:  c.baseURL + "/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthURL builds the login dialog URL for platform.
func (c *Client) AuthURL(platform ads.Platform, redirectURI, state string) (string, error) {
	if strings.TrimSpace(c.cfg.AppID) == "" {
		return "", ErrNotConfigured
	}
	return c.oauthConfig(platform, redirectURI).AuthCodeURL(state), nil
}

// ExchangeCode trades an authorization code for a short-lived user token.
func (c *Client) ExchangeCode(ctx context.Context, redirectURI, code string) (adprovider.TokenResult, error) {
	if !c.Configured() {
		return adprovider.TokenResult{}, ErrNotConfigured
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauthConfig(ads.PlatformFacebook, redirectURI).Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			status := 0
			if re.Response != nil {
				status = re.Response.StatusCode
			}
			if ge := parseGraphError(re.Body); ge != nil {
				ge.Status = status
				return adprovider.TokenResult{}, ge
			}
			return adprovider.TokenResult{}, &HTTPError{StatusCode: status, Body: string(re.Body)}
		}
		return adprovider.TokenResult{}, fmt.Errorf("exchange code: %w", err)
	}
	return adprovider.TokenResult{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   extraInt64(tok.Extra("expires_in")),
	}, nil
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   flexInt64 `json:"expires_in"`
}

// ExchangeLongLived swaps a user token for a long-lived one. The result
// carries the fallback lifetime when the endpoint omits expires_in.
func (c *Client) ExchangeLongLived(ctx context.Context, shortToken string) (adprovider.TokenResult, error) {
	if !c.Configured() {
		return adprovider.TokenResult{}, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", c.cfg.AppID)
	q.Set("client_secret", c.cfg.AppSecret)
	q.Set("fb_exchange_token", shortToken)

	var resp tokenResponse
	if err := c.get(ctx, "oauth/access_token", "", q, &resp); err != nil {
		return adprovider.TokenResult{}, err
	}
	expiresIn := int64(resp.ExpiresIn)
	if expiresIn <= 0 {
		expiresIn = LongLivedTokenTTL
	}
	return adprovider.TokenResult{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   expiresIn,
	}, nil
}

// RefreshToken re-exchanges the current long-lived token.
func (c *Client) RefreshToken(ctx context.Context, accessToken string) (adprovider.TokenResult, error) {
	res, err := c.ExchangeLongLived(ctx, accessToken)
	if err != nil {
		return res, err
	}
	if res.AccessToken == "" {
		return res, fmt.Errorf("token refresh returned no access token")
	}
	return res, nil
}

func (c *Client) Me(ctx context.Context, token string) (adprovider.UserProfile, error) {
	var resp struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	q := url.Values{"fields": {"id,name,email"}}
	if err := c.get(ctx, "me", token, q, &resp); err != nil {
		return adprovider.UserProfile{}, err
	}
	return adprovider.UserProfile{ID: resp.ID, Name: resp.Name, Email: resp.Email}, nil
}

type pageNode struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AccessToken string    `json:"access_token"`
	FanCount    flexInt64 `json:"fan_count"`
	Picture     struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
	InstagramBusinessAccount struct {
		ID string `json:"id"`
	} `json:"instagram_business_account"`
}

// Pages lists the pages the user manages, with their page tokens.
func (c *Client) Pages(ctx context.Context, token string) ([]adprovider.Page, error) {
	q := url.Values{
		"fields": {"id,name,access_token,picture{url},fan_count,instagram_business_account"},
		"limit":  {"100"},
	}
	var out []adprovider.Page
	err := c.paginate(ctx, "me/accounts", token, q, func(raw []byte) error {
		var page struct {
			Data []pageNode `json:"data"`
		}
		if err := unmarshal(raw, &page); err != nil {
			return err
		}
		for _, n := range page.Data {
			pic := n.Picture.Data.URL
			if pic == "" {
				pic = c.pictureURL(n.ID)
			}
			out = append(out, adprovider.Page{
				ID:                         n.ID,
				Name:                       n.Name,
				AccessToken:                n.AccessToken,
				FanCount:                   int64(n.FanCount),
				PictureURL:                 pic,
				InstagramBusinessAccountID: n.InstagramBusinessAccount.ID,
			})
		}
		return nil
	})
	return out, err
}

func (c *Client) pictureURL(pageID string) string {
	return fmt.Sprintf("%s/%s/picture?type=square&height=100&width=100", c.cfg.GraphBaseURL, pageID)
}

type adAccountNode struct {
	ID            string      `json:"id"`
	AccountID     string      `json:"account_id"`
	Name          string      `json:"name"`
	Currency      string      `json:"currency"`
	TimezoneName  string      `json:"timezone_name"`
	AccountStatus flexString  `json:"account_status"`
	AmountSpent   flexFloat64 `json:"amount_spent"`
	Balance       flexFloat64 `json:"balance"`
}

func (n adAccountNode) info() adprovider.AccountInfo {
	id := n.ID
	if id == "" && n.AccountID != "" {
		id = "act_" + n.AccountID
	}
	return adprovider.AccountInfo{
		ID:            id,
		AccountID:     n.AccountID,
		Name:          n.Name,
		Currency:      n.Currency,
		Timezone:      n.TimezoneName,
		AccountStatus: accountStatusLabel(string(n.AccountStatus)),
		AmountSpent:   minorToMajor(float64(n.AmountSpent)),
		Balance:       minorToMajor(float64(n.Balance)),
	}
}

// AdAccounts lists the ad accounts the user can manage.
func (c *Client) AdAccounts(ctx context.Context, token string) ([]adprovider.AccountInfo, error) {
	q := url.Values{
		"fields": {"id,name,account_status,currency,timezone_name,amount_spent,balance,account_id"},
		"limit":  {"100"},
	}
	var resp struct {
		Data []adAccountNode `json:"data"`
	}
	if err := c.get(ctx, "me/adaccounts", token, q, &resp); err != nil {
		return nil, err
	}
	out := make([]adprovider.AccountInfo, 0, len(resp.Data))
	for _, n := range resp.Data {
		out = append(out, n.info())
	}
	return out, nil
}

var accountStatusLabels = map[string]string{
	"1":   "ACTIVE",
	"2":   "DISABLED",
	"3":   "UNSETTLED",
	"7":   "PENDING_RISK_REVIEW",
	"8":   "PENDING_SETTLEMENT",
	"9":   "IN_GRACE_PERIOD",
	"100": "PENDING_CLOSURE",
	"101": "CLOSED",
	"201": "ANY_ACTIVE",
	"202": "ANY_CLOSED",
}

func accountStatusLabel(raw string) string {
	if v, ok := accountStatusLabels[strings.TrimSpace(raw)]; ok {
		return v
	}
	return raw
}

func minorToMajor(v float64) float64 {
	return ads.FromMinorUnits(int64(math.Round(v)))
}

func extraInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n
	default:
		return 0
	}
}
