package meta

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

func TestAuthURL(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	raw, err := c.AuthURL(ads.PlatformFacebook, "https://app.example.com/api/oauth/callback/facebook", "state-123")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "www.facebook.com", u.Host)
	assert.Equal(t, "/v21.0/dialog/oauth", u.Path)

	q := u.Query()
	assert.Equal(t, "app-1", q.Get("client_id"))
	assert.Equal(t, "https://app.example.com/api/oauth/callback/facebook", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Contains(t, q.Get("scope"), "ads_management")
	assert.NotContains(t, q.Get("scope"), "instagram_basic")

	raw, err = c.AuthURL(ads.PlatformInstagram, "https://x/cb", "s")
	require.NoError(t, err)
	assert.Contains(t, raw, "instagram_basic")
}

func TestAuthURLRequiresAppID(t *testing.T) {
	c, err := NewClient(logger.Nop(), Config{})
	require.NoError(t, err)
	_, err = c.AuthURL(ads.PlatformFacebook, "https://x/cb", "s")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestExchangeCode(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v21.0/oauth/access_token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		assert.Equal(t, "app-1", r.Form.Get("client_id"))
		assert.Equal(t, "secret-1", r.Form.Get("client_secret"))
		assert.Equal(t, "https://x/cb", r.Form.Get("redirect_uri"))
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "short", "token_type": "bearer", "expires_in": 3600})
	}))

	tok, err := c.ExchangeCode(t.Context(), "https://x/cb", "the-code")
	require.NoError(t, err)
	assert.Equal(t, "short", tok.AccessToken)
	assert.Equal(t, int64(3600), tok.ExpiresIn)
}

func TestExchangeCodeRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": "This authorization code has been used.", "type": "OAuthException", "code": 100},
		})
	}))

	_, err := c.ExchangeCode(t.Context(), "https://x/cb", "used")
	require.Error(t, err)
	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, 100, ge.Code)
}

func TestExchangeLongLivedFallsBackToSixtyDays(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "fb_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "short", q.Get("fb_exchange_token"))
		assert.Empty(t, q.Get("access_token"))
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "long"})
	}))

	tok, err := c.ExchangeLongLived(t.Context(), "short")
	require.NoError(t, err)
	assert.Equal(t, "long", tok.AccessToken)
	assert.Equal(t, LongLivedTokenTTL, tok.ExpiresIn)
}

func TestPagesAndAdAccounts(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v21.0/me/accounts":
			assert.True(t, strings.Contains(r.URL.Query().Get("fields"), "access_token"))
			writeJSON(w, http.StatusOK, map[string]any{"data": []any{
				map[string]any{"id": "p1", "name": "Shop (EU)", "access_token": "pt1", "fan_count": 12,
					"picture": map[string]any{"data": map[string]any{"url": "https://cdn/p1.png"}}},
				map[string]any{"id": "p2", "name": "Blog", "fan_count": "3",
					"instagram_business_account": map[string]any{"id": "ig-9"}},
			}})
		case "/v21.0/me/adaccounts":
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			writeJSON(w, http.StatusOK, map[string]any{"data": []any{
				map[string]any{"id": "act_1", "account_id": "1", "name": "Main", "currency": "USD",
					"timezone_name": "UTC", "account_status": 1, "amount_spent": "12550", "balance": "0"},
			}})
		default:
			http.NotFound(w, r)
		}
	}))

	pages, err := c.Pages(t.Context(), "tok")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "https://cdn/p1.png", pages[0].PictureURL)
	assert.Equal(t, int64(12), pages[0].FanCount)
	assert.Contains(t, pages[1].PictureURL, "/p2/picture?type=square")
	assert.Equal(t, "ig-9", pages[1].InstagramBusinessAccountID)

	accounts, err := c.AdAccounts(t.Context(), "tok")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "act_1", accounts[0].ID)
	assert.Equal(t, "ACTIVE", accounts[0].AccountStatus)
	assert.Equal(t, 125.5, accounts[0].AmountSpent)
}
