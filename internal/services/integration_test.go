package services

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos/testutil"
	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/statestore"
)

func putSession(t *testing.T, env *testEnv, platform types.Platform, ids ...string) string {
	t.Helper()
	key, err := randomToken()
	require.NoError(t, err)
	sess := OAuthSession{
		Platform:        platform,
		User:            "user-1",
		UserAccessToken: "long-token",
		ExpiresIn:       3600,
		Pages:           env.client.pages,
		AdAccounts:      accounts(ids...),
		AuthUserID:      "u-100",
		AuthUserName:    "Pat Doe",
	}
	require.NoError(t, statestore.SetJSON(t.Context(), env.store, sessionKey(key), sess, time.Minute))
	return key
}

func countIntegrations(t *testing.T, env *testEnv) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(&types.Integration{}).Count(&n).Error)
	return n
}

func TestSelectAccountReconnectUpdatesSameRow(t *testing.T) {
	env := newTestEnv(t, Settings{})

	first, err := env.integrations.SelectAccount(t.Context(), putSession(t, env, types.PlatformFacebook, "act_7"), 0, "user-1")
	require.NoError(t, err)
	assert.Empty(t, first.AccessToken, "secrets are cleared on returned rows")

	require.NoError(t, env.integrations.Disconnect(t.Context(), first.ID, "user-1"))

	env.client.pages = []adprovider.Page{
		{ID: "p2", Name: "Second", AccessToken: "t2"},
		{ID: "p2", Name: "Second dup", AccessToken: "t2"},
		{ID: "p3", Name: "Third", AccessToken: "t3"},
	}
	second, err := env.integrations.SelectAccount(t.Context(), putSession(t, env, types.PlatformFacebook, "act_7"), 0, "user-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 1, countIntegrations(t, env))
	assert.Equal(t, types.StatusConnected, second.ConnectionStatus)
	assert.True(t, second.Enabled)
	assert.Nil(t, second.DisconnectedAt)

	got, err := env.rs.Integrations.GetByID(testDBC(t), first.ID)
	require.NoError(t, err)
	require.Len(t, got.Pages, 2)
	assert.Equal(t, "p2", got.Pages[0].PageID)
	assert.Equal(t, "p3", got.Pages[1].PageID)
}

func TestSelectAccountPlatformsAreDistinct(t *testing.T) {
	env := newTestEnv(t, Settings{})

	fb, err := env.integrations.SelectAccount(t.Context(), putSession(t, env, types.PlatformFacebook, "act_7"), 0, "user-1")
	require.NoError(t, err)
	ig, err := env.integrations.SelectAccount(t.Context(), putSession(t, env, types.PlatformInstagram, "act_7"), 0, "user-1")
	require.NoError(t, err)

	assert.NotEqual(t, fb.ID, ig.ID)
	assert.EqualValues(t, 2, countIntegrations(t, env))
}

func TestSelectAccountValidatesSession(t *testing.T) {
	env := newTestEnv(t, Settings{})
	key := putSession(t, env, types.PlatformFacebook, "act_1", "act_2")

	_, err := env.integrations.SelectAccount(t.Context(), "short", 0, "user-1")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	_, err = env.integrations.SelectAccount(t.Context(), key, 0, "user-2")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	_, err = env.integrations.SelectAccount(t.Context(), key, 2, "user-1")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	in, err := env.integrations.SelectAccount(t.Context(), key, 1, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "act_2", in.AdAccountID)

	// The session is consumed by a successful selection.
	_, err = env.integrations.SelectAccount(t.Context(), key, 0, "user-1")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSelectAccountConcurrentCallsConsumeSessionOnce(t *testing.T) {
	env := newTestEnv(t, Settings{})
	key := putSession(t, env, types.PlatformFacebook, "act_1", "act_2")

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	env.client.onPages = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	type result struct {
		in  *types.Integration
		err error
	}
	first := make(chan result, 1)
	go func() {
		in, err := env.integrations.SelectAccount(t.Context(), key, 0, "user-1")
		first <- result{in: in, err: err}
	}()

	<-entered
	_, err := env.integrations.SelectAccount(t.Context(), key, 1, "user-1")
	assert.ErrorIs(t, err, ErrSessionInvalid)
	close(release)

	r := <-first
	require.NoError(t, r.err)
	assert.Equal(t, "act_1", r.in.AdAccountID)
	assert.EqualValues(t, 1, countIntegrations(t, env))
	assert.Empty(t, env.store.Keys())
}

func TestSelectAccountRejectionKeepsSessionLifetime(t *testing.T) {
	env := newTestEnv(t, Settings{})
	key := putSession(t, env, types.PlatformFacebook, "act_1")
	var sess OAuthSession
	require.NoError(t, statestore.GetJSON(t.Context(), env.store, sessionKey(key), &sess))
	sess.ExpiresAt = time.Now().Add(90 * time.Second)
	require.NoError(t, statestore.SetJSON(t.Context(), env.store, sessionKey(key), sess, time.Minute))

	_, err := env.integrations.SelectAccount(t.Context(), key, 5, "user-1")
	require.ErrorIs(t, err, ErrInvalidArgument)

	ttl := env.store.TTL(sessionKey(key))
	assert.Greater(t, ttl, time.Minute)
	assert.LessOrEqual(t, ttl, 90*time.Second)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	env := newTestEnv(t, Settings{})
	in := testutil.SeedIntegration(t, t.Context(), env.db, types.PlatformFacebook, "act_1")
	testutil.SeedPage(t, t.Context(), env.db, in.ID, "p9", "Page")
	require.NoError(t, env.rs.Integrations.SetPageToken(testDBC(t), in.ID, "p9", "secret"))

	require.NoError(t, env.integrations.Disconnect(t.Context(), in.ID, "user-1"))
	got, err := env.rs.Integrations.GetByID(testDBC(t), in.ID)
	require.NoError(t, err)
	firstDisconnect := got.DisconnectedAt

	assert.Equal(t, types.StatusNotConnected, got.ConnectionStatus)
	assert.False(t, got.Enabled)
	assert.Empty(t, got.AccessToken)
	require.NotNil(t, firstDisconnect)
	require.Len(t, got.Pages, 1)
	assert.Empty(t, got.Pages[0].PageAccessToken)

	require.NoError(t, env.integrations.Disconnect(t.Context(), in.ID, "user-1"))
	again, err := env.rs.Integrations.GetByID(testDBC(t), in.ID)
	require.NoError(t, err)
	assert.True(t, firstDisconnect.Equal(*again.DisconnectedAt))
}

func TestDisconnectRequiresOwner(t *testing.T) {
	env := newTestEnv(t, Settings{})
	in := testutil.SeedIntegration(t, t.Context(), env.db, types.PlatformFacebook, "act_1")

	assert.ErrorIs(t, env.integrations.Disconnect(t.Context(), in.ID, "intruder"), ErrForbidden)

	got, err := env.rs.Integrations.GetByID(testDBC(t), in.ID)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
}

func TestValidateCredentials(t *testing.T) {
	t.Run("inactive makes no remote call", func(t *testing.T) {
		env := newTestEnv(t, Settings{})
		in := testutil.SeedIntegration(t, t.Context(), env.db, types.PlatformFacebook, "act_1")
		require.NoError(t, env.rs.Integrations.UpdateFields(testDBC(t), in.ID, map[string]any{"enabled": false}))

		res, err := env.integrations.ValidateCredentials(t.Context(), in.ID, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Integration is not active or has no access token", res.Message)
		assert.Zero(t, env.client.total())
	})

	t.Run("remote failure marks error", func(t *testing.T) {
		env := newTestEnv(t, Settings{})
		env.client.accountErr = &remoteErr{msg: "Invalid OAuth access token."}
		in := testutil.SeedIntegration(t, t.Context(), env.db, types.PlatformFacebook, "act_1")

		res, err := env.integrations.ValidateCredentials(t.Context(), in.ID, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Invalid OAuth access token.", res.Message)

		got, err := env.rs.Integrations.GetByID(testDBC(t), in.ID)
		require.NoError(t, err)
		assert.Equal(t, types.StatusError, got.ConnectionStatus)
		assert.Equal(t, "Invalid OAuth access token.", got.LastError)
	})

	t.Run("success refreshes name", func(t *testing.T) {
		env := newTestEnv(t, Settings{})
		env.client.account = adprovider.AccountInfo{Name: "Renamed", AccountStatus: "1"}
		in := testutil.SeedIntegration(t, t.Context(), env.db, types.PlatformFacebook, "act_1")

		res, err := env.integrations.ValidateCredentials(t.Context(), in.ID, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "Connection successful", res.Message)
		assert.Equal(t, "Renamed", res.AccountName)
	})
}

func TestSyncCampaignsUpsertsByRemoteID(t *testing.T) {
	env := newTestEnv(t, Settings{})
	in := testutil.SeedIntegration(t, t.Context(), env.db, types.PlatformFacebook, "act_1")
	env.client.campaigns = []adprovider.RemoteCampaign{
		{ID: "c1", Name: "Spring", Status: "ACTIVE", Objective: "OUTCOME_TRAFFIC"},
		{ID: "c2", Name: "Old", Status: "ARCHIVED"},
	}

	res, err := env.integrations.SyncCampaigns(t.Context(), in.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.CampaignsSynced)

	env.client.campaigns[0].Status = "PAUSED"
	res, err = env.integrations.SyncCampaigns(t.Context(), in.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Updated)

	c1, err := env.rs.Campaigns.GetByRemoteID(testDBC(t), in.ID, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Paused", c1.RemoteStatus)

	got, err := env.rs.Integrations.GetByID(testDBC(t), in.ID)
	require.NoError(t, err)
	assert.Equal(t, "Success", got.SyncStatus)
	assert.NotNil(t, got.LastSynced)
}

func TestSyncCampaignsRequiresConnection(t *testing.T) {
	env := newTestEnv(t, Settings{})
	in := testutil.SeedIntegration(t, t.Context(), env.db, types.PlatformFacebook, "act_1")
	require.NoError(t, env.integrations.Disconnect(t.Context(), in.ID, "user-1"))

	_, err := env.integrations.SyncCampaigns(t.Context(), in.ID, "user-1")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, env.client.count("ListCampaigns"))
}

func TestListPagesFiltersLabels(t *testing.T) {
	env := newTestEnv(t, Settings{})
	in := testutil.SeedIntegration(t, t.Context(), env.db, types.PlatformFacebook, "act_1")
	testutil.SeedPage(t, t.Context(), env.db, in.ID, "111", "Coffee (Downtown)")
	testutil.SeedPage(t, t.Context(), env.db, in.ID, "222", "Bakery")
	testutil.SeedPage(t, t.Context(), env.db, in.ID, "333", "")

	all, err := env.integrations.ListPages(t.Context(), in.ID, "", "user-1")
	require.NoError(t, err)
	require.Len(t, all, 3)

	got, err := env.integrations.ListPages(t.Context(), in.ID, "DOWNTOWN", "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "111", got[0].PageID)
	assert.Equal(t, "Coffee (Downtown) (111)", got[0].Label)

	unnamed, err := env.integrations.ListPages(t.Context(), in.ID, "unnamed", "user-1")
	require.NoError(t, err)
	require.Len(t, unnamed, 1)
	assert.True(t, strings.HasSuffix(unnamed[0].Label, "(333)"))
}
