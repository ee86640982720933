package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos/testutil"
	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
)

type campaignTree struct {
	in       *types.Integration
	campaign *types.Campaign
	adSet    *types.AdSet
	creative *types.Creative
	ad       *types.Ad
}

func seedTree(t *testing.T, env *testEnv, status types.CampaignStatus, mediaRefs ...string) campaignTree {
	t.Helper()
	if len(mediaRefs) == 0 {
		mediaRefs = []string{"creatives/a.jpg"}
	}
	ctx := t.Context()
	in := testutil.SeedIntegration(t, ctx, env.db, types.PlatformFacebook, "act_1")
	testutil.SeedPage(t, ctx, env.db, in.ID, "p1", "Main Page")
	c := testutil.SeedCampaign(t, ctx, env.db, in.ID, status)
	set := testutil.SeedAdSet(t, ctx, env.db, c.ID)
	cr := testutil.SeedCreative(t, ctx, env.db, in.ID, "Main Page (p1)", mediaRefs...)
	ad := testutil.SeedAd(t, ctx, env.db, in.ID, set.ID, cr.ID)
	return campaignTree{in: in, campaign: c, adSet: set, creative: cr, ad: ad}
}

func TestCreateCampaignIsIdempotent(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft)

	c, err := env.publication.CreateCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "campaign_1", c.RemoteID)

	c, err = env.publication.CreateCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "campaign_1", c.RemoteID)
	assert.Equal(t, 1, env.client.count("campaign"))
}

func TestCreateCampaignRecordsRemoteError(t *testing.T) {
	env := newTestEnv(t, Settings{})
	env.client.createErr["campaign"] = &remoteErr{msg: "Invalid parameter"}
	tree := seedTree(t, env, types.CampaignDraft)

	_, err := env.publication.CreateCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.ErrorIs(t, err, ErrRemote)
	assert.Equal(t, "Invalid parameter", err.Error())

	got, err := env.rs.Campaigns.GetByID(testDBC(t), tree.campaign.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RemoteID)
	assert.Equal(t, "Invalid parameter", got.LastError)
}

func TestCreateCampaignChecksOwnerAndConnection(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft)

	_, err := env.publication.CreateCampaign(t.Context(), tree.campaign.ID, "intruder")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.integrations.Disconnect(t.Context(), tree.in.ID, "user-1"))
	_, err = env.publication.CreateCampaign(t.Context(), tree.campaign.ID, "user-1")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, env.client.count("campaign"))
}

func TestCreateAdSetRequiresRemoteParent(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft)

	_, err := env.publication.CreateAdSet(t.Context(), tree.adSet.ID, "user-1")
	assert.ErrorIs(t, err, ErrParentMissing)
	assert.Zero(t, env.client.count("adset"))
}

func TestCreateAdSetBudgetFloorBeforeRemote(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft)
	_, err := env.publication.CreateCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.NoError(t, err)

	tree.adSet.DailyBudget = 9.99
	require.NoError(t, env.rs.AdSets.Update(testDBC(t), tree.adSet))

	_, err = env.publication.CreateAdSet(t.Context(), tree.adSet.ID, "user-1")
	assert.ErrorIs(t, err, ads.ErrBudgetTooLow)
	assert.Zero(t, env.client.count("adset"))

	tree.adSet.DailyBudget = 10
	require.NoError(t, env.rs.AdSets.Update(testDBC(t), tree.adSet))
	set, err := env.publication.CreateAdSet(t.Context(), tree.adSet.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "adset_1", set.RemoteID)
	assert.Equal(t, types.AdStatusPaused, set.Status)
}

func TestCreateAdSetUnderCampaignBudget(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft)
	require.NoError(t, env.rs.Campaigns.UpdateFields(testDBC(t), tree.campaign.ID, map[string]any{
		"budget_sharing": true,
		"daily_budget":   50.0,
	}))
	_, err := env.publication.CreateCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.NoError(t, err)

	tree.adSet.DailyBudget = 0
	require.NoError(t, env.rs.AdSets.Update(testDBC(t), tree.adSet))

	set, err := env.publication.CreateAdSet(t.Context(), tree.adSet.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "adset_1", set.RemoteID)
	assert.True(t, env.client.lastAdSet.CampaignBudget)
}

func TestCreateAdRequiresRemoteParents(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft)

	_, err := env.publication.CreateAd(t.Context(), tree.ad.ID, "user-1")
	assert.ErrorIs(t, err, ErrParentMissing)
	assert.Zero(t, env.client.count("ad"))
}

func TestCreateAdRejectsParentsFromOtherIntegrations(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft)
	other := testutil.SeedIntegration(t, t.Context(), env.db, types.PlatformFacebook, "act_2")
	otherCampaign := testutil.SeedCampaign(t, t.Context(), env.db, other.ID, types.CampaignDraft)
	otherSet := testutil.SeedAdSet(t, t.Context(), env.db, otherCampaign.ID)
	otherCreative := testutil.SeedCreative(t, t.Context(), env.db, other.ID, "Main Page (p1)")

	tree.ad.CreativeID = otherCreative.ID
	require.NoError(t, env.rs.Ads.Update(testDBC(t), tree.ad))
	_, err := env.publication.CreateAd(t.Context(), tree.ad.ID, "user-1")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	tree.ad.CreativeID = tree.creative.ID
	tree.ad.AdSetID = otherSet.ID
	require.NoError(t, env.rs.Ads.Update(testDBC(t), tree.ad))
	_, err = env.publication.CreateAd(t.Context(), tree.ad.ID, "user-1")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, env.client.count("ad"))
}

func TestPublishAdPostRunsChainOnce(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft)
	_, err := env.publication.CreateCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.NoError(t, err)
	_, err = env.publication.CreateAdSet(t.Context(), tree.adSet.ID, "user-1")
	require.NoError(t, err)

	ad, err := env.publication.PublishAdPost(t.Context(), tree.ad.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "ad_1", ad.RemoteID)
	assert.Equal(t, types.AdStatusPaused, ad.Status)

	assert.Equal(t, "jpeg-bytes", env.client.uploaded["a.jpg"])
	assert.Equal(t, "p1", env.client.lastCreative.PageID)
	assert.Equal(t, "upload_1", env.client.lastCreative.ImageHash)
	assert.Equal(t, "fetched-page-token", env.client.lastCreativeToken)
	assert.Empty(t, env.client.lastCreative.InstagramActorID)

	cr, err := env.rs.Creatives.GetByID(testDBC(t), tree.creative.ID)
	require.NoError(t, err)
	assert.Equal(t, "creative_1", cr.RemoteID)
	assert.Equal(t, "p1", cr.PageID)
	require.Len(t, cr.Media, 1)
	assert.True(t, cr.Media[0].Uploaded)
	assert.EqualValues(t, len("jpeg-bytes"), cr.Media[0].FileSize)

	in, err := env.rs.Integrations.GetByID(testDBC(t), tree.in.ID)
	require.NoError(t, err)
	page, ok := in.PageByID("p1")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(page.PageAccessToken, "enc:v1:"), "page token is cached sealed")

	_, err = env.publication.PublishAdPost(t.Context(), tree.ad.ID, "user-1")
	require.NoError(t, err)
	for _, kind := range []string{"upload", "creative", "ad", "FetchPageToken"} {
		assert.Equal(t, 1, env.client.count(kind), kind)
	}
}

func TestPublishAdPostStopsAtFirstFailure(t *testing.T) {
	env := newTestEnv(t, Settings{})
	env.client.createErr["creative"] = &remoteErr{msg: "Page not eligible"}
	tree := seedTree(t, env, types.CampaignDraft)
	_, err := env.publication.CreateCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.NoError(t, err)
	_, err = env.publication.CreateAdSet(t.Context(), tree.adSet.ID, "user-1")
	require.NoError(t, err)

	_, err = env.publication.PublishAdPost(t.Context(), tree.ad.ID, "user-1")
	require.ErrorIs(t, err, ErrRemote)
	assert.Zero(t, env.client.count("ad"))

	// The completed upload is kept for the retry.
	delete(env.client.createErr, "creative")
	_, err = env.publication.PublishAdPost(t.Context(), tree.ad.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, env.client.count("upload"))
}

func TestCreateCreativeNeedsImage(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft, "creatives/clip.mp4")

	_, err := env.publication.CreateCreative(t.Context(), tree.creative.ID, "user-1")
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Zero(t, env.client.count("creative"))
}

func TestCreateCreativeMissingMedia(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft, "creatives/missing.png")

	cr, err := env.publication.CreateCreative(t.Context(), tree.creative.ID, "user-1")
	require.Error(t, err)
	assert.NotEmpty(t, cr.LastError)
	assert.Zero(t, env.client.count("upload"))
}

func TestCreateCreativeInstagramNeedsBusinessAccount(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft)
	require.NoError(t, env.rs.Integrations.UpdateFields(testDBC(t), tree.in.ID, map[string]any{"platform": types.PlatformInstagram}))

	_, err := env.publication.CreateCreative(t.Context(), tree.creative.ID, "user-1")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, env.rs.Integrations.UpdateFields(testDBC(t), tree.in.ID, map[string]any{"instagram_business_account_id": "ig-9"}))
	_, err = env.publication.CreateCreative(t.Context(), tree.creative.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "ig-9", env.client.lastCreative.InstagramActorID)
}

func TestTransitionCampaign(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignDraft)

	c, err := env.publication.TransitionCampaign(t.Context(), tree.campaign.ID, types.CampaignScheduled, "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.CampaignScheduled, c.Status)

	_, err = env.publication.TransitionCampaign(t.Context(), tree.campaign.ID, types.CampaignActive, "user-1")
	assert.ErrorIs(t, err, ads.ErrInvalidTransition)

	c, err = env.publication.CancelCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.CampaignCancelled, c.Status)

	got, err := env.rs.Campaigns.GetByID(testDBC(t), tree.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CampaignCancelled, got.Status)
}

func TestLaunchCampaign(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignScheduled)

	res, err := env.publication.LaunchCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.Equal(t, types.CampaignActive, res.Campaign.Status)
	assert.Equal(t, 1, res.AdSetsPublished)
	assert.Equal(t, 1, res.AdsPublished)

	got, err := env.rs.Campaigns.GetByID(testDBC(t), tree.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CampaignActive, got.Status)
	assert.NotNil(t, got.LaunchedAt)

	n, err := env.rs.LaunchCounters.Count(testDBC(t), types.PlatformFacebook, ads.DayKey(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = env.publication.LaunchCampaign(t.Context(), tree.campaign.ID, "user-1")
	assert.ErrorIs(t, err, ads.ErrInvalidTransition)
}

func TestLaunchCampaignPartiallyActive(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignScheduled)
	tree.adSet.DailyBudget = 1
	require.NoError(t, env.rs.AdSets.Update(testDBC(t), tree.adSet))

	res, err := env.publication.LaunchCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.CampaignPartiallyActive, res.Campaign.Status)
	assert.Len(t, res.Failures, 2, "ad set and its ad both fail")
	assert.Zero(t, env.client.count("adset"))
}

func TestLaunchCampaignFailsWhenCampaignStageFails(t *testing.T) {
	env := newTestEnv(t, Settings{})
	env.client.createErr["campaign"] = unavailableErr{}
	tree := seedTree(t, env, types.CampaignScheduled)

	res, err := env.publication.LaunchCampaign(t.Context(), tree.campaign.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.CampaignFailed, res.Campaign.Status)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "Network error")

	n, err := env.rs.LaunchCounters.Count(testDBC(t), types.PlatformFacebook, ads.DayKey(time.Now()))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLaunchCampaignCancelledMidwayEndsFailed(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignScheduled)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	env.client.onCreate = func(kind string) {
		if kind == "adset" {
			cancel()
		}
	}

	_, err := env.publication.LaunchCampaign(ctx, tree.campaign.ID, "user-1")
	require.ErrorIs(t, err, context.Canceled)

	got, err := env.rs.Campaigns.GetByID(testDBC(t), tree.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CampaignFailed, got.Status)
	assert.NotEmpty(t, got.LastError)

	c, err := env.publication.TransitionCampaign(t.Context(), tree.campaign.ID, types.CampaignScheduled, "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.CampaignScheduled, c.Status)
}

func TestLaunchCampaignCancelledDuringCampaignStageIsRetryable(t *testing.T) {
	env := newTestEnv(t, Settings{})
	tree := seedTree(t, env, types.CampaignScheduled)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	env.client.onCreate = func(kind string) {
		if kind == "campaign" {
			cancel()
		}
	}

	res, err := env.publication.LaunchCampaign(ctx, tree.campaign.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.CampaignFailed, res.Campaign.Status)

	got, err := env.rs.Campaigns.GetByID(testDBC(t), tree.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CampaignFailed, got.Status)

	_, err = env.publication.TransitionCampaign(t.Context(), tree.campaign.ID, types.CampaignScheduled, "user-1")
	require.NoError(t, err)
}

func TestLaunchCampaignDailyLimit(t *testing.T) {
	env := newTestEnv(t, Settings{DailyLimits: map[types.Platform]int{types.PlatformFacebook: 1}})
	tree := seedTree(t, env, types.CampaignScheduled)
	require.NoError(t, env.rs.LaunchCounters.Increment(testDBC(t), types.PlatformFacebook, ads.DayKey(time.Now())))

	_, err := env.publication.LaunchCampaign(t.Context(), tree.campaign.ID, "user-1")
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.Zero(t, env.client.total())

	got, err := env.rs.Campaigns.GetByID(testDBC(t), tree.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CampaignScheduled, got.Status)
}
