package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos"
	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/media"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/secretbox"
)

type LaunchResult struct {
	Campaign        *types.Campaign `json:"campaign"`
	AdSetsPublished int             `json:"ad_sets_published"`
	AdsPublished    int             `json:"ads_published"`
	Failures        []string        `json:"failures,omitempty"`
}

type PublicationService interface {
	CreateCampaign(ctx context.Context, id uuid.UUID, user string) (*types.Campaign, error)
	CreateAdSet(ctx context.Context, id uuid.UUID, user string) (*types.AdSet, error)
	UploadMedia(ctx context.Context, creativeID uuid.UUID, user string) (*types.Creative, error)
	CreateCreative(ctx context.Context, id uuid.UUID, user string) (*types.Creative, error)
	CreateAd(ctx context.Context, id uuid.UUID, user string) (*types.Ad, error)
	// PublishAdPost runs media upload, creative and ad for one ad. Stages
	// already published are skipped; the first failure stops the chain.
	PublishAdPost(ctx context.Context, adID uuid.UUID, user string) (*types.Ad, error)
	TransitionCampaign(ctx context.Context, id uuid.UUID, to types.CampaignStatus, user string) (*types.Campaign, error)
	CancelCampaign(ctx context.Context, id uuid.UUID, user string) (*types.Campaign, error)
	LaunchCampaign(ctx context.Context, id uuid.UUID, user string) (*LaunchResult, error)
}

type publicationService struct {
	log      *logger.Logger
	repos    repos.Set
	access   accountAccess
	box      *secretbox.Box
	media    media.Store
	settings Settings
	now      func() time.Time
}

func NewPublicationService(
	log *logger.Logger,
	rs repos.Set,
	providers *adprovider.Registry,
	box *secretbox.Box,
	mediaStore media.Store,
	settings Settings,
) PublicationService {
	return &publicationService{
		log:      log.With("service", "PublicationService"),
		repos:    rs,
		access:   accountAccess{integrations: rs.Integrations, providers: providers, box: box},
		box:      box,
		media:    mediaStore,
		settings: settings.withDefaults(),
		now:      time.Now,
	}
}

func notFoundAs(err error) error {
	if errors.Is(err, repos.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// publishTarget is an active integration ready for remote calls.
type publishTarget struct {
	in     *types.Integration
	client adprovider.Client
	cred   adprovider.Credentials
}

func (s *publicationService) target(dbc dbctx.Context, integrationID uuid.UUID, user string) (*publishTarget, error) {
	in, err := s.access.load(dbc, integrationID, user)
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
	return &publishTarget{in: in, client: client, cred: cred}, nil
}

// remoteFailure classifies a failed publish call. Requests the provider
// refused to build are the caller's fault.
func remoteFailure(err error) error {
	if errors.Is(err, adprovider.ErrInvalidRequest) {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return classifyRemote(err)
}

func (s *publicationService) CreateCampaign(ctx context.Context, id uuid.UUID, user string) (*types.Campaign, error) {
	dbc := dbctx.Background(ctx)
	c, err := s.repos.Campaigns.GetByID(dbc, id)
	if err != nil {
		return nil, notFoundAs(err)
	}
	if _, err := s.access.load(dbc, c.IntegrationID, user); err != nil {
		return nil, err
	}
	if err := s.publishCampaign(dbc, c); err != nil {
		return c, err
	}
	return c, nil
}

func (s *publicationService) publishCampaign(dbc dbctx.Context, c *types.Campaign) error {
	if c.RemoteID != "" {
		return nil
	}
	if c.IntegrationID == uuid.Nil || strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Objective) == "" {
		return fmt.Errorf("%w: campaign name and objective are required", ErrInvalidArgument)
	}
	if c.OwnsBudget() {
		if _, err := ads.BudgetMinorUnits(c.DailyBudget); err != nil {
			return err
		}
	}
	t, err := s.target(dbc, c.IntegrationID, "")
	if err != nil {
		return err
	}

	remoteID, err := t.client.CreateCampaign(dbc.Ctx, t.cred, adprovider.CampaignRequest{
		Name:              c.Name,
		Objective:         c.Objective,
		SpecialAdCategory: c.SpecialAdCategory,
		Enabled:           c.Enabled,
		DailyBudget:       c.DailyBudget,
		BudgetSharing:     c.BudgetSharing,
		StartTime:         c.StartTime,
		EndTime:           c.EndTime,
	})
	if err != nil {
		err = remoteFailure(err)
		msg := userMessage(err)
		c.LastError = msg
		if uerr := s.repos.Campaigns.UpdateFields(dbc, c.ID, map[string]any{"last_error": msg}); uerr != nil {
			s.log.Error("failed to record campaign error", "campaign_id", c.ID, "error", uerr)
		}
		s.log.Warn("campaign publish failed", "campaign_id", c.ID, "error", err)
		return err
	}

	c.RemoteID = remoteID
	c.LastError = ""
	if err := s.repos.Campaigns.UpdateFields(dbc, c.ID, map[string]any{"remote_id": remoteID, "last_error": ""}); err != nil {
		return err
	}
	s.log.Info("campaign published", "campaign_id", c.ID, "remote_id", remoteID)
	return nil
}

func (s *publicationService) CreateAdSet(ctx context.Context, id uuid.UUID, user string) (*types.AdSet, error) {
	dbc := dbctx.Background(ctx)
	set, err := s.repos.AdSets.GetByID(dbc, id)
	if err != nil {
		return nil, notFoundAs(err)
	}
	c, err := s.repos.Campaigns.GetByID(dbc, set.CampaignID)
	if err != nil {
		return nil, notFoundAs(err)
	}
	if _, err := s.access.load(dbc, c.IntegrationID, user); err != nil {
		return nil, err
	}
	if err := s.publishAdSet(dbc, c, set); err != nil {
		return set, err
	}
	return set, nil
}

func (s *publicationService) publishAdSet(dbc dbctx.Context, c *types.Campaign, set *types.AdSet) error {
	if set.RemoteID != "" {
		return nil
	}
	if c.RemoteID == "" {
		return fmt.Errorf("%w: parent campaign has not been created remotely", ErrParentMissing)
	}
	if !c.OwnsBudget() {
		if _, err := ads.BudgetMinorUnits(set.DailyBudget); err != nil {
			return err
		}
	}
	t, err := s.target(dbc, c.IntegrationID, "")
	if err != nil {
		return err
	}

	remoteID, err := t.client.CreateAdSet(dbc.Ctx, t.cred, adprovider.AdSetRequest{
		Name:             set.Name,
		CampaignRemoteID: c.RemoteID,
		CampaignBudget:   c.OwnsBudget(),
		DailyBudget:      set.DailyBudget,
		BidAmount:        set.BidAmount,
		BillingEvent:     set.BillingEvent,
		PerformanceGoal:  set.PerformanceGoal,
		GeoCountry:       set.GeoCountry,
		AgeMin:           set.AgeMin,
		AgeMax:           set.AgeMax,
		Gender:           set.Gender,
	})
	if err != nil {
		err = remoteFailure(err)
		msg := userMessage(err)
		set.LastError = msg
		if uerr := s.repos.AdSets.Update(dbc, set); uerr != nil {
			s.log.Error("failed to record ad set error", "ad_set_id", set.ID, "error", uerr)
		}
		return err
	}

	set.RemoteID = remoteID
	set.Status = ads.AdStatusPaused
	set.LastError = ""
	if err := s.repos.AdSets.Update(dbc, set); err != nil {
		return err
	}
	s.log.Info("ad set published", "ad_set_id", set.ID, "remote_id", remoteID)
	return nil
}

func (s *publicationService) loadCreative(dbc dbctx.Context, id uuid.UUID, user string) (*types.Creative, *publishTarget, error) {
	cr, err := s.repos.Creatives.GetByID(dbc, id)
	if err != nil {
		return nil, nil, notFoundAs(err)
	}
	if _, err := s.access.load(dbc, cr.IntegrationID, user); err != nil {
		return nil, nil, err
	}
	t, err := s.target(dbc, cr.IntegrationID, "")
	if err != nil {
		return cr, nil, err
	}
	return cr, t, nil
}

func (s *publicationService) UploadMedia(ctx context.Context, creativeID uuid.UUID, user string) (*types.Creative, error) {
	dbc := dbctx.Background(ctx)
	cr, t, err := s.loadCreative(dbc, creativeID, user)
	if err != nil {
		return cr, err
	}
	if err := s.uploadMedia(dbc, cr, t); err != nil {
		return cr, err
	}
	return cr, nil
}

func (s *publicationService) uploadMedia(dbc dbctx.Context, cr *types.Creative, t *publishTarget) error {
	for i := range cr.Media {
		m := &cr.Media[i]
		if m.MediaHash != "" {
			continue
		}
		hash, size, err := s.uploadOne(dbc.Ctx, t, m.MediaRef)
		if err != nil {
			err = remoteFailure(err)
			s.recordCreativeError(dbc, cr, userMessage(err))
			return err
		}
		m.MediaHash = hash
		m.FileSize = size
		m.Uploaded = true
		if err := s.repos.Creatives.UpdateMedia(dbc, m); err != nil {
			return err
		}
		s.log.Info("media uploaded", "creative_id", cr.ID, "position", m.Position)
	}
	return nil
}

func (s *publicationService) uploadOne(ctx context.Context, t *publishTarget, ref string) (string, int64, error) {
	obj, err := s.media.Open(ctx, ref)
	if err != nil {
		return "", 0, err
	}
	defer obj.Body.Close()
	hash, err := t.client.UploadMedia(ctx, t.cred, adprovider.MediaUpload{Filename: obj.Name, Body: obj.Body})
	if err != nil {
		return "", 0, err
	}
	return hash, obj.Size, nil
}

func (s *publicationService) recordCreativeError(dbc dbctx.Context, cr *types.Creative, msg string) {
	cr.LastError = msg
	if err := s.repos.Creatives.Update(dbc, cr); err != nil {
		s.log.Error("failed to record creative error", "creative_id", cr.ID, "error", err)
	}
}

func (s *publicationService) CreateCreative(ctx context.Context, id uuid.UUID, user string) (*types.Creative, error) {
	dbc := dbctx.Background(ctx)
	cr, err := s.repos.Creatives.GetByID(dbc, id)
	if err != nil {
		return nil, notFoundAs(err)
	}
	if _, err := s.access.load(dbc, cr.IntegrationID, user); err != nil {
		return nil, err
	}
	if err := s.publishCreative(dbc, cr); err != nil {
		return cr, err
	}
	return cr, nil
}

func (s *publicationService) publishCreative(dbc dbctx.Context, cr *types.Creative) error {
	if cr.RemoteID != "" {
		return nil
	}
	if strings.TrimSpace(cr.Name) == "" {
		return fmt.Errorf("%w: creative name is required", ErrInvalidArgument)
	}
	if len(cr.Media) == 0 {
		return fmt.Errorf("%w: creative needs at least one media file", ErrInvalidArgument)
	}
	pageID, err := cr.ResolvePageID()
	if err != nil {
		if cr.PageID == "" && strings.TrimSpace(cr.PageLabel) == "" {
			return ErrNoPage
		}
		return err
	}

	t, err := s.target(dbc, cr.IntegrationID, "")
	if err != nil {
		return err
	}
	igActor := ""
	if t.in.Platform == types.PlatformInstagram {
		igActor = t.in.InstagramBusinessAccountID
		if igActor == "" {
			return fmt.Errorf("%w: no Instagram business account is linked to this integration", ErrInvalidArgument)
		}
	}

	if err := s.uploadMedia(dbc, cr, t); err != nil {
		return err
	}
	hash := cr.PrimaryImageHash()
	if hash == "" {
		return ErrNoImage
	}

	cred := t.cred
	if pageTok := s.pageToken(dbc, t, pageID); pageTok != "" {
		cred.AccessToken = pageTok
	}

	remoteID, err := t.client.CreateCreative(dbc.Ctx, cred, adprovider.CreativeRequest{
		Name:             cr.Name,
		PageID:           pageID,
		ImageHash:        hash,
		Message:          cr.Message,
		Link:             cr.Link,
		Caption:          cr.Caption,
		Description:      cr.Description,
		CallToAction:     cr.CallToAction,
		InstagramActorID: igActor,
	})
	if err != nil {
		err = remoteFailure(err)
		msg := userMessage(err)
		s.recordCreativeError(dbc, cr, msg)
		return err
	}

	cr.RemoteID = remoteID
	cr.PageID = pageID
	cr.LastError = ""
	if err := s.repos.Creatives.Update(dbc, cr); err != nil {
		return err
	}
	s.log.Info("creative published", "creative_id", cr.ID, "remote_id", remoteID)
	return nil
}

// pageToken returns the page's access token, fetching and caching it on
// first use. It returns "" when none can be obtained.
func (s *publicationService) pageToken(dbc dbctx.Context, t *publishTarget, pageID string) string {
	page, linked := t.in.PageByID(pageID)
	if linked && page.PageAccessToken != "" {
		tok, err := s.box.Open(page.PageAccessToken)
		if err == nil && tok != "" {
			return tok
		}
		s.log.Warn("cached page token unreadable", "page_id", pageID, "error", err)
	}

	tok, err := t.client.FetchPageToken(dbc.Ctx, t.cred.AccessToken, pageID)
	if err != nil || tok == "" {
		s.log.Warn("page token unavailable, using user token", "page_id", pageID, "error", err)
		return ""
	}
	if linked {
		sealed, err := s.box.Seal(tok)
		if err == nil {
			err = s.repos.Integrations.SetPageToken(dbc, t.in.ID, pageID, sealed)
		}
		if err != nil {
			s.log.Warn("failed to cache page token", "page_id", pageID, "error", err)
		}
	}
	return tok
}

func (s *publicationService) CreateAd(ctx context.Context, id uuid.UUID, user string) (*types.Ad, error) {
	dbc := dbctx.Background(ctx)
	ad, err := s.repos.Ads.GetByID(dbc, id)
	if err != nil {
		return nil, notFoundAs(err)
	}
	if _, err := s.access.load(dbc, ad.IntegrationID, user); err != nil {
		return nil, err
	}
	if err := s.publishAd(dbc, ad); err != nil {
		return ad, err
	}
	return ad, nil
}

func (s *publicationService) publishAd(dbc dbctx.Context, ad *types.Ad) error {
	if ad.RemoteID != "" {
		return nil
	}
	set, err := s.repos.AdSets.GetByID(dbc, ad.AdSetID)
	if err != nil {
		return notFoundAs(err)
	}
	cr, err := s.repos.Creatives.GetByID(dbc, ad.CreativeID)
	if err != nil {
		return notFoundAs(err)
	}
	parent, err := s.repos.Campaigns.GetByID(dbc, set.CampaignID)
	if err != nil {
		return notFoundAs(err)
	}
	if parent.IntegrationID != ad.IntegrationID {
		return fmt.Errorf("%w: ad set belongs to another integration", ErrInvalidArgument)
	}
	if cr.IntegrationID != ad.IntegrationID {
		return fmt.Errorf("%w: creative belongs to another integration", ErrInvalidArgument)
	}
	if set.RemoteID == "" {
		return fmt.Errorf("%w: ad set has not been created remotely", ErrParentMissing)
	}
	if cr.RemoteID == "" {
		return fmt.Errorf("%w: creative has not been created remotely", ErrParentMissing)
	}
	t, err := s.target(dbc, ad.IntegrationID, "")
	if err != nil {
		return err
	}

	remoteID, err := t.client.CreateAd(dbc.Ctx, t.cred, adprovider.AdRequest{
		Name:              ad.RemoteName(),
		AdSetRemoteID:     set.RemoteID,
		CreativeRemoteID:  cr.RemoteID,
		PartnershipPageID: ad.PartnershipPageID,
		InstagramHandle:   ad.PartnershipInstagramHandle,
	})
	if err != nil {
		err = remoteFailure(err)
		msg := userMessage(err)
		ad.LastError = msg
		if uerr := s.repos.Ads.Update(dbc, ad); uerr != nil {
			s.log.Error("failed to record ad error", "ad_id", ad.ID, "error", uerr)
		}
		return err
	}

	ad.RemoteID = remoteID
	ad.LastError = ""
	if err := s.repos.Ads.Update(dbc, ad); err != nil {
		return err
	}
	s.log.Info("ad published", "ad_id", ad.ID, "remote_id", remoteID, "status", ad.Status)
	return nil
}

func (s *publicationService) PublishAdPost(ctx context.Context, adID uuid.UUID, user string) (*types.Ad, error) {
	dbc := dbctx.Background(ctx)
	ad, err := s.repos.Ads.GetByID(dbc, adID)
	if err != nil {
		return nil, notFoundAs(err)
	}
	if _, err := s.access.load(dbc, ad.IntegrationID, user); err != nil {
		return nil, err
	}
	if err := s.publishAdPost(dbc, ad); err != nil {
		return ad, err
	}
	return ad, nil
}

func (s *publicationService) publishAdPost(dbc dbctx.Context, ad *types.Ad) error {
	if ad.RemoteID != "" {
		return nil
	}
	cr, err := s.repos.Creatives.GetByID(dbc, ad.CreativeID)
	if err != nil {
		return notFoundAs(err)
	}
	if err := s.publishCreative(dbc, cr); err != nil {
		return err
	}
	return s.publishAd(dbc, ad)
}

func (s *publicationService) loadCampaign(dbc dbctx.Context, id uuid.UUID, user string) (*types.Campaign, *types.Integration, error) {
	c, err := s.repos.Campaigns.GetByID(dbc, id)
	if err != nil {
		return nil, nil, notFoundAs(err)
	}
	in, err := s.access.load(dbc, c.IntegrationID, user)
	if err != nil {
		return nil, nil, err
	}
	return c, in, nil
}

func (s *publicationService) TransitionCampaign(ctx context.Context, id uuid.UUID, to types.CampaignStatus, user string) (*types.Campaign, error) {
	dbc := dbctx.Background(ctx)
	c, _, err := s.loadCampaign(dbc, id, user)
	if err != nil {
		return nil, err
	}
	if err := s.transition(dbc, c, to); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *publicationService) transition(dbc dbctx.Context, c *types.Campaign, to types.CampaignStatus) error {
	from := c.Status
	if err := c.TransitionTo(to); err != nil {
		return err
	}
	ok, err := s.repos.Campaigns.CompareAndSetStatus(dbc, c.ID, from, to)
	if err != nil {
		c.Status = from
		return err
	}
	if !ok {
		c.Status = from
		return fmt.Errorf("%w: campaign status changed concurrently", ads.ErrInvalidTransition)
	}
	s.log.Info("campaign status changed", "campaign_id", c.ID, "from", from, "to", to)
	return nil
}

func (s *publicationService) CancelCampaign(ctx context.Context, id uuid.UUID, user string) (*types.Campaign, error) {
	return s.TransitionCampaign(ctx, id, types.CampaignCancelled, user)
}

func (s *publicationService) LaunchCampaign(ctx context.Context, id uuid.UUID, user string) (_ *LaunchResult, err error) {
	dbc := dbctx.Background(ctx)
	c, in, err := s.loadCampaign(dbc, id, user)
	if err != nil {
		return nil, err
	}
	if c.Status != types.CampaignScheduled {
		return nil, fmt.Errorf("%w: campaign is %s, not Scheduled", ads.ErrInvalidTransition, c.Status)
	}
	if !in.Active() {
		return nil, ErrNotConnected
	}

	now := s.now().UTC()
	day := ads.DayKey(now)
	launched, err := s.repos.LaunchCounters.Count(dbc, in.Platform, day)
	if err != nil {
		return nil, err
	}
	if launched >= s.settings.dailyLimit(in.Platform) {
		return nil, ErrLimitReached
	}

	if err := s.transition(dbc, c, types.CampaignLaunching); err != nil {
		return nil, err
	}

	// Status writes from here on must land even when ctx is cancelled, or
	// the campaign would be left in Launching.
	final := dbctx.Background(context.WithoutCancel(ctx))
	defer func() {
		if err != nil && c.Status == types.CampaignLaunching {
			s.abortLaunch(final, c, err)
		}
	}()

	res := &LaunchResult{Campaign: c}
	if perr := s.publishCampaign(dbc, c); perr != nil {
		res.Failures = append(res.Failures, "campaign: "+userMessage(perr))
		if err := s.transition(final, c, types.CampaignFailed); err != nil {
			return nil, err
		}
		return res, nil
	}

	sets, err := s.repos.AdSets.ListByCampaign(dbc, c.ID)
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		if err := s.publishAdSet(dbc, c, set); err != nil {
			res.Failures = append(res.Failures, fmt.Sprintf("ad set %s: %s", set.Name, userMessage(err)))
			continue
		}
		res.AdSetsPublished++
	}

	adList, err := s.repos.Ads.ListByCampaign(dbc, c.ID)
	if err != nil {
		return nil, err
	}
	for _, ad := range adList {
		if err := s.publishAdPost(dbc, ad); err != nil {
			res.Failures = append(res.Failures, fmt.Sprintf("ad %s: %s", ad.Name, userMessage(err)))
			continue
		}
		res.AdsPublished++
	}

	outcome := types.CampaignActive
	if len(res.Failures) > 0 {
		outcome = types.CampaignPartiallyActive
	}
	if err := s.transition(final, c, outcome); err != nil {
		return nil, err
	}
	if err := s.repos.Campaigns.UpdateFields(final, c.ID, map[string]any{"launched_at": now}); err != nil {
		s.log.Error("failed to record launch time", "campaign_id", c.ID, "error", err)
	} else {
		c.LaunchedAt = ptrTime(now)
	}
	if err := s.repos.LaunchCounters.Increment(final, in.Platform, day); err != nil {
		s.log.Error("failed to count launch", "platform", in.Platform, "error", err)
	}
	s.log.Info("campaign launched", "campaign_id", c.ID, "outcome", outcome, "failures", len(res.Failures))
	return res, nil
}

// abortLaunch moves a campaign stuck in Launching to Failed and records why.
func (s *publicationService) abortLaunch(dbc dbctx.Context, c *types.Campaign, cause error) {
	msg := userMessage(cause)
	if err := s.repos.Campaigns.UpdateFields(dbc, c.ID, map[string]any{"last_error": msg}); err != nil {
		s.log.Error("failed to record launch error", "campaign_id", c.ID, "error", err)
	} else {
		c.LastError = msg
	}
	if err := s.transition(dbc, c, types.CampaignFailed); err != nil {
		s.log.Error("failed to fail aborted launch", "campaign_id", c.ID, "error", err)
		return
	}
	s.log.Warn("campaign launch aborted", "campaign_id", c.ID, "error", cause)
}
