package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos/testutil"
	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/media"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/secretbox"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/statestore"
)

// remoteErr mimics an application error returned by the ads platform.
type remoteErr struct{ msg string }

func (e *remoteErr) Error() string         { return "graph: " + e.msg }
func (e *remoteErr) RemoteMessage() string { return e.msg }

// unavailableErr mimics a 503 from the ads platform.
type unavailableErr struct{}

func (unavailableErr) Error() string       { return "service unavailable" }
func (unavailableErr) HTTPStatusCode() int { return 503 }

type fakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	short    adprovider.TokenResult
	shortErr error
	long     adprovider.TokenResult
	longErr  error
	me       adprovider.UserProfile
	pages    []adprovider.Page
	accounts []adprovider.AccountInfo

	account    adprovider.AccountInfo
	accountErr error
	campaigns  []adprovider.RemoteCampaign
	insights   []adprovider.InsightRow
	refreshFn  func(token string) (adprovider.TokenResult, error)
	pageToken  string
	createErr  map[string]error
	onPages    func()
	onCreate   func(kind string)

	lastAdSet         adprovider.AdSetRequest
	lastCreative      adprovider.CreativeRequest
	lastCreativeToken string
	uploaded          map[string]string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		calls:     map[string]int{},
		createErr: map[string]error{},
		uploaded:  map[string]string{},
		short:     adprovider.TokenResult{AccessToken: "short-token", ExpiresIn: 3600},
		long:      adprovider.TokenResult{AccessToken: "long-token", ExpiresIn: 5184000},
		me:        adprovider.UserProfile{ID: "u-100", Name: "Pat Doe", Email: "pat@example.com"},
		pages: []adprovider.Page{
			{ID: "p1", Name: "Main Page", AccessToken: "page-token-p1", FanCount: 10},
		},
		pageToken: "fetched-page-token",
	}
}

func (f *fakeClient) hit(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.calls[name]
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeClient) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.calls {
		n += v
	}
	return n
}

func (f *fakeClient) create(kind string) (string, error) {
	n := f.hit(kind)
	if f.onCreate != nil {
		f.onCreate(kind)
	}
	f.mu.Lock()
	err := f.createErr[kind]
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%d", kind, n), nil
}

func (f *fakeClient) AuthURL(_ types.Platform, redirectURI, state string) (string, error) {
	return "https://www.facebook.com/v21.0/dialog/oauth?redirect_uri=" + redirectURI + "&state=" + state, nil
}

func (f *fakeClient) ExchangeCode(context.Context, string, string) (adprovider.TokenResult, error) {
	f.hit("ExchangeCode")
	return f.short, f.shortErr
}

func (f *fakeClient) ExchangeLongLived(context.Context, string) (adprovider.TokenResult, error) {
	f.hit("ExchangeLongLived")
	return f.long, f.longErr
}

func (f *fakeClient) Me(context.Context, string) (adprovider.UserProfile, error) {
	f.hit("Me")
	return f.me, nil
}

func (f *fakeClient) Pages(context.Context, string) ([]adprovider.Page, error) {
	f.hit("Pages")
	if f.onPages != nil {
		f.onPages()
	}
	return f.pages, nil
}

func (f *fakeClient) AdAccounts(context.Context, string) ([]adprovider.AccountInfo, error) {
	f.hit("AdAccounts")
	return f.accounts, nil
}

func (f *fakeClient) CreateCampaign(context.Context, adprovider.Credentials, adprovider.CampaignRequest) (string, error) {
	return f.create("campaign")
}

func (f *fakeClient) CreateAdSet(_ context.Context, _ adprovider.Credentials, req adprovider.AdSetRequest) (string, error) {
	f.mu.Lock()
	f.lastAdSet = req
	f.mu.Unlock()
	return f.create("adset")
}

func (f *fakeClient) UploadMedia(_ context.Context, _ adprovider.Credentials, up adprovider.MediaUpload) (string, error) {
	hash, err := f.create("upload")
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(up.Body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.uploaded[up.Filename] = string(body)
	f.mu.Unlock()
	return hash, nil
}

func (f *fakeClient) CreateCreative(_ context.Context, cred adprovider.Credentials, req adprovider.CreativeRequest) (string, error) {
	f.mu.Lock()
	f.lastCreative = req
	f.lastCreativeToken = cred.AccessToken
	f.mu.Unlock()
	return f.create("creative")
}

func (f *fakeClient) CreateAd(context.Context, adprovider.Credentials, adprovider.AdRequest) (string, error) {
	return f.create("ad")
}

func (f *fakeClient) FetchAccountInsights(context.Context, adprovider.Credentials) ([]adprovider.InsightRow, error) {
	f.hit("FetchAccountInsights")
	return f.insights, nil
}

func (f *fakeClient) RefreshToken(_ context.Context, token string) (adprovider.TokenResult, error) {
	f.hit("RefreshToken")
	if f.refreshFn != nil {
		return f.refreshFn(token)
	}
	return adprovider.TokenResult{AccessToken: "refreshed-" + token, ExpiresIn: 3600}, nil
}

func (f *fakeClient) FetchAccount(context.Context, adprovider.Credentials) (adprovider.AccountInfo, error) {
	f.hit("FetchAccount")
	return f.account, f.accountErr
}

func (f *fakeClient) ListCampaigns(context.Context, adprovider.Credentials) ([]adprovider.RemoteCampaign, error) {
	f.hit("ListCampaigns")
	return f.campaigns, nil
}

func (f *fakeClient) FetchPageToken(context.Context, string, string) (string, error) {
	f.hit("FetchPageToken")
	return f.pageToken, nil
}

func testDBC(t *testing.T) dbctx.Context { return testutil.DBC(t.Context()) }

// memMedia serves media references from memory.
type memMedia map[string]string

func (m memMedia) Open(_ context.Context, ref string) (*media.Object, error) {
	body, ok := m[ref]
	if !ok {
		return nil, media.ErrNotFound
	}
	return &media.Object{
		Name: path.Base(ref),
		Size: int64(len(body)),
		Body: io.NopCloser(strings.NewReader(body)),
	}, nil
}

type testEnv struct {
	db     *gorm.DB
	rs     repos.Set
	store  *statestore.Memory
	client *fakeClient
	box    *secretbox.Box
	media  memMedia

	integrations *integrationService
	oauth        *oauthService
	publication  *publicationService
	tokens       *tokenService
	analytics    *analyticsService
}

func newTestEnv(t *testing.T, settings Settings) *testEnv {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	rs := repos.NewSet(db, log)
	store := statestore.NewMemory()
	client := newFakeClient()
	providers := adprovider.NewRegistry()
	providers.Register(types.PlatformFacebook, client)
	providers.Register(types.PlatformInstagram, client)
	box := secretbox.New("test-encryption-key")
	mm := memMedia{"creatives/a.jpg": "jpeg-bytes", "creatives/clip.mp4": "mp4-bytes"}

	if settings.PublicBaseURL == "" {
		settings.PublicBaseURL = "https://api.example.com"
	}
	if settings.FrontendBaseURL == "" {
		settings.FrontendBaseURL = "https://app.example.com"
	}

	integrations := NewIntegrationService(db, log, store, rs, providers, box, settings).(*integrationService)
	integrations.syncAsync = nil
	return &testEnv{
		db:           db,
		rs:           rs,
		store:        store,
		client:       client,
		box:          box,
		media:        mm,
		integrations: integrations,
		oauth:        NewOAuthService(log, store, providers, integrations, settings).(*oauthService),
		publication:  NewPublicationService(log, rs, providers, box, mm, settings).(*publicationService),
		tokens:       NewTokenService(log, rs.Integrations, providers, box).(*tokenService),
		analytics:    NewAnalyticsService(log, rs, providers, box).(*analyticsService),
	}
}

func accounts(ids ...string) []adprovider.AccountInfo {
	out := make([]adprovider.AccountInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, adprovider.AccountInfo{
			ID:        id,
			AccountID: strings.TrimPrefix(id, "act_"),
			Name:      "Account " + id,
			Currency:  "USD",
		})
	}
	return out
}
