package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
)

var _ adprovider.Client = (*Client)(nil)

func accountPath(cred adprovider.Credentials, edge string) (string, error) {
	id := strings.TrimSpace(cred.AdAccountID)
	if !strings.HasPrefix(id, "act_") {
		return "", fmt.Errorf("%w: %q", ads.ErrInvalidAccountID, id)
	}
	if edge == "" {
		return id, nil
	}
	return id + "/" + edge, nil
}

func (c *Client) createObject(ctx context.Context, path, token string, payload map[string]any, what string) (string, error) {
	var resp idResponse
	if err := c.postJSON(ctx, path, token, payload, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.ID) == "" {
		return "", fmt.Errorf("%s creation returned no id", what)
	}
	return resp.ID, nil
}

// campaignPayload builds the create-campaign body. special_ad_categories is
// always present as an array.
func campaignPayload(req adprovider.CampaignRequest) (map[string]any, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: campaign name is required", adprovider.ErrInvalidRequest)
	}
	objective, err := MapObjective(req.Objective)
	if err != nil {
		return nil, err
	}
	status := ads.AdStatusPaused
	if req.Enabled {
		status = ads.AdStatusActive
	}
	payload := map[string]any{
		"name":                            req.Name,
		"objective":                       objective,
		"status":                          status,
		"special_ad_categories":           SpecialAdCategories(req.SpecialAdCategory),
		"is_adset_budget_sharing_enabled": req.BudgetSharing,
	}
	if ads.CampaignOwnsBudget(req.BudgetSharing, req.DailyBudget) {
		minor, err := ads.BudgetMinorUnits(req.DailyBudget)
		if err != nil {
			return nil, err
		}
		payload["daily_budget"] = minor
		payload["bid_strategy"] = "LOWEST_COST_WITHOUT_CAP"
	}
	if req.StartTime != nil {
		payload["start_time"] = req.StartTime.UTC().Format(time.RFC3339)
	}
	if req.EndTime != nil {
		payload["stop_time"] = req.EndTime.UTC().Format(time.RFC3339)
	}
	return payload, nil
}

func (c *Client) CreateCampaign(ctx context.Context, cred adprovider.Credentials, req adprovider.CampaignRequest) (string, error) {
	path, err := accountPath(cred, "campaigns")
	if err != nil {
		return "", err
	}
	payload, err := campaignPayload(req)
	if err != nil {
		return "", err
	}
	return c.createObject(ctx, path, cred.AccessToken, payload, "campaign")
}

func targeting(req adprovider.AdSetRequest) map[string]any {
	t := map[string]any{}
	if geo := strings.TrimSpace(req.GeoCountry); geo != "" {
		t["geo_locations"] = map[string]any{"countries": []string{strings.ToUpper(geo)}}
	}
	if req.AgeMin > 0 || req.AgeMax > 0 {
		minAge, maxAge := req.AgeMin, req.AgeMax
		if minAge <= 0 {
			minAge = 18
		}
		if maxAge <= 0 {
			maxAge = 65
		}
		t["age_min"] = minAge
		t["age_max"] = maxAge
	}
	if code := req.Gender.Code(); code != 0 {
		t["genders"] = []int{code}
	}
	return t
}

func adSetPayload(req adprovider.AdSetRequest) (map[string]any, error) {
	if strings.TrimSpace(req.CampaignRemoteID) == "" {
		return nil, fmt.Errorf("%w: parent campaign has not been created remotely", adprovider.ErrInvalidRequest)
	}
	billing := strings.ToUpper(strings.TrimSpace(req.BillingEvent))
	if billing == "" {
		billing = "IMPRESSIONS"
	}
	payload := map[string]any{
		"name":              req.Name,
		"campaign_id":       req.CampaignRemoteID,
		"billing_event":     billing,
		"optimization_goal": OptimizationGoal(req.PerformanceGoal),
		"targeting":         targeting(req),
		// Ad sets start paused; activation is a separate human step.
		"status": ads.AdStatusPaused,
	}
	if !req.CampaignBudget {
		budget, err := ads.BudgetMinorUnits(req.DailyBudget)
		if err != nil {
			return nil, err
		}
		payload["daily_budget"] = budget
	}
	if req.BidAmount > 0 {
		bid, err := ads.ToMinorUnits(req.BidAmount)
		if err != nil {
			return nil, err
		}
		payload["bid_amount"] = bid
	}
	return payload, nil
}

func (c *Client) CreateAdSet(ctx context.Context, cred adprovider.Credentials, req adprovider.AdSetRequest) (string, error) {
	path, err := accountPath(cred, "adsets")
	if err != nil {
		return "", err
	}
	payload, err := adSetPayload(req)
	if err != nil {
		return "", err
	}
	return c.createObject(ctx, path, cred.AccessToken, payload, "ad set")
}

// UploadMedia posts an image to the account's image library and returns its
// hash.
func (c *Client) UploadMedia(ctx context.Context, cred adprovider.Credentials, upload adprovider.MediaUpload) (string, error) {
	path, err := accountPath(cred, "adimages")
	if err != nil {
		return "", err
	}
	if upload.Body == nil {
		return "", fmt.Errorf("media body is required")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("filename", filepath.Base(upload.Filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, upload.Body); err != nil {
		return "", fmt.Errorf("read media: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var resp struct {
		Images map[string]struct {
			Hash string `json:"hash"`
			URL  string `json:"url"`
		} `json:"images"`
	}
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		token:       cred.AccessToken,
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Images) == 0 {
		return "", fmt.Errorf("image upload returned no images")
	}
	keys := make([]string, 0, len(resp.Images))
	for k := range resp.Images {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	img := resp.Images[keys[0]]
	if img.Hash != "" {
		return img.Hash, nil
	}
	if img.URL != "" {
		return img.URL, nil
	}
	return "", fmt.Errorf("image upload returned no hash")
}

func storySpec(req adprovider.CreativeRequest) map[string]any {
	link := map[string]any{"image_hash": req.ImageHash}
	if req.Message != "" {
		link["message"] = req.Message
	}
	if req.Link != "" {
		link["link"] = req.Link
	}
	if req.Caption != "" {
		link["caption"] = req.Caption
	}
	if req.Description != "" {
		link["description"] = req.Description
	}
	if req.CallToAction != "" && req.Link != "" {
		link["call_to_action"] = map[string]any{
			"type":  callToActionType(req.CallToAction),
			"value": map[string]any{"link": req.Link},
		}
	}
	spec := map[string]any{
		"page_id":   req.PageID,
		"link_data": link,
	}
	if req.InstagramActorID != "" {
		spec["instagram_user_id"] = req.InstagramActorID
	}
	return spec
}

func creativePayload(req adprovider.CreativeRequest) (map[string]any, error) {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, fmt.Errorf("creative name is required")
	case strings.TrimSpace(req.PageID) == "":
		return nil, fmt.Errorf("creative page is required")
	case strings.TrimSpace(req.ImageHash) == "":
		return nil, fmt.Errorf("creative image is required")
	}
	spec, err := json.Marshal(storySpec(req))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"name":              req.Name,
		"object_story_spec": string(spec),
	}, nil
}

// CreateCreative posts the creative with cred.AccessToken, which is the page
// token when one is known.
func (c *Client) CreateCreative(ctx context.Context, cred adprovider.Credentials, req adprovider.CreativeRequest) (string, error) {
	path, err := accountPath(cred, "adcreatives")
	if err != nil {
		return "", err
	}
	payload, err := creativePayload(req)
	if err != nil {
		return "", err
	}
	return c.createObject(ctx, path, cred.AccessToken, payload, "creative")
}

func adPayload(req adprovider.AdRequest) (map[string]any, error) {
	if strings.TrimSpace(req.AdSetRemoteID) == "" {
		return nil, fmt.Errorf("parent ad set has not been created remotely")
	}
	if strings.TrimSpace(req.CreativeRemoteID) == "" {
		return nil, fmt.Errorf("creative has not been created remotely")
	}
	name := req.Name
	if r := []rune(name); len(r) > ads.MaxAdNameLength {
		name = string(r[:ads.MaxAdNameLength])
	}
	payload := map[string]any{
		"name":     name,
		"adset_id": req.AdSetRemoteID,
		"creative": map[string]any{"creative_id": req.CreativeRemoteID},
		"status":   ads.AdStatusPaused,
	}
	if req.PartnershipPageID != "" {
		payload["adlabels"] = []map[string]string{{"name": "Partnership Ad"}}
	}
	if req.InstagramHandle != "" {
		payload["instagram_handle"] = strings.TrimPrefix(req.InstagramHandle, "@")
	}
	return payload, nil
}

func (c *Client) CreateAd(ctx context.Context, cred adprovider.Credentials, req adprovider.AdRequest) (string, error) {
	path, err := accountPath(cred, "ads")
	if err != nil {
		return "", err
	}
	payload, err := adPayload(req)
	if err != nil {
		return "", err
	}
	return c.createObject(ctx, path, cred.AccessToken, payload, "ad")
}

type insightNode struct {
	Impressions flexInt64   `json:"impressions"`
	Clicks      flexInt64   `json:"clicks"`
	Reach       flexInt64   `json:"reach"`
	Spend       flexFloat64 `json:"spend"`
	CTR         flexFloat64 `json:"ctr"`
	CPM         flexFloat64 `json:"cpm"`
	CPC         flexFloat64 `json:"cpc"`
	DateStart   string      `json:"date_start"`
	DateStop    string      `json:"date_stop"`
}

// FetchAccountInsights reads the last seven days of account-level metrics.
func (c *Client) FetchAccountInsights(ctx context.Context, cred adprovider.Credentials) ([]adprovider.InsightRow, error) {
	path, err := accountPath(cred, "insights")
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"fields":      {"impressions,spend,clicks,ctr,reach,cpm,cpc"},
		"date_preset": {"last_7d"},
		"level":       {"account"},
	}
	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, path, cred.AccessToken, q, &resp); err != nil {
		return nil, err
	}
	out := make([]adprovider.InsightRow, 0, len(resp.Data))
	for _, raw := range resp.Data {
		var n insightNode
		if err := unmarshal(raw, &n); err != nil {
			return nil, err
		}
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		out = append(out, adprovider.InsightRow{
			Impressions: int64(n.Impressions),
			Clicks:      int64(n.Clicks),
			Reach:       int64(n.Reach),
			Spend:       float64(n.Spend),
			CTR:         float64(n.CTR),
			CPM:         float64(n.CPM),
			CPC:         float64(n.CPC),
			DateStart:   n.DateStart,
			DateStop:    n.DateStop,
			Raw:         m,
		})
	}
	return out, nil
}

// FetchAccount reads the account's display and billing fields.
func (c *Client) FetchAccount(ctx context.Context, cred adprovider.Credentials) (adprovider.AccountInfo, error) {
	path, err := accountPath(cred, "")
	if err != nil {
		return adprovider.AccountInfo{}, err
	}
	q := url.Values{"fields": {"id,account_id,name,currency,timezone_name,account_status,amount_spent,balance"}}
	var n adAccountNode
	if err := c.get(ctx, path, cred.AccessToken, q, &n); err != nil {
		return adprovider.AccountInfo{}, err
	}
	return n.info(), nil
}

// ListCampaigns reads every campaign of the account, following pagination.
func (c *Client) ListCampaigns(ctx context.Context, cred adprovider.Credentials) ([]adprovider.RemoteCampaign, error) {
	path, err := accountPath(cred, "campaigns")
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"fields": {"id,name,status,objective,created_time,updated_time"},
		"limit":  {"100"},
	}
	var out []adprovider.RemoteCampaign
	err = c.paginate(ctx, path, cred.AccessToken, q, func(raw []byte) error {
		var page struct {
			Data []struct {
				ID          string `json:"id"`
				Name        string `json:"name"`
				Status      string `json:"status"`
				Objective   string `json:"objective"`
				CreatedTime string `json:"created_time"`
				UpdatedTime string `json:"updated_time"`
			} `json:"data"`
		}
		if err := unmarshal(raw, &page); err != nil {
			return err
		}
		for _, n := range page.Data {
			out = append(out, adprovider.RemoteCampaign{
				ID:          n.ID,
				Name:        n.Name,
				Status:      n.Status,
				Objective:   n.Objective,
				CreatedTime: parseGraphTime(n.CreatedTime),
				UpdatedTime: parseGraphTime(n.UpdatedTime),
			})
		}
		return nil
	})
	return out, err
}

// FetchPageToken reads a page's own access token using the user token.
func (c *Client) FetchPageToken(ctx context.Context, userToken, pageID string) (string, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return "", fmt.Errorf("page id is required")
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	q := url.Values{"fields": {"access_token"}}
	if err := c.get(ctx, url.PathEscape(pageID), userToken, q, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("page %s returned no access token", pageID)
	}
	return resp.AccessToken, nil
}
