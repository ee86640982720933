package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
)

func SeedIntegration(tb testing.TB, ctx context.Context, tx *gorm.DB, platform types.Platform, adAccountID string) *types.Integration {
	tb.Helper()
	exp := time.Now().UTC().Add(30 * 24 * time.Hour)
	in := &types.Integration{
		ID:               uuid.New(),
		Platform:         platform,
		AdAccountID:      adAccountID,
		AccountName:      "Account " + adAccountID,
		OwnerUserID:      "user-1",
		ConnectionStatus: types.StatusConnected,
		Enabled:          true,
		AccessToken:      "token-" + adAccountID,
		TokenExpiry:      &exp,
	}
	if err := tx.WithContext(ctx).Create(in).Error; err != nil {
		tb.Fatalf("seed integration: %v", err)
	}
	return in
}

func SeedPage(tb testing.TB, ctx context.Context, tx *gorm.DB, integrationID uuid.UUID, pageID, name string) *types.LinkedPage {
	tb.Helper()
	p := &types.LinkedPage{
		IntegrationID: integrationID,
		PageID:        pageID,
		PageName:      name,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed page: %v", err)
	}
	return p
}

func SeedCampaign(tb testing.TB, ctx context.Context, tx *gorm.DB, integrationID uuid.UUID, status types.CampaignStatus) *types.Campaign {
	tb.Helper()
	c := &types.Campaign{
		IntegrationID: integrationID,
		Name:          "campaign",
		Objective:     "Traffic",
		DailyBudget:   20,
		Status:        status,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed campaign: %v", err)
	}
	return c
}

func SeedAdSet(tb testing.TB, ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) *types.AdSet {
	tb.Helper()
	s := &types.AdSet{
		CampaignID:  campaignID,
		Name:        "ad set",
		DailyBudget: 12.5,
		GeoCountry:  "US",
		AgeMin:      18,
		AgeMax:      65,
		Gender:      types.GenderAll,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed ad set: %v", err)
	}
	return s
}

func SeedCreative(tb testing.TB, ctx context.Context, tx *gorm.DB, integrationID uuid.UUID, pageLabel string, mediaRefs ...string) *types.Creative {
	tb.Helper()
	c := &types.Creative{
		IntegrationID: integrationID,
		Name:          "creative",
		PageLabel:     pageLabel,
		Message:       "hello",
		Link:          "https://example.com",
		CallToAction:  "Learn More",
	}
	for i, ref := range mediaRefs {
		c.Media = append(c.Media, types.CreativeMedia{Position: i, MediaRef: ref})
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed creative: %v", err)
	}
	return c
}

func SeedAd(tb testing.TB, ctx context.Context, tx *gorm.DB, integrationID, adSetID, creativeID uuid.UUID) *types.Ad {
	tb.Helper()
	a := &types.Ad{
		IntegrationID: integrationID,
		AdSetID:       adSetID,
		CreativeID:    creativeID,
		Name:          "ad",
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed ad: %v", err)
	}
	return a
}

func PtrTime(v time.Time) *time.Time { return &v }
