package ads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

type CampaignRepo interface {
	Create(dbc dbctx.Context, c *types.Campaign) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Campaign, error)
	GetByRemoteID(dbc dbctx.Context, integrationID uuid.UUID, remoteID string) (*types.Campaign, error)
	Update(dbc dbctx.Context, c *types.Campaign) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	// CompareAndSetStatus moves the row to `to` only if it is still in
	// `from`. It returns false when another writer got there first.
	CompareAndSetStatus(dbc dbctx.Context, id uuid.UUID, from, to types.CampaignStatus) (bool, error)
	ListByIntegration(dbc dbctx.Context, integrationID uuid.UUID) ([]*types.Campaign, error)
	ListDueScheduled(dbc dbctx.Context, now time.Time, limit int) ([]*types.Campaign, error)
}

type campaignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	repoLog := baseLog.With("repo", "CampaignRepo")
	return &campaignRepo{db: db, log: repoLog}
}

func (r *campaignRepo) Create(dbc dbctx.Context, c *types.Campaign) error {
	return dbc.DB(r.db).Create(c).Error
}

func (r *campaignRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Campaign, error) {
	var out types.Campaign
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *campaignRepo) GetByRemoteID(dbc dbctx.Context, integrationID uuid.UUID, remoteID string) (*types.Campaign, error) {
	var out types.Campaign
	err := dbc.DB(r.db).
		Where("integration_id = ? AND remote_id = ?", integrationID, remoteID).
		First(&out).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *campaignRepo) Update(dbc dbctx.Context, c *types.Campaign) error {
	return dbc.DB(r.db).Save(c).Error
}

func (r *campaignRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Campaign{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *campaignRepo) CompareAndSetStatus(dbc dbctx.Context, id uuid.UUID, from, to types.CampaignStatus) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *campaignRepo) ListByIntegration(dbc dbctx.Context, integrationID uuid.UUID) ([]*types.Campaign, error) {
	var out []*types.Campaign
	err := dbc.DB(r.db).
		Where("integration_id = ?", integrationID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *campaignRepo) ListDueScheduled(dbc dbctx.Context, now time.Time, limit int) ([]*types.Campaign, error) {
	if limit <= 0 {
		limit = 50
	}
	// Campaigns on unusable integrations would be skipped every tick and
	// could fill the batch ahead of launchable ones.
	var out []*types.Campaign
	err := dbc.DB(r.db).
		Joins("JOIN ads_integration ON ads_integration.id = ads_campaign.integration_id AND ads_integration.deleted_at IS NULL").
		Where("ads_campaign.status = ? AND ads_campaign.start_time IS NOT NULL AND ads_campaign.start_time <= ?", types.CampaignScheduled, now).
		Where("ads_integration.enabled = ? AND ads_integration.connection_status = ? AND ads_integration.access_token <> ''", true, types.StatusConnected).
		Order("ads_campaign.start_time ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
