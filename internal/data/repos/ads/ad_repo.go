package ads

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

type AdRepo interface {
	Create(dbc dbctx.Context, a *types.Ad) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Ad, error)
	Update(dbc dbctx.Context, a *types.Ad) error
	ListByAdSet(dbc dbctx.Context, adSetID uuid.UUID) ([]*types.Ad, error)
	ListByCampaign(dbc dbctx.Context, campaignID uuid.UUID) ([]*types.Ad, error)
}

type adRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdRepo(db *gorm.DB, baseLog *logger.Logger) AdRepo {
	return &adRepo{db: db, log: baseLog.With("repo", "AdRepo")}
}

func (r *adRepo) Create(dbc dbctx.Context, a *types.Ad) error {
	return dbc.DB(r.db).Create(a).Error
}

func (r *adRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Ad, error) {
	var out types.Ad
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *adRepo) Update(dbc dbctx.Context, a *types.Ad) error {
	return dbc.DB(r.db).Save(a).Error
}

func (r *adRepo) ListByAdSet(dbc dbctx.Context, adSetID uuid.UUID) ([]*types.Ad, error) {
	var out []*types.Ad
	err := dbc.DB(r.db).Where("ad_set_id = ?", adSetID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *adRepo) ListByCampaign(dbc dbctx.Context, campaignID uuid.UUID) ([]*types.Ad, error) {
	var out []*types.Ad
	err := dbc.DB(r.db).
		Where("ad_set_id IN (?)", dbc.DB(r.db).Model(&types.AdSet{}).Select("id").Where("campaign_id = ?", campaignID)).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
