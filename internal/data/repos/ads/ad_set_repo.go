package ads

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

type AdSetRepo interface {
	Create(dbc dbctx.Context, s *types.AdSet) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AdSet, error)
	Update(dbc dbctx.Context, s *types.AdSet) error
	ListByCampaign(dbc dbctx.Context, campaignID uuid.UUID) ([]*types.AdSet, error)
}

type adSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdSetRepo(db *gorm.DB, baseLog *logger.Logger) AdSetRepo {
	return &adSetRepo{db: db, log: baseLog.With("repo", "AdSetRepo")}
}

func (r *adSetRepo) Create(dbc dbctx.Context, s *types.AdSet) error {
	return dbc.DB(r.db).Create(s).Error
}

func (r *adSetRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AdSet, error) {
	var out types.AdSet
	if err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *adSetRepo) Update(dbc dbctx.Context, s *types.AdSet) error {
	return dbc.DB(r.db).Save(s).Error
}

func (r *adSetRepo) ListByCampaign(dbc dbctx.Context, campaignID uuid.UUID) ([]*types.AdSet, error) {
	var out []*types.AdSet
	err := dbc.DB(r.db).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
