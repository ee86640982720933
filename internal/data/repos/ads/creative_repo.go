package ads

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

type CreativeRepo interface {
	// Create inserts the creative together with its media rows.
	Create(dbc dbctx.Context, c *types.Creative) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Creative, error)
	Update(dbc dbctx.Context, c *types.Creative) error
	UpdateMedia(dbc dbctx.Context, m *types.CreativeMedia) error
}

type creativeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCreativeRepo(db *gorm.DB, baseLog *logger.Logger) CreativeRepo {
	return &creativeRepo{db: db, log: baseLog.With("repo", "CreativeRepo")}
}

func (r *creativeRepo) Create(dbc dbctx.Context, c *types.Creative) error {
	return dbc.DB(r.db).Create(c).Error
}

func (r *creativeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Creative, error) {
	var out types.Creative
	err := dbc.DB(r.db).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *creativeRepo) Update(dbc dbctx.Context, c *types.Creative) error {
	return dbc.DB(r.db).Omit(clause.Associations).Save(c).Error
}

func (r *creativeRepo) UpdateMedia(dbc dbctx.Context, m *types.CreativeMedia) error {
	return dbc.DB(r.db).Save(m).Error
}
