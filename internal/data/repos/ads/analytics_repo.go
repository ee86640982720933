package ads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

type AnalyticsRepo interface {
	// Upsert writes one row per (integration, date); a second write on the
	// same day replaces the metrics.
	Upsert(dbc dbctx.Context, row *types.AccountAnalytics) error
	GetByDate(dbc dbctx.Context, integrationID uuid.UUID, day time.Time) (*types.AccountAnalytics, error)
	ListSince(dbc dbctx.Context, integrationID uuid.UUID, since time.Time) ([]*types.AccountAnalytics, error)
}

type analyticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
	return &analyticsRepo{db: db, log: baseLog.With("repo", "AnalyticsRepo")}
}

func truncateDay(t time.Time) datatypes.Date {
	y, m, d := t.UTC().Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func (r *analyticsRepo) Upsert(dbc dbctx.Context, row *types.AccountAnalytics) error {
	row.Date = truncateDay(time.Time(row.Date))
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "integration_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"impressions", "clicks", "reach", "spend", "ctr", "cpm", "cpc", "raw", "updated_at",
		}),
	}).Create(row).Error
}

func (r *analyticsRepo) GetByDate(dbc dbctx.Context, integrationID uuid.UUID, day time.Time) (*types.AccountAnalytics, error) {
	var out types.AccountAnalytics
	err := dbc.DB(r.db).
		Where("integration_id = ? AND date = ?", integrationID, truncateDay(day)).
		First(&out).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (r *analyticsRepo) ListSince(dbc dbctx.Context, integrationID uuid.UUID, since time.Time) ([]*types.AccountAnalytics, error) {
	var out []*types.AccountAnalytics
	err := dbc.DB(r.db).
		Where("integration_id = ? AND date >= ?", integrationID, truncateDay(since)).
		Order("date ASC").
		Find(&out).Error
	return out, err
}
