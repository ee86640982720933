package ads

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/dbctx"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

type LaunchCounterRepo interface {
	Count(dbc dbctx.Context, platform types.Platform, day string) (int, error)
	Increment(dbc dbctx.Context, platform types.Platform, day string) error
	PruneBefore(dbc dbctx.Context, day string) (int64, error)
}

type launchCounterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLaunchCounterRepo(db *gorm.DB, baseLog *logger.Logger) LaunchCounterRepo {
	return &launchCounterRepo{db: db, log: baseLog.With("repo", "LaunchCounterRepo")}
}

func (r *launchCounterRepo) Count(dbc dbctx.Context, platform types.Platform, day string) (int, error) {
	var row types.LaunchCounter
	err := dbc.DB(r.db).Where("platform = ? AND day = ?", platform, day).First(&row).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return row.Launches, nil
}

func (r *launchCounterRepo) Increment(dbc dbctx.Context, platform types.Platform, day string) error {
	row := types.LaunchCounter{ID: uuid.New(), Platform: platform, Day: day, Launches: 1}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"launches": gorm.Expr("ads_launch_counter.launches + 1"),
		}),
	}).Create(&row).Error
}

func (r *launchCounterRepo) PruneBefore(dbc dbctx.Context, day string) (int64, error) {
	res := dbc.DB(r.db).Where("day < ?", day).Delete(&types.LaunchCounter{})
	return res.RowsAffected, res.Error
}
