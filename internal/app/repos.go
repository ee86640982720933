package app

import (
	"gorm.io/gorm"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/data/repos"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

func wireRepos(db *gorm.DB, log *logger.Logger) repos.Set {
	log.Info("Wiring repos...")
	return repos.NewSet(db, log)
}
