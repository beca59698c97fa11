package db

import (
	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&gazette.Territory{},
		&gazette.Gazette{},
		&gazette.Aggregate{},
		&gazette.ThemeConfigRow{},
	)
}
