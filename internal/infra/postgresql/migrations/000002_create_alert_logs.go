package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/alert-dispatch/internal/repository"
	"gorm.io/gorm"
)

func createAlertLogsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_alert_logs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.AlertModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_alert_logs_created_at ON alert_logs (created_at)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.AlertModel{})
		},
	}
}
