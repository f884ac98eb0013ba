package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/alert-dispatch/internal/repository"
	"gorm.io/gorm"
)

func createAlertDeliveriesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_alert_deliveries",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.DeliveryModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_alert_deliveries_alert_id ON alert_deliveries (alert_id)`,
				`CREATE INDEX IF NOT EXISTS idx_alert_deliveries_sent_lookup ON alert_deliveries (contact_address, sent_at) WHERE status = 'sent'`,
				`CREATE INDEX IF NOT EXISTS idx_alert_deliveries_provider_ref ON alert_deliveries (provider_ref) WHERE provider_ref IS NOT NULL`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.DeliveryModel{})
		},
	}
}
