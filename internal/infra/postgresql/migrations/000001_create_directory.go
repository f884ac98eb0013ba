package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/alert-dispatch/internal/repository"
	"gorm.io/gorm"
)

// The directory owns markets and phone_numbers. They are created here so a fresh
// database can serve alerts before the directory service has run.
func createDirectoryTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_directory",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.MarketModel{}, &repository.PhoneNumberModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_markets_list ON markets (list)`,
				`CREATE INDEX IF NOT EXISTS idx_phone_numbers_market_position ON phone_numbers (market_id, position)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.PhoneNumberModel{}, &repository.MarketModel{})
		},
	}
}
