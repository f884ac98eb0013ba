package migrations

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/kursadbilgin/alert-dispatch/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrate(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB() error = %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// A second run is a no-op.
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	for _, model := range []any{
		&repository.MarketModel{},
		&repository.PhoneNumberModel{},
		&repository.AlertModel{},
		&repository.DeliveryModel{},
	} {
		if !db.Migrator().HasTable(model) {
			t.Fatalf("table for %T was not created", model)
		}
	}
	if !db.Migrator().HasIndex(&repository.DeliveryModel{}, "idx_alert_deliveries_provider_ref") {
		t.Fatal("provider_ref index was not created")
	}
}
