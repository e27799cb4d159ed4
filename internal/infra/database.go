package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/model"
)

// NewDatabase opens a GORM connection backed by pgx and brings the schema up
// to date. TranslateError is on so unique violations surface as
// gorm.ErrDuplicatedKey; the deduction engine's idempotence relies on it.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates every table and then applies the patches
// AutoMigrate cannot express. Safe to call on every start.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.FeedLot{},
		&model.Animal{},
		&model.ConsumptionSetting{},
		&model.ConsumptionRecord{},
		&model.TransactionEntry{},
		&model.StockMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL: partial indexes and CHECK
// constraints. Each statement is guarded so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// at most one automatic record per owner/day/species/feed type;
		// manual and reversal rows are not constrained
		{"uniq_consumption_auto", `
CREATE UNIQUE INDEX IF NOT EXISTS uniq_consumption_auto
    ON consumption_records (owner_id, consumption_date, species, feed_type)
    WHERE is_manual = false`},
		{"chk_feed_lots_quantity", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_feed_lots_quantity') THEN
    ALTER TABLE feed_lots ADD CONSTRAINT chk_feed_lots_quantity
      CHECK (quantity >= 0 AND price_per_unit >= 0 AND min_stock_level >= 0);
  END IF;
END $$`},
		{"chk_transactions_amount", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_transactions_amount') THEN
    ALTER TABLE transactions ADD CONSTRAINT chk_transactions_amount CHECK (amount > 0);
  END IF;
END $$`},
		{"idx_stock_movements_lot_created", `
CREATE INDEX IF NOT EXISTS idx_stock_movements_lot_created
    ON stock_movements (feed_lot_id, created_at DESC)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
