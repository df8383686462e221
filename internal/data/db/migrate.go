package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/gardenbarter-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureBarterIndexes adds the listing/inbox read-path indexes AutoMigrate
// cannot express.
func EnsureBarterIndexes(db *gorm.DB) error {
	// Newest-first listing per category.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_barter_type_created
		ON barter (barter_type, date_created DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_barter_type_created: %w", err)
	}

	// Inbox: conversations received by a user, most recent first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_conversation_recipient_updated
		ON conversation (recipient_id, updated_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_conversation_recipient_updated: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	// A listing that is not free must say what it is traded for.
	if err := db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_barter_trade_required') THEN
				ALTER TABLE barter ADD CONSTRAINT chk_barter_trade_required
				CHECK (is_free OR btrim(will_trade_for) <> '');
			END IF;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("create chk_barter_trade_required: %w", err)
	}

	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "dialect", s.db.Dialector.Name())
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureBarterIndexes(s.db); err != nil {
		s.log.Error("Barter index migration failed", "error", err)
		return err
	}
	return nil
}
