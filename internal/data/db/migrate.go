package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/careerkb-backend/internal/domain"
)

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	// One currently valid fact per (person, fact_type). Both dialects support
	// partial indexes.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_kb_fact_current
		ON kb_fact (person_id, fact_type) WHERE valid_to IS NULL`).Error; err != nil {
		return fmt.Errorf("create fact index: %w", err)
	}
	return nil
}

// ForUpdate reports whether row locks are supported by db's dialect.
func ForUpdate(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres"
}
