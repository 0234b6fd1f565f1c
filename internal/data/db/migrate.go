package db

import (
	"fmt"

	types "github.com/yungbote/groupbuy-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// =========================
		// Identity projection
		// =========================
		&types.User{},

		// =========================
		// Group purchase
		// =========================
		&types.Campaign{},
		&types.ParticipationRecord{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
