package donations

import (
	"fmt"

	"gorm.io/gorm"
)

// Init creates or updates the donations table.
func Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&Donation{}); err != nil {
		return fmt.Errorf("donations: auto-migrate: %w", err)
	}
	return nil
}
