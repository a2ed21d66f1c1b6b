package reports

import (
	"fmt"

	"gorm.io/gorm"
)

// Init creates or updates the reports table.
func Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&Report{}); err != nil {
		return fmt.Errorf("reports: auto-migrate: %w", err)
	}
	return nil
}
