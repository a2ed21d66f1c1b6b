package animals

import (
	"fmt"

	"gorm.io/gorm"
)

// Init creates or updates the animals table.
func Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&Animal{}); err != nil {
		return fmt.Errorf("animals: auto-migrate: %w", err)
	}
	return nil
}
