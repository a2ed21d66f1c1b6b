package auth

import (
	"fmt"

	"gorm.io/gorm"
)

// Init creates or updates the users and user_sessions tables.
func Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Session{}); err != nil {
		return fmt.Errorf("auth: auto-migrate: %w", err)
	}
	return nil
}
