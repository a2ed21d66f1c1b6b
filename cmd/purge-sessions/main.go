// Command purge-sessions deletes expired rows from user_sessions. Meant to
// run from cron; the server never deletes expired sessions itself, it only
// refuses them.
package main

import (
	"log"

	"github.com/BichoSolto/BS-Backend/internal/auth"
	"github.com/BichoSolto/BS-Backend/internal/config"
	"github.com/BichoSolto/BS-Backend/internal/db"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env.local"); err != nil {
		log.Println("No .env.local file found, relying on environment variables")
	}

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	result := conn.Where("expires_at < now()").Delete(&auth.Session{})
	if result.Error != nil {
		log.Fatalf("Failed to purge sessions: %v", result.Error)
	}
	log.Printf("purged %d expired sessions", result.RowsAffected)
}
