package main

import (
	"log"
	"net/http"
	"os"

	"github.com/BichoSolto/BS-Backend/internal/animals"
	"github.com/BichoSolto/BS-Backend/internal/auth"
	"github.com/BichoSolto/BS-Backend/internal/config"
	"github.com/BichoSolto/BS-Backend/internal/db"
	"github.com/BichoSolto/BS-Backend/internal/donations"
	"github.com/BichoSolto/BS-Backend/internal/events"
	"github.com/BichoSolto/BS-Backend/internal/middleware"
	"github.com/BichoSolto/BS-Backend/internal/reports"
	"github.com/BichoSolto/BS-Backend/internal/uploads"
	"github.com/BichoSolto/BS-Backend/internal/volunteers"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
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

	if err := migrate(conn); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}
	saver := &uploads.Saver{Dir: cfg.UploadDir, MaxSize: cfg.MaxFileSize}

	store := auth.NewStore(conn)
	authHandler := auth.NewHandler(store, saver, cfg.APIBaseURL, cfg.IsProduction())
	animalHandler := animals.NewHandler(conn, saver, store)
	reportHandler := reports.NewHandler(conn, saver, store)
	donationHandler := donations.NewHandler(conn, saver, store)
	eventHandler := events.NewHandler(conn, saver, store)
	volunteerHandler := volunteers.NewHandler(conn, saver, store)

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.FrontendURL))

	r.Mount("/api/users", authHandler.SetupRoutes())
	r.Mount("/api/animals", animalHandler.SetupRoutes(store))
	r.Mount("/api/reports", reportHandler.SetupRoutes(store))
	r.Mount("/api/donations", donationHandler.SetupRoutes(store))
	r.Mount("/api/events", eventHandler.SetupRoutes(store))
	r.Mount("/api/volunteers", volunteerHandler.SetupRoutes(store))

	// Uploaded files are served as-is from the upload directory.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(cfg.UploadDir))))

	addr := ":" + cfg.Port
	log.Printf("Server running on port %s", cfg.Port)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func migrate(conn *gorm.DB) error {
	for _, initFn := range []func(*gorm.DB) error{
		auth.Init,
		animals.Init,
		reports.Init,
		donations.Init,
		events.Init,
		volunteers.Init,
	} {
		if err := initFn(conn); err != nil {
			return err
		}
	}
	return nil
}
