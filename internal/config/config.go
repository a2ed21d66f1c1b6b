package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the server configuration loaded from the environment.
type Config struct {
	Port        string
	Env         string // "development" or "production"
	FrontendURL string
	APIBaseURL  string

	// DatabaseURL wins when set; otherwise the DSN is assembled from the
	// discrete DB_* variables.
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBName      string
	DBUser      string
	DBPassword  string

	UploadDir   string
	MaxFileSize int64
}

// DefaultMaxFileSize is the upload size cap when MAX_FILE_SIZE is unset (5MB).
const DefaultMaxFileSize = 5 * 1024 * 1024

var ErrMissingDatabase = errors.New("database connection parameters missing: set DATABASE_URL or DB_HOST/DB_NAME/DB_USER")

// LoadFromEnv loads configuration from environment variables.
//
// Environment variables:
//   - PORT: HTTP listen port (default: "5050")
//   - APP_ENV: "development" or "production" (default: "development")
//   - FRONTEND_URL: extra allowed CORS origin
//   - API_BASE_URL: public base URL used to build image URLs (default: http://localhost:{PORT})
//   - DATABASE_URL or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD
//   - UPLOAD_DIR: root directory for uploaded files (default: "uploads")
//   - MAX_FILE_SIZE: upload size cap in bytes (default: 5242880)
func LoadFromEnv() Config {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5050"
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if env == "" {
		env = "development"
	}

	apiBase := strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/")
	if apiBase == "" {
		apiBase = "http://localhost:" + port
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	maxSize := int64(DefaultMaxFileSize)
	if raw := os.Getenv("MAX_FILE_SIZE"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			maxSize = parsed
		}
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	return Config{
		Port:        port,
		Env:         env,
		FrontendURL: strings.TrimRight(strings.TrimSpace(os.Getenv("FRONTEND_URL")), "/"),
		APIBaseURL:  apiBase,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      dbPort,
		DBName:      os.Getenv("DB_NAME"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		UploadDir:   uploadDir,
		MaxFileSize: maxSize,
	}
}

// DSN returns the Postgres connection string.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// Validate checks that enough configuration is present to connect to Postgres.
func (c Config) Validate() error {
	if c.DatabaseURL != "" {
		return nil
	}
	if c.DBHost == "" || c.DBName == "" || c.DBUser == "" {
		return ErrMissingDatabase
	}
	return nil
}

// IsProduction reports whether the server runs in production mode. Cookies
// are only marked Secure in production so local HTTP development works.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
