// Command seed loads development fixtures (users, animals, events) from a
// YAML file into Postgres. Everything runs in a single transaction; pass
// --confirm to actually commit, --dry-run to only report what would happen.
//
// Usage:
//
//	go run ./cmd/seed --file seeds/fixtures.yaml --dry-run
//	go run ./cmd/seed --file seeds/fixtures.yaml --confirm
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/BichoSolto/BS-Backend/internal/config"
	"github.com/BichoSolto/BS-Backend/internal/utils"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// advisoryLockKey serializes concurrent seed runs against the same database.
const advisoryLockKey = 824

type fixtures struct {
	Users   []userFixture   `yaml:"users"`
	Animals []animalFixture `yaml:"animals"`
	Events  []eventFixture  `yaml:"events"`
}

type userFixture struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Phone    string `yaml:"phone"`
	City     string `yaml:"city"`
	State    string `yaml:"state"`
	CNPJ     string `yaml:"cnpj"`
}

type animalFixture struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Gender      string `yaml:"gender"`
	Size        string `yaml:"size"`
	Description string `yaml:"description"`
	Location    string `yaml:"location"`
	City        string `yaml:"city"`
	State       string `yaml:"state"`
	OwnerEmail  string `yaml:"ownerEmail"`
}

type eventFixture struct {
	Title          string    `yaml:"title"`
	Description    string    `yaml:"description"`
	EventType      string    `yaml:"eventType"`
	StartDate      time.Time `yaml:"startDate"`
	Location       string    `yaml:"location"`
	City           string    `yaml:"city"`
	State          string    `yaml:"state"`
	OrganizerEmail string    `yaml:"organizerEmail"`
}

func main() {
	file := flag.String("file", "seeds/fixtures.yaml", "fixtures YAML file")
	dryRun := flag.Bool("dry-run", false, "report what would be inserted without committing")
	confirm := flag.Bool("confirm", false, "actually commit the inserts")
	flag.Parse()

	if !*dryRun && !*confirm {
		log.Fatal("refusing to run without --dry-run or --confirm")
	}

	if err := godotenv.Load(".env.local"); err != nil {
		log.Println("No .env.local file found, relying on environment variables")
	}
	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read fixtures: %v", err)
	}
	var fx fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		log.Fatalf("parse fixtures: %v", err)
	}
	log.Printf("loaded %d users, %d animals, %d events from %s",
		len(fx.Users), len(fx.Animals), len(fx.Events), *file)

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("SELECT pg_advisory_lock($1)", advisoryLockKey); err != nil {
		log.Fatalf("acquire advisory lock: %v", err)
	}
	defer db.Exec("SELECT pg_advisory_unlock($1)", advisoryLockKey)

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := seed(tx, fx); err != nil {
		log.Fatalf("seed failed: %v", err)
	}

	if *dryRun {
		log.Println("dry run: rolling back")
		return
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}
	log.Println("seed committed")
}

func seed(tx *sql.Tx, fx fixtures) error {
	for _, u := range fx.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		role := u.Role
		if role == "" {
			role = "user"
		}
		res, err := tx.Exec(`
			INSERT INTO users (id, name, email, password_hash, role, phone, city, state, cnpj, is_active, created_at, updated_at)
			VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9, true, now(), now())
			ON CONFLICT (email) DO NOTHING`,
			uuid.NewString(), u.Name, u.Email, string(hash), role, u.Phone, u.City, u.State, u.CNPJ)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.Email, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			log.Printf("user %s already exists, skipped", u.Email)
		}
	}

	for _, a := range fx.Animals {
		res, err := tx.Exec(`
			INSERT INTO animals (id, name, type, gender, size, description, adoption_status, images,
				user_id, location, city, city_slug, state, created_at, updated_at)
			SELECT $1, $2, $3, $4, $5, $6, 'available', $7, users.id, $8, $9, $10, $11, now(), now()
			FROM users WHERE users.email = lower($12)`,
			uuid.NewString(), a.Name, a.Type, a.Gender, a.Size, a.Description,
			pq.StringArray{}, a.Location, a.City, utils.CitySlug(a.City), a.State, a.OwnerEmail)
		if err != nil {
			return fmt.Errorf("insert animal %s: %w", a.Name, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("animal %s: owner %s not found", a.Name, a.OwnerEmail)
		}
	}

	for _, e := range fx.Events {
		res, err := tx.Exec(`
			INSERT INTO events (id, title, description, event_type, start_date, location,
				city, city_slug, state, current_participants, is_active, organizer_id, created_at, updated_at)
			SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, 0, true, users.id, now(), now()
			FROM users WHERE users.email = lower($10)`,
			uuid.NewString(), e.Title, e.Description, e.EventType, e.StartDate, e.Location,
			e.City, utils.CitySlug(e.City), e.State, e.OrganizerEmail)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.Title, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("event %s: organizer %s not found", e.Title, e.OrganizerEmail)
		}
	}

	return nil
}
