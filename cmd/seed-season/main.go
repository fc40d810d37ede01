package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/voidrush/backend/internal/config"
	"github.com/voidrush/backend/internal/database"
	"github.com/voidrush/backend/internal/migrations"
	"github.com/voidrush/backend/internal/season"
	"github.com/voidrush/backend/internal/state"
	"github.com/voidrush/backend/internal/store"
)

// Seeds the season table so a fresh deployment starts with the current
// calendar-month season active. Safe to re-run.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations first...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dayKey := state.DayKey(time.Now())
	active, err := season.EnsureActive(ctx, store.New(db), dayKey)
	if err != nil {
		log.Fatalf("Failed to activate season: %v", err)
	}

	log.Printf("✓ Season active")
	log.Printf("  Season: %s (%s)", active.SeasonID, active.Label)
	log.Printf("  Window: %s .. %s", active.StartsOn, active.EndsOn)
}
