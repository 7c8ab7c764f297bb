package main

import (
	"log"
	"os"

	"ai-storybook-be/internal/model"
	"ai-storybook-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (AutoMigrate doesn't handle these)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.StorySession{},
		&model.NarrativeTemplate{},
		&model.StoryBeat{},
		&model.Artifact{},
		&model.StageRecord{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: views used by ops dashboards
	log.Println("Step 3: Creating Views...")

	postMigrationSQL := []string{
		// View: generation backlog per stage (idle/running/rate_limited counts)
		`CREATE OR REPLACE VIEW stage_backlog AS
		 SELECT stage, status, COUNT(*) AS records
		 FROM stage_records
		 GROUP BY stage, status;`,

		// View: sessions awaiting compilation output
		`CREATE OR REPLACE VIEW closing_sessions AS
		 SELECT s.id, s.title, s.user_id, s.updated_at
		 FROM story_sessions s
		 WHERE s.phase = 'closing' AND s.deleted_at IS NULL;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
