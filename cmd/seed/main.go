package main

import (
	"log"
	"os"

	"ai-storybook-be/internal/model"
	"ai-storybook-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/datatypes"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding Narrative Templates...")

	templates := []model.NarrativeTemplate{
		{
			Id:   uuid.New(),
			Name: "Hero Journey",
			Steps: datatypes.NewJSONSlice([]string{
				"ordinary_world",
				"call_to_adventure",
				"crossing_the_threshold",
				"trials",
				"darkest_moment",
				"return_home",
			}),
			IsActive: true,
		},
		{
			Id:   uuid.New(),
			Name: "Bedtime Adventure",
			Steps: datatypes.NewJSONSlice([]string{
				"cozy_evening",
				"magical_visitor",
				"short_journey",
				"sleepy_return",
			}),
			IsActive: true,
		},
		{
			Id:   uuid.New(),
			Name: "Mystery Box",
			Steps: datatypes.NewJSONSlice([]string{
				"strange_discovery",
				"first_clue",
				"wrong_suspect",
				"real_answer",
				"celebration",
			}),
			IsActive: true,
		},
	}

	for _, t := range templates {
		// Check if a template with this name already exists
		var existing model.NarrativeTemplate
		if err := db.Where("name = ?", t.Name).First(&existing).Error; err == nil {
			log.Printf("Template '%s' already exists, skipping...", t.Name)
			continue
		}

		if err := db.Create(&t).Error; err != nil {
			log.Printf("Error creating template '%s': %v", t.Name, err)
		} else {
			log.Printf("Created template: %s (%d steps)", t.Name, len(t.Steps))
		}
	}

	log.Println("Template seeding completed!")
}
