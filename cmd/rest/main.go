package main

import (
	"context"
	"log"

	"ai-storybook-be/internal/bootstrap"
	"ai-storybook-be/internal/config"
	"ai-storybook-be/internal/server"
	"ai-storybook-be/internal/tracer"
	"ai-storybook-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (env-gated, no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	// The cascade subscription must exist before any request can publish an
	// evaluate message; Consume detaches its own drain loop, so this does not
	// block startup.
	log.Println("Background: Starting Cascade Consumer...")
	if err := container.CascadeService.Consume(context.Background()); err != nil {
		log.Panicf("Unable to start cascade consumer: %v", err)
	}
	container.SweeperService.Start(context.Background())

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
