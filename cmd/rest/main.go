package main

import (
	"context"
	"log"

	"line-intake-bot/internal/bootstrap"
	"line-intake-bot/internal/config"
	"line-intake-bot/internal/server"
	"line-intake-bot/internal/tracer"
	"line-intake-bot/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (optional: the archive is disabled without it)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	} else {
		log.Println("DB_CONNECTION_STRING not set, submission archive disabled")
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	if container.DeliveryService != nil {
		go func() {
			log.Println("Background: Starting Delivery Worker...")
			if err := container.DeliveryService.Consume(context.Background()); err != nil {
				log.Printf("Background Delivery Worker Error: %v", err)
			}
		}()
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
