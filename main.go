// @title CourseGate API
// @version 1.0
// @description Membership-gated course platform backend: entitlements, drip
// @description scheduling, progress aggregation and notification targeting.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"coursegate_backend/internal/app"
	"coursegate_backend/internal/config"
	"coursegate_backend/pkg/configwatcher"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migration and exit")
	migrate := flag.Bool("migrate", false, "force migration on startup")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly
	cfg.ForceMigrate = *migrate

	application := app.NewApp(cfg)

	if cfg.MigrateOnly {
		log.Println("Migration completed, exiting")
		return
	}

	go configwatcher.WatchConfig("configs/config.yaml", application.ReloadConfig)

	application.Run()
}
