package main

import (
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/SNUH-NSTRI/kcd2025-sub001/adapters/postgres"
	"github.com/SNUH-NSTRI/kcd2025-sub001/app"
	"github.com/SNUH-NSTRI/kcd2025-sub001/internal/api"
	"github.com/SNUH-NSTRI/kcd2025-sub001/internal/config"
	"github.com/SNUH-NSTRI/kcd2025-sub001/internal/logging"
	"github.com/SNUH-NSTRI/kcd2025-sub001/ports"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	logger := logging.NewDefaultLogger()

	var store ports.SnapshotStore
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatal("database:", err)
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			log.Fatal("migrate:", err)
		}
		store = postgres.NewSnapshotStore(db)
		logger.Info("session persistence enabled")
	} else {
		logger.Info("DATABASE_URL not set, sessions are in-memory only")
	}

	svc := app.NewService(logger)
	if cfg.Session.DemoMode {
		if err := svc.SeedDemo(cfg.Session.DefaultDatasetID, cfg.Session.DefaultCohortSize); err != nil {
			log.Fatal("seed demo:", err)
		}
		logger.Info("demo session seeded (dataset=%s, cohort=%d)", cfg.Session.DefaultDatasetID, cfg.Session.DefaultCohortSize)
	}

	server := api.NewServer(svc, store, logger)

	addr := ":" + cfg.Server.Port
	logger.Info("listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		log.Fatal("server:", err)
	}
}
