package main

import (
	"context"
	"flag"
	"log"
	"time"

	"ecodefill-backend/internal/bootstrap"
	"ecodefill-backend/internal/config"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/seed"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	seedPath := flag.String("data", "config/seed.dev.yaml", "Path to seed data")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	if cfg.Store.Type == config.StoreMemory {
		log.Fatalf("Seeding the in-memory store from a separate process has no effect; use the server's -seed flag")
	}

	data, err := seed.Load(*seedPath)
	if err != nil {
		log.Fatalf("Failed to read seed data: %v", err)
	}

	ctx := context.Background()
	backend, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	provider, err := backend.IdentityProvider(ctx)
	if err != nil {
		log.Fatalf("Failed to create identity provider: %v", err)
	}

	res, err := seed.Apply(ctx, backend.Store, provider, backend.Machines, data, time.Now())
	if err != nil {
		log.Fatalf("Failed to seed data: %v", err)
	}
	logger.Info("Seed data applied", "accounts", res.Accounts, "skipped", res.Skipped, "machines", res.Machines)
}
