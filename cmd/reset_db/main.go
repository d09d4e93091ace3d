package main

import (
	"context"
	"os"

	"driverbook/config"
	"driverbook/pkg/logger"
	"driverbook/storage/postgres"
)

// reset_db wipes users, invites and bookings. Drivers are kept.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	defer log.Sync()

	pg, err := postgres.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.Reset(context.Background()); err != nil {
		log.Error("failed to truncate tables", logger.Error(err))
		os.Exit(1)
	}
	log.Info("users, invites and bookings truncated")
}
