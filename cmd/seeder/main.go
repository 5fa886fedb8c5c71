package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"

	"travel_booking/internal/adapters/bookingapi"
	"travel_booking/internal/adapters/observability"
	"travel_booking/internal/shared"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	file := flag.String("file", "seed.yaml", "seed file (YAML)")
	api := flag.String("api", cfg.APIBaseURL, "API base URL")
	workers := flag.Int("workers", cfg.SeedWorkers, "concurrent requests")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sf, err := loadSeed(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("load seed file")
	}

	client, err := bookingapi.New(*api, cfg.ClientRPS, cfg.RequestTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize API client")
	}

	log.Info().
		Str("api", *api).
		Int("workers", *workers).
		Int("hotels", len(sf.Hotels)).
		Int("rentCars", len(sf.RentCars)).
		Msg("seeder starting")

	failed := seed(ctx, client, sf, filepath.Dir(*file), *workers)
	if failed > 0 {
		log.Error().Int("failed", failed).Msg("seeding finished with failures")
		os.Exit(1)
	}
	log.Info().Msg("seeding completed")
}
