package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	// ClockMode selects the time source: "system" for wall clock,
	// "manual" for an operator-driven clock set via the admin endpoint.
	ClockMode      string
	ClockStartUnix int64

	// OwnerID is the holder identity allowed to call admin endpoints.
	OwnerID string

	// ProductSeeds are products registered at startup when the backing
	// store is empty. Format: "alias:price:period_seconds" entries
	// separated by commas.
	ProductSeeds []ProductSeed

	RelayPollInterval time.Duration
	RelayBatchSize    int
}

type ProductSeed struct {
	Alias         string
	Price         int64
	PeriodSeconds int64
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "mutua"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	mode := strings.TrimSpace(strings.ToLower(os.Getenv("CLOCK_MODE")))
	switch mode {
	case "":
		mode = "system"
	case "system", "manual":
	default:
		return Config{}, fmt.Errorf("unknown CLOCK_MODE %q: want system or manual", mode)
	}

	seeds, err := parseProductSeeds(os.Getenv("PRODUCT_SEEDS"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName:    service,
		HTTPPort:       port,
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		ClockMode:      mode,
		ClockStartUnix: envInt64("CLOCK_START_UNIX", 0),
		OwnerID:        strings.TrimSpace(os.Getenv("OWNER_ID")),
		ProductSeeds:   seeds,

		RelayPollInterval: envDuration("RELAY_POLL_INTERVAL", 2*time.Second),
		RelayBatchSize:    int(envInt64("RELAY_BATCH_SIZE", 100)),
	}, nil
}

func parseProductSeeds(raw string) ([]ProductSeed, error) {
	var seeds []ProductSeed
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed product seed %q: want alias:price:period_seconds", entry)
		}
		price, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil || price <= 0 {
			return nil, fmt.Errorf("malformed product seed %q: price must be a positive integer", entry)
		}
		period, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil || period <= 0 {
			return nil, fmt.Errorf("malformed product seed %q: period_seconds must be a positive integer", entry)
		}
		seeds = append(seeds, ProductSeed{
			Alias:         strings.TrimSpace(parts[0]),
			Price:         price,
			PeriodSeconds: period,
		})
	}
	return seeds, nil
}

func envInt64(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
