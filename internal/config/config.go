package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBDSN        string
	DataDir      string
	SecretsDir   string
	PlanDir      string
	LogFile      string
	Zone         *time.Location
	MaxAheadDays int
}

// SeriesRangeCap bounds any series operation to roughly a year.
const SeriesRangeCap = 366

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port := getenv("PORT", "8080")
	dsn := getenv("DB_DSN", "./data/parking.db")
	dataDir := getenv("DATA_DIR", "./data")
	secretsDir := getenv("SECRETS_DIR", "./secrets")
	planDir := getenv("PLAN_DIR", "./plan")
	logFile := getenv("LOG_FILE", "./parkshare.log")

	tz := getenv("TIMEZONE", "Europe/Berlin")
	zone, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("[config] unknown TIMEZONE %q, falling back to UTC: %v", tz, err)
		zone = time.UTC
	}

	// Previously 90 days; intentionally generous so owners can plan far ahead.
	maxAhead := 3650
	if v := os.Getenv("MAX_BOOK_AHEAD_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxAhead = n
		} else {
			log.Printf("[config] ignoring invalid MAX_BOOK_AHEAD_DAYS=%q", v)
		}
	}

	cfg := Config{
		Port:         port,
		DBDSN:        dsn,
		DataDir:      dataDir,
		SecretsDir:   secretsDir,
		PlanDir:      planDir,
		LogFile:      logFile,
		Zone:         zone,
		MaxAheadDays: maxAhead,
	}
	log.Printf("[config] PORT=%s DB_DSN=%s DATA_DIR=%s SECRETS_DIR=%s PLAN_DIR=%s TZ=%s MAX_AHEAD=%d",
		cfg.Port, cfg.DBDSN, cfg.DataDir, cfg.SecretsDir, cfg.PlanDir, zone, maxAhead)
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
