package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Addr        string // SANDFORCE_ADDR, default ":8080"
	DBPath      string // SANDFORCE_DB, default "sandforce.db"
	AuthToken   string // SANDFORCE_AUTH_TOKEN, optional
	DemoRecords int    // SANDFORCE_DEMO_RECORDS, number of fake accounts to seed
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        envOr("SANDFORCE_ADDR", ":8080"),
		DBPath:      envOr("SANDFORCE_DB", "sandforce.db"),
		AuthToken:   os.Getenv("SANDFORCE_AUTH_TOKEN"),
		DemoRecords: envInt("SANDFORCE_DEMO_RECORDS", 0),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
