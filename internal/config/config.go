package config

import (
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Config holds application configuration values.
type Config struct {
	Secret        string
	DatabaseDSN   string
	HTTPPort      string
	LicenseSecret string
	LicenseURL    string
	LogLevel      string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "facturo.db"
	}

	licenseSecret := os.Getenv("LICENSE_SECRET")
	if licenseSecret == "" {
		licenseSecret = secret
	}

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Warn().Str("port", port).Msg("invalid HTTP_PORT value, defaulting to 8080")
		port = "8080"
	}

	return Config{
		Secret:        secret,
		DatabaseDSN:   dsn,
		HTTPPort:      port,
		LicenseSecret: licenseSecret,
		LicenseURL:    os.Getenv("LICENSE_URL"),
		LogLevel:      level,
	}
}
