package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"facturo/m/internal/api"
	"facturo/m/internal/config"
	"facturo/m/internal/database"
	"facturo/m/internal/license"
	"facturo/m/internal/logger"
	"facturo/m/internal/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := logger.Setup(cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("invalid log configuration")
	}

	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)

	verifier := license.NewVerifier(db, cfg.LicenseSecret, cfg.LicenseURL)
	handler := api.New(db, cfg.Secret, verifier)

	log.Info().Str("port", cfg.HTTPPort).Msg("Facturo server starting")
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
