package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"taskflow/internal/config"
	"taskflow/internal/database"
	"taskflow/internal/repository"
)

// Removes expired refresh tokens. Meant to run from cron; revoked tokens are
// kept until they expire so rotation races stay diagnosable.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}

	deleted, err := repository.NewRefreshTokenRepository(db).DeleteExpired(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("cleanup failed")
	}
	log.Info().Int64("deleted", deleted).Msg("refresh token cleanup completed")
}
