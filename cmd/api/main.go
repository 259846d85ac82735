package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/oguzk/tutorhub/internal/pkg/logger"
	"github.com/oguzk/tutorhub/internal/server"
)

func main() {
	// A local .env is a development convenience; its absence is not an error
	if err := godotenv.Load(); err == nil {
		logger.Debug().Msg("Loaded environment from .env file")
	}

	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
	os.Exit(0)
}
