// Command civicsd serves the civic data API and runs its maintenance tasks.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	_ "go.uber.org/automaxprocs"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("civicsd failed")
		os.Exit(1)
	}
}
