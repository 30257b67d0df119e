package main

import (
	"log"

	"github.com/joho/godotenv"

	"cmrdocs/cmd"
	"cmrdocs/internal/config"
	"cmrdocs/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Provider settings are validated again by the commands that need them;
	// here the config only drives logging.
	cfg, err := config.Load()
	if err != nil {
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting cmrdocs")

	cmd.Execute()
}
