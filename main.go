package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/graceworks/shelterops/internal/app"
)

func main() {
	// .env is a local development convenience; production uses real
	// environment variables.
	_ = godotenv.Load()

	if err := app.Run(os.Stderr, os.Args[1:]); err != nil {
		slog.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
