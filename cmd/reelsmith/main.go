package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/stillmote/reelsmith/internal/cli"
)

func main() {
	// API keys may live in a local .env; absence is fine
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
