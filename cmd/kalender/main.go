package main

import (
	"os"

	"github.com/joho/godotenv"

	"kalender/internal/cli"
	appLog "kalender/internal/log"
)

func main() {
	// A missing .env is fine; flags and config still apply.
	_ = godotenv.Load()

	if err := cli.NewApp().Run(os.Args); err != nil {
		appLog.Error("kalender failed", err)
		os.Exit(1)
	}
}
