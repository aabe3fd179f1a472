package main

import (
	"github.com/joho/godotenv"

	"github.com/FumingPower3925/ttrpg-session-manager/cmd"
	"github.com/FumingPower3925/ttrpg-session-manager/config"
	"github.com/FumingPower3925/ttrpg-session-manager/logger"
)

func main() {
	// Missing .env is fine, environment variables still apply.
	_ = godotenv.Load()

	logger.Init(logger.Config{
		Level:      config.GetLogLevel(),
		OutputPath: config.GetLogPath(),
	})
	defer logger.Sync()

	cmd.Execute()
}
