package main

import (
	"context"
	"log"
	"os"

	"github.com/m3rciful/buttonbot/bot"
	coreconfig "github.com/m3rciful/buttonbot/core/config"
	corecmd "github.com/m3rciful/buttonbot/core/cmd"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        coreconfig.Load,
		Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return bot.New(ctx, cfg)
		},
	})
	if err != nil {
		log.Printf("buttonbot: %v", err)
		os.Exit(1)
	}
}
