package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/manholepro/internal/agent"
	"github.com/dmitrijs2005/manholepro/internal/agent/config"
	"github.com/dmitrijs2005/manholepro/internal/buildinfo"
	"github.com/dmitrijs2005/manholepro/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	app, err := agent.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
