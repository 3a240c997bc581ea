package main

import (
	"context"
	"os"

	"github.com/erdsync/erd-sync/config"
	"github.com/erdsync/erd-sync/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("", "", os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(cfg.App.Environment, cfg.App.LogLevel, os.Stderr)

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: worker <prune|migrate> [keep]")
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "prune":
		err = RunPrune(ctx, cfg, log, os.Args[2:])
	case "migrate":
		err = RunMigrate(ctx, cfg, log)
	default:
		log.Fatal().Msgf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
	}
}
