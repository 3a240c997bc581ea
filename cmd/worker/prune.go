package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/erdsync/erd-sync/config"
	docrepo "github.com/erdsync/erd-sync/internal/documents/repository"
	"github.com/erdsync/erd-sync/internal/retention"
	"github.com/erdsync/erd-sync/internal/storage/postgres"
)

// RunPrune trims version history once. An optional argument overrides VERSION_KEEP.
func RunPrune(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string) error {
	keep := cfg.Retention.Keep
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("keep must be a positive integer, got %q", args[0])
		}
		keep = n
	}

	db, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	sched := retention.NewScheduler(docrepo.NewDocumentRepository(db), keep, cfg.Retention.Schedule, log)
	_, err = sched.RunOnce(ctx)
	return err
}

func RunMigrate(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info().Msg("schema applied")
	return nil
}
