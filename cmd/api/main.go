package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/erdsync/erd-sync/config"
	authrepo "github.com/erdsync/erd-sync/internal/auth/repository"
	authservice "github.com/erdsync/erd-sync/internal/auth/service"
	"github.com/erdsync/erd-sync/internal/bootstrap"
	dochttp "github.com/erdsync/erd-sync/internal/documents/http"
	docrepo "github.com/erdsync/erd-sync/internal/documents/repository"
	docservice "github.com/erdsync/erd-sync/internal/documents/service"
	"github.com/erdsync/erd-sync/internal/logging"
	"github.com/erdsync/erd-sync/internal/retention"
	"github.com/erdsync/erd-sync/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("", "", os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(cfg.App.Environment, cfg.App.LogLevel, os.Stdout)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	sqlDB, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := postgres.Migrate(ctx, sqlDB); err != nil {
		return err
	}

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.PostgresURL()})
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	authSvc := authservice.NewAuthService(authrepo.NewUserRepository(pool), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	docSvc := docservice.NewDocumentService(
		docrepo.NewDocumentRepository(sqlDB),
		docrepo.NewDocumentCache(rdb, cfg.Redis.CacheTTL),
		log,
	)

	sched := retention.NewScheduler(docSvc, cfg.Retention.Keep, cfg.Retention.Schedule, log)
	if err := sched.Start(); err != nil {
		return err
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:  "erd-sync",
		Version:      cfg.App.Version,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Log:          log,
		DB:           pool,
		Redis:        rdb,
		Auth:         authSvc,
		Tokens:       authSvc,
		Documents:    docSvc,
		PatchLimiter: dochttp.NewPatchLimiter(cfg.Limits.PatchRate, cfg.Limits.PatchBurst),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.App.Environment).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
