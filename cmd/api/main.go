package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"jerrygfit/api/internal/app"
	"jerrygfit/api/internal/config"
	"jerrygfit/api/internal/logging"
	"jerrygfit/api/internal/search"
	"jerrygfit/api/internal/session"
	"jerrygfit/api/internal/storage"
	"jerrygfit/api/internal/store"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("api stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, store.MigrationSource(cfg.MigrationsDir)); err != nil {
		return err
	}

	dataStore := store.NewPostgresStore(db)
	opts := app.Options{Logger: log}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		opts.Sessions = redisStore
		log.Info().Msg("refresh sessions in redis")
	} else {
		log.Info().Msg("refresh sessions in postgres")
	}

	var meili *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log)
	}
	opts.Search = search.NewService(meili, search.NewPgFTS(db), log)

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		avatars, err := storage.NewMinioStore(storage.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return err
		}
		if err := avatars.EnsureBucket(ctx); err != nil {
			log.Warn().Err(err).Str("bucket", cfg.MinioBucket).Msg("avatar bucket check failed")
		}
		opts.Avatars = avatars
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set; avatar uploads disabled")
	}

	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set; generation requests will fail with 503")
	}
	if !cfg.GoogleConfigured() {
		log.Info().Msg("google sign-in disabled")
	}

	service := app.New(cfg, dataStore, opts)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigins, log)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("JerryGFit API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
	log.Info().Msg("api stopped")
	return nil
}
