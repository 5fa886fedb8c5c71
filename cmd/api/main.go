package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "travel_booking/internal/adapters/http_server"
	"travel_booking/internal/adapters/images"
	"travel_booking/internal/adapters/observability"
	redisad "travel_booking/internal/adapters/redis"
	"travel_booking/internal/app"
	"travel_booking/internal/domain"
	"travel_booking/internal/shared"
	"travel_booking/internal/storage/memory"
	mongostore "travel_booking/internal/storage/mongo"
	mysqlrepo "travel_booking/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store init failed")
	}
	defer closeStore()
	log.Info().Str("driver", cfg.StoreDriver).Msg("store ready")

	// cache (optional)
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; list cache disabled")
			_ = rc.Close()
		} else {
			cache = rc
			defer rc.Close()
		}
	}

	// images
	imgs, imgHandler, err := openImages(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.ImageDriver).Msg("image store init failed")
	}

	q := app.NewQueryService(store, cache, cfg.CacheTTL)
	c := app.NewCommandService(store, imgs, cache)

	// http
	srv := server.New(cfg.RequestTimeout, cfg.CORSOrigins...)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	if imgHandler != nil {
		srv.Mount(images.URLPrefix+"*", imgHandler)
	}
	srv.MountHandlers(&server.Handlers{Q: q, C: c, MaxUploadBytes: cfg.MaxUploadBytes()})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

func openStore(ctx context.Context, cfg shared.Config) (domain.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return memory.New(), func() {}, nil

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		return mysqlrepo.New(db), func() { _ = db.Close() }, nil

	case "mongo", "":
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, st, err := mongostore.Connect(connCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// openImages returns the image store and, for local storage, the handler
// that serves the files.
func openImages(ctx context.Context, cfg shared.Config) (domain.ImageStore, http.Handler, error) {
	switch cfg.ImageDriver {
	case "s3":
		s3s, err := images.NewS3(cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		if err := s3s.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		log.Info().Str("bucket", s3s.Bucket()).Msg("images stored in S3")
		return s3s, nil, nil

	case "local", "":
		ls, err := images.NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("dir", cfg.UploadDir).Msg("images stored on disk")
		return ls, ls.Handler(), nil
	}
	return nil, nil, fmt.Errorf("unknown IMAGE_DRIVER %q", cfg.ImageDriver)
}
