package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/config"
	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/lumen/internal/logging"
	"github.com/Nixie-Tech-LLC/lumen/internal/metrics"
	"github.com/Nixie-Tech-LLC/lumen/internal/mqtt"
	"github.com/Nixie-Tech-LLC/lumen/internal/pairing"
	"github.com/Nixie-Tech-LLC/lumen/internal/presence"
	"github.com/Nixie-Tech-LLC/lumen/internal/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// initialize PostgreSQL
	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	// run pending migrations
	if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
		return err
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	m := metrics.New(cfg.MetricsEnabled)
	store := db.NewStore(conn)
	registry := presence.NewRegistry(redis.NewPresenceStore(rdb), m)

	// the broker drops subscriptions with the session, so they are renewed on every connect
	opts := mqtt.Options(cfg.MQTT, "lumen-server-"+uuid.NewString())
	opts.SetOnConnectHandler(func(client paho.Client) {
		log.Info().Msg("connected to MQTT broker, subscribing to presence")
		go func() {
			if err := registry.Subscribe(ctx, client); err != nil {
				log.Error().Err(err).Msg("presence subscription failed")
			}
		}()
	})
	broker, err := mqtt.Connect(ctx, nil, opts)
	if err != nil {
		return err
	}
	defer broker.Disconnect(250)

	files, err := InitStorage(cfg.Storage)
	if err != nil {
		return err
	}

	env := Environment{
		Config:   cfg,
		Store:    store,
		Storage:  files,
		Pairing:  pairing.NewService(redis.NewPairingStore(rdb), store, m, cfg.JWTSecret),
		Presence: registry,
		Notifier: mqtt.NewNotifier(broker),
		Metrics:  m,
	}

	// set up gin router
	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(m), gin.Recovery())
	RegisterRoutes(r, env)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           gzhttp.GzipHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Msg("listening")
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
