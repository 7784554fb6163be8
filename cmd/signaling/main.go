package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/roulette-signaling/config"
	"github.com/mossy-p/roulette-signaling/internal/handlers"
	"github.com/mossy-p/roulette-signaling/internal/logger"
	"github.com/mossy-p/roulette-signaling/internal/metrics"
	"github.com/mossy-p/roulette-signaling/internal/redis"
	"github.com/mossy-p/roulette-signaling/internal/signaling"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	observers := signaling.Observers{m}

	routerCfg := handlers.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
		SendBuffer:     cfg.SendBuffer,
		StaticDir:      cfg.StaticDir,
		Metrics:        m.Handler(),
		Logger:         zl,
	}

	// Presence mirror in Redis is optional
	if cfg.Redis.Enabled {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		zl.Info("Redis connection established", zap.String("addr", cfg.Redis.Addr()))

		store := redis.NewStore(client)
		if err := store.Reset(ctx); err != nil {
			zl.Warn("failed to clear stale presence", zap.Error(err))
		}

		mirror := redis.NewMirror(store, zl, 1024)
		go mirror.Run(ctx)

		observers = append(observers, mirror)
		routerCfg.Matches = store
	}

	hub := signaling.NewHub(zl, signaling.WithObserver(observers))
	go hub.Run(ctx)
	routerCfg.Hub = hub

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("Starting WebRTC signaling server", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
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

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Websocket connections are hijacked; the hub closes them once ctx is done
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-hub.Done()
	return nil
}
