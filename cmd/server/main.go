package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/agenthands/archetypes/internal/app"
	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/logging"
	"github.com/agenthands/archetypes/internal/server"
)

func main() {
	_ = godotenv.Load()

	boot := logging.NewLogger(config.LogConfig{Level: "info"})
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := app.LoadConfig(cfgPath, boot)
	if err != nil {
		boot.WithError(err).Fatal("invalid configuration")
	}
	logger := logging.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := app.OpenGraphStore(ctx, cfg.Memgraph, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open store")
	}
	defer st.Close(context.Background())

	pipeline, err := app.NewPipeline(ctx, cfg, st, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to build pipeline")
	}
	defer pipeline.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.NewServer(pipeline, logger).SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
