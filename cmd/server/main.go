package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"printquote/internal/api"
	"printquote/internal/catalog"
	"printquote/internal/config"
	"printquote/internal/core"
	"printquote/internal/db"
	"printquote/internal/logging"
	"printquote/internal/slicer"
	"printquote/internal/webhook"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		logger.Fatal("failed to create upload directory", zap.Error(err))
	}

	conn, err := db.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer conn.Close()
	jobStore := db.NewJobStore(conn)

	catalogStore, err := catalog.NewStore(cfg.Catalog.Path, logger)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	prusa := slicer.New(slicer.Options{
		Binary:       cfg.Slicer.Binary,
		Profile:      cfg.Slicer.Profile,
		MaxDimension: cfg.Slicer.MaxDimension,
		Timeout:      cfg.Slicer.Timeout,
	}, logger)

	var sender core.WebhookSender
	var webhookSender *webhook.Sender
	if cfg.Webhook.URL != "" {
		webhookSender = webhook.NewSender(cfg.Webhook.URL, cfg.Webhook.Timeout, logger)
		sender = webhookSender
	}

	queue := core.NewQueue(core.QueueOptions{
		Store:         jobStore,
		Slicer:        prusa,
		Catalog:       catalogStore,
		Webhook:       sender,
		UploadDir:     cfg.Storage.UploadDir,
		BufferSize:    cfg.Queue.BufferSize,
		SweepInterval: cfg.Queue.SweepInterval,
		Retention:     time.Duration(cfg.Queue.RetentionDays) * 24 * time.Hour,
	}, logger)
	if err := queue.Start(); err != nil {
		logger.Fatal("failed to start job queue", zap.Error(err))
	}

	router := api.NewRouter(api.Deps{
		Queue:     queue,
		Jobs:      jobStore,
		Catalog:   catalogStore,
		Converter: prusa,
		Storage:   cfg.Storage,
	}, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	queue.Stop()
	if webhookSender != nil {
		webhookSender.Stop()
	}

	logger.Info("shutdown complete")
}
