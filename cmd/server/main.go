package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dvloznov/transfer-tracker/internal/api/handlers"
	"github.com/dvloznov/transfer-tracker/internal/api/middleware"
	"github.com/dvloznov/transfer-tracker/internal/app"
	"github.com/dvloznov/transfer-tracker/internal/config"
	"github.com/dvloznov/transfer-tracker/internal/jobs"
	"github.com/dvloznov/transfer-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/transfer-tracker/internal/logger"
	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

func main() {
	// Parse command-line flags
	port := flag.String("port", "", "HTTP server port (overrides PORT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := logger.WithContext(context.Background(), log)

	if cfg.VerifyToken == "" {
		log.Warn().Msg("VERIFY_TOKEN is not set - webhook verification will always fail")
	}
	if cfg.AppSecret == "" {
		log.Warn().Msg("WHATSAPP_APP_SECRET is not set - webhook signatures are not checked")
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build processor")
	}
	defer application.Close()

	// Initialize job infrastructure
	jobQueue := inmemory.NewQueue(cfg.QueueSize, cfg.WorkerCount)

	// Workers outlive the HTTP server so queued messages drain on shutdown.
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.MessageJob) error {
		report := application.Processor.ProcessInboundMessage(ctx, job.Message)
		if n := report.Failed(); n > 0 {
			return fmt.Errorf("message %s: %d of %d records not written: %w",
				job.Message.ID, n, len(report.Results), pipeline.ErrPersistenceFailure)
		}
		return nil
	}

	if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}
	log.Info().Int("workers", cfg.WorkerCount).Int("queue_size", cfg.QueueSize).Msg("Job workers started")

	webhookHandler := handlers.NewWebhookHandler(cfg.VerifyToken, cfg.AppSecret, jobQueue, log)

	// Create router
	r := mux.NewRouter()
	r.HandleFunc("/", handlers.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/webhook", webhookHandler.Verify).Methods(http.MethodGet)
	r.HandleFunc("/webhook", webhookHandler.Receive).Methods(http.MethodPost)

	r.Use(
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting webhook server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for queued and in-flight messages
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
