package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/bookhub-dev/bookhub/internal/config"
	"github.com/bookhub-dev/bookhub/internal/events"
	"github.com/bookhub-dev/bookhub/internal/logger"
	"github.com/bookhub-dev/bookhub/internal/server"
	"github.com/bookhub-dev/bookhub/internal/tasks"
	"github.com/bookhub-dev/bookhub/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init("worker", cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	log.Info().Str("version", version).Msg("Starting BookHub Asynq worker")

	// Initialize database (reuse server's database initialization)
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server (needed for DB)")
	}
	db := srv.GetDB()

	// Initialize Asynq client (the loan scheduler publishes through it)
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})
	defer asynqClient.Close()
	publisher := events.NewPublisher(asynqClient, log)

	// Initialize Asynq server
	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: &asynqLogger{log: log},
		},
	)

	// Register one recorder for every event type
	mux := asynq.NewServeMux()
	eventTypes := []string{
		tasks.TypeUserCreated,
		tasks.TypeUserLoggedIn,
		tasks.TypePasswordReset,
		tasks.TypeBookAdded,
		tasks.TypeBookDeleted,
		tasks.TypeBookBorrowed,
		tasks.TypeBookReturned,
		tasks.TypeBookOverdue,
		tasks.TypeCollectionCreated,
		tasks.TypeCollectionDeleted,
		tasks.TypeResourceAdded,
		tasks.TypeResourceDeleted,
	}
	for _, eventType := range eventTypes {
		mux.HandleFunc(eventType, func(ctx context.Context, t *asynq.Task) error {
			return workers.HandleEvent(ctx, t, db, log)
		})
	}

	// Start the overdue-loan scheduler goroutine
	go workers.StartLoanScheduler(publisher, db, cfg, log)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Info().Msg("Starting Asynq worker server...")
		if err := asynqServer.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Asynq worker server failed")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	asynqServer.Shutdown()

	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger is a wrapper to make zerolog compatible with Asynq's logger interface
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.log.Info().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Fatal().Msg(fmt.Sprint(args...))
}
