// Command worker drains the email queue filled by the API server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"dealroom/internal/notification/email"
	"dealroom/internal/platform/config"
	"dealroom/internal/platform/logger"
	"dealroom/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.Environment)

	if cfg.Redis.URL == "" {
		log.Error("REDIS_URL is required for the worker")
		os.Exit(1)
	}
	redisOpt, err := redis.AsynqOptFromURL(cfg.Redis.URL)
	if err != nil {
		log.Error("invalid redis configuration", "error", err)
		os.Exit(1)
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Email.Concurrency,
		Queues:      map[string]int{cfg.Email.Queue: 1},
		Logger:      newAsynqLogger(log),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.WarnContext(ctx, "task failed",
				"type", task.Type(),
				"retry", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
	})

	sender := email.NewSender(email.SMTPConfig{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUser,
		Password: cfg.Email.SMTPPass,
		From:     cfg.Email.From,
	}, log)

	mux := asynq.NewServeMux()
	email.NewProcessor(sender, log).Register(mux)

	log.Info("starting email worker", "queue", cfg.Email.Queue, "concurrency", cfg.Email.Concurrency)
	// Run blocks until SIGTERM or SIGINT and then shuts the server down.
	if err := srv.Run(mux); err != nil {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
