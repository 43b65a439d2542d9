package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/podushkina/mailqueue/internal/api"
	"github.com/podushkina/mailqueue/internal/config"
	"github.com/podushkina/mailqueue/internal/mail"
	"github.com/podushkina/mailqueue/internal/queue"
	"github.com/podushkina/mailqueue/internal/status"
	"github.com/podushkina/mailqueue/internal/worker"
)

func main() {
	cfg := config.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	q, err := queue.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer q.Close()
	log.Info("connected to redis", "addr", cfg.RedisAddr)

	sender, err := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	if err != nil {
		log.Error("failed to configure smtp sender", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(q, sender, log, worker.Options{
		Workers:    cfg.WorkerCount,
		From:       cfg.SenderEmail,
		RetryDelay: cfg.RetryDelay,
	})
	pool.Start(ctx)

	handler := api.NewHandler(q, status.NewResolver(q), log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	pool.Stop()
	log.Info("server stopped")
}
