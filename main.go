package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"medremind.app/cloud/handlers"
	"medremind.app/cloud/internal/config"
	"medremind.app/cloud/internal/email"
	"medremind.app/cloud/internal/logger"
	"medremind.app/cloud/internal/notify"
	"medremind.app/cloud/internal/trigger"
	"medremind.app/cloud/storage"
)

func main() {
	godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		logger.Error("Invalid configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", map[string]interface{}{
			"path":  cfg.DatabasePath,
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.New(store, email.NewSMTPSender(cfg), cfg)

	daily, err := trigger.New(notifier, cfg)
	if err != nil {
		logger.Error("Failed to set up daily trigger", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daily.Start(ctx)

	server := handlers.NewServer(store, notifier, cfg)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	logger.Info("Medication reminder service starting", map[string]interface{}{
		"port":     cfg.Port,
		"database": cfg.DatabasePath,
		"timezone": cfg.Timezone,
	})

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server stopped", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}
