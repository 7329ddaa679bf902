package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school-health-service/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (local development only)
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	application := app.New()

	// Run server in goroutine
	go func() {
		if err := application.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	slog.Info("server stopped")
}
