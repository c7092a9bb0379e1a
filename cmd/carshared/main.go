package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"

	"carshare-backend/config"
	"carshare-backend/internal/api"
	"carshare-backend/internal/booking"
	"carshare-backend/internal/db"
	"carshare-backend/internal/notification"
	"carshare-backend/internal/reminder"
	"carshare-backend/internal/store"
	"carshare-backend/internal/ws"
)

func main() {
	logger := log.New(os.Stdout, "carshare-backend ", log.LstdFlags)

	// Optional .env for local development.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Println("Warning: VAPID keys are not configured; push notifications are disabled")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	scheduler := booking.NewScheduler(gormDB, cfg.Booking.PastGrace)
	logger.Println("booking scheduler initialized")

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	workerPool.Start(ctx)

	reminderSvc := reminder.NewService(&cfg.Booking, gormDB, workerPool)
	go reminderSvc.Run(ctx)

	hub := ws.NewHub()
	go hub.Run()

	handler := api.NewHandler(appStore, scheduler, workerPool, hub, &webpushOptions)
	router := api.NewRouter(handler, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
