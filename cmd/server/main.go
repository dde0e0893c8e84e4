package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/realtime"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/router"
	"github.com/anonto42/inkwell/backend/pkg/broker"
	"github.com/anonto42/inkwell/backend/pkg/config"
	"github.com/anonto42/inkwell/backend/pkg/firebase"
	"github.com/anonto42/inkwell/backend/pkg/logger"
	"github.com/anonto42/inkwell/backend/validators"
	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.CloseDB()

	if err := router.Migrate(db.SQL); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	// Connect the pub/sub broker
	brokerManager := broker.NewManager(log)
	if err := brokerManager.Connect(ctx, cfg.Testing, cfg.RedisURL); err != nil {
		log.WithError(err).Fatal("Failed to connect to broker")
	}
	defer func() {
		if err := brokerManager.Disconnect(); err != nil {
			log.WithError(err).Error("Error disconnecting broker")
		}
	}()

	registry := realtime.NewRegistry(log)
	publisher := realtime.NewPublisher(brokerManager, log)
	listener := realtime.NewListener(brokerManager, registry, log)
	listener.Start(context.Background())
	defer listener.Stop()
	listenerDone := listener.Done()

	// Firebase ID tokens are accepted on the event stream when credentials are configured
	var streamAuth middleware.StreamAuthenticator = middleware.NewJWTStreamAuthenticator(cfg.JWTSecret)
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Firebase")
		}
		streamAuth = middleware.ChainStreamAuthenticator{
			streamAuth,
			middleware.NewFirebaseStreamAuthenticator(firebaseApp.AuthClient, repositories.NewPostgresUserRepository(db.SQL)),
		}
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Open event streams end when requestCtx is cancelled, which lets Shutdown drain them.
	requestCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()
	e.Server.BaseContext = func(net.Listener) context.Context { return requestCtx }
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, log)
	router.SetupRoutes(e, router.Dependencies{
		DB:         db.SQL,
		Broker:     brokerManager,
		Registry:   registry,
		Publisher:  publisher,
		StreamAuth: streamAuth,
		JWTSecret:  cfg.JWTSecret,
		Heartbeat:  cfg.HeartbeatInterval,
		QueueSize:  cfg.StreamQueueSize,
		Log:        log,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Starting HTTP server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case <-listenerDone:
		log.Error("Notification listener exited, shutting down")
	case err := <-serverErr:
		log.WithError(err).Error("HTTP server failed")
	}

	cancelRequests()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	// deferred: listener stop, broker disconnect, database close
}
