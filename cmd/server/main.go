package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/huddlehq/huddle/backend/internal/realtime"
	"github.com/huddlehq/huddle/backend/internal/router"
	"github.com/huddlehq/huddle/backend/internal/validators"
	"github.com/huddlehq/huddle/backend/pkg/config"
	"github.com/huddlehq/huddle/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase messaging; push falls back to Web Push only when
	// no credential is configured
	ctx := context.Background()
	var messagingClient *messaging.Client
	if firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath); err != nil {
		log.Printf("Firebase messaging unavailable: %v", err)
	} else {
		messagingClient = firebaseApp.MessagingClient
	}

	// Room broadcast channel registry: created once, drained on shutdown
	hub := realtime.NewHub()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Validator
	e.Validator = validators.NewValidator()

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, hub, messagingClient, cfg)

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Wait for interrupt, then drain connections before exiting
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
