// Package main is the entry point for the absence sync server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/absence-sync/backend/internal/api"
	"github.com/absence-sync/backend/internal/config"
	"github.com/absence-sync/backend/internal/exchange"
	"github.com/absence-sync/backend/internal/portal"
	"github.com/absence-sync/backend/internal/storage"
	"github.com/absence-sync/backend/internal/sync"
	"github.com/absence-sync/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	addr := flag.String("addr", ":8088", "HTTP server address")
	dataDir := flag.String("data", "/data", "Data directory for SQLite database")
	flag.Parse()

	log.Printf("Starting absence sync server (version: %s)...", version)

	cfg := config.DefaultConfig()

	// Initialize database
	db, err := storage.NewDB(*dataDir + "/absence-sync.db")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	identityRepo := storage.NewIdentityRepository(db)
	eventRepo := storage.NewEventRepository(db)

	// Initialize remote clients
	portalClient, err := portal.NewClient(cfg.PortalURL, cfg.PortalCompany, cfg.Timeout)
	if err != nil {
		log.Fatalf("Failed to create portal client: %v", err)
	}
	sessionCache := portal.NewSessionCache(portalClient, cfg.SessionTTL)
	portalService := portal.NewService(portalClient, sessionCache)

	exchangeClient, err := exchange.NewClient(cfg.ExchangeURL, cfg.ExchangeDomain, cfg.Timeout)
	if err != nil {
		log.Fatalf("Failed to create calendar service client: %v", err)
	}
	exchangeService := exchange.NewService(exchangeClient)

	// Initialize the sync engine
	reconciler := sync.NewReconciler(db, eventRepo)
	pusher := sync.NewPusher(eventRepo, exchangeService)
	orchestrator := sync.NewOrchestrator(
		identityRepo,
		portalService,
		portal.NewParser(),
		reconciler,
		pusher,
		cfg.LookaheadMonths,
	)

	// Initialize the scheduler
	scheduler := sync.NewScheduler(orchestrator, hub, cfg.SyncIntervalMin)
	if err := scheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start sync scheduler: %v", err)
	}

	// Initialize HTTP router
	router := api.NewRouter(api.RouterConfig{
		DB:           db,
		Identities:   identityRepo,
		Events:       eventRepo,
		Orchestrator: orchestrator,
		Hub:          hub,
		AdminToken:   cfg.AdminToken,
	})

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // batch sync endpoints run synchronously
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
