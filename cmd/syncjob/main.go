// Package main is the one-shot sync job, intended for cron or container
// schedulers: it runs a pull, push or full cycle once and prints the result
// mapping as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/absence-sync/backend/internal/config"
	"github.com/absence-sync/backend/internal/exchange"
	"github.com/absence-sync/backend/internal/portal"
	"github.com/absence-sync/backend/internal/storage"
	"github.com/absence-sync/backend/internal/sync"
)

func main() {
	dataDir := flag.String("data", "/data", "Data directory for SQLite database")
	mode := flag.String("mode", "both", "Sync mode: pull, push or both")
	flag.Parse()

	cfg := config.DefaultConfig()

	db, err := storage.NewDB(*dataDir + "/absence-sync.db")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	identityRepo := storage.NewIdentityRepository(db)
	eventRepo := storage.NewEventRepository(db)

	portalClient, err := portal.NewClient(cfg.PortalURL, cfg.PortalCompany, cfg.Timeout)
	if err != nil {
		log.Fatalf("Failed to create portal client: %v", err)
	}
	portalService := portal.NewService(portalClient, portal.NewSessionCache(portalClient, cfg.SessionTTL))

	exchangeClient, err := exchange.NewClient(cfg.ExchangeURL, cfg.ExchangeDomain, cfg.Timeout)
	if err != nil {
		log.Fatalf("Failed to create calendar service client: %v", err)
	}

	orchestrator := sync.NewOrchestrator(
		identityRepo,
		portalService,
		portal.NewParser(),
		sync.NewReconciler(db, eventRepo),
		sync.NewPusher(eventRepo, exchange.NewService(exchangeClient)),
		cfg.LookaheadMonths,
	)

	ctx := context.Background()
	var result any

	switch *mode {
	case "pull":
		log.Println("Syncing from portal...")
		result, err = orchestrator.SyncPull(ctx)
	case "push":
		log.Println("Syncing to calendar service...")
		result, err = orchestrator.SyncPush(ctx)
	case "both":
		log.Println("Running full sync cycle...")
		result, err = orchestrator.SyncBoth(ctx)
	default:
		log.Fatalf("Unknown mode %q (want pull, push or both)", *mode)
	}

	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	log.Println("Sync done")
}
