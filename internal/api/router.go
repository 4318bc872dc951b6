// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"github.com/gorilla/mux"

	"github.com/absence-sync/backend/internal/api/handlers"
	"github.com/absence-sync/backend/internal/api/middleware"
	"github.com/absence-sync/backend/internal/storage"
	"github.com/absence-sync/backend/internal/sync"
	"github.com/absence-sync/backend/internal/websocket"
)

// RouterConfig carries the collaborators the routes need.
type RouterConfig struct {
	DB           *storage.DB
	Identities   *storage.IdentityRepository
	Events       *storage.EventRepository
	Orchestrator *sync.Orchestrator
	Hub          *websocket.Hub
	AdminToken   string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(cfg.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(cfg.DB, cfg.Hub)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(cfg.Hub)).Methods("GET")

	// Identity endpoints
	api.HandleFunc("/identities", handlers.ListIdentities(cfg.Identities)).Methods("GET")
	api.HandleFunc("/identities", handlers.CreateIdentity(cfg.Identities)).Methods("POST")
	api.HandleFunc("/identities/{id}", handlers.GetIdentity(cfg.Identities)).Methods("GET")
	api.HandleFunc("/identities/{id}", handlers.UpdateIdentity(cfg.Identities)).Methods("PUT")
	api.HandleFunc("/identities/{id}", handlers.DeleteIdentity(cfg.Identities)).Methods("DELETE")
	api.HandleFunc("/identities/{id}/events", handlers.ListIdentityEvents(cfg.Identities, cfg.Events)).Methods("GET")

	// Batch sync endpoints, admin gated
	admin := api.NewRoute().Subrouter()
	admin.Use(middleware.RequireAdmin(cfg.AdminToken))
	admin.HandleFunc("/sync/pull", handlers.SyncPull(cfg.Orchestrator)).Methods("POST")
	admin.HandleFunc("/sync/push", handlers.SyncPush(cfg.Orchestrator)).Methods("POST")
	admin.HandleFunc("/sync", handlers.SyncBoth(cfg.Orchestrator)).Methods("POST")
	admin.HandleFunc("/identities/{id}/sync", handlers.SyncIdentity(cfg.Identities, cfg.Orchestrator)).Methods("POST")

	return r
}
