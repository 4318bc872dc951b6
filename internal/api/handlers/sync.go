package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/absence-sync/backend/internal/api/middleware"
	"github.com/absence-sync/backend/internal/storage"
	"github.com/absence-sync/backend/internal/sync"
)

// Batch sync endpoints. These run synchronously and return the per-identity
// result mapping; failures are entries in the mapping, never an HTTP error.

// SyncPull triggers the pull cycle for all sync-enabled identities.
func SyncPull(orchestrator *sync.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := orchestrator.SyncPull(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Pull batch failed to start")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}
}

// SyncPush triggers the push cycle for all sync-enabled identities.
func SyncPush(orchestrator *sync.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := orchestrator.SyncPush(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Push batch failed to start")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}
}

// SyncBoth triggers a full pull-then-push cycle.
func SyncBoth(orchestrator *sync.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := orchestrator.SyncBoth(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Sync batch failed to start")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// SyncIdentity triggers pull-then-push for one identity, regardless of its
// enabled flag.
func SyncIdentity(identities *storage.IdentityRepository, orchestrator *sync.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		identity, err := identities.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query identity")
			return
		}
		if identity == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Identity not found")
			return
		}

		result := orchestrator.SyncIdentity(r.Context(), identity)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
