package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/absence-sync/backend/internal/api/middleware"
	"github.com/absence-sync/backend/internal/storage"
	"github.com/absence-sync/backend/internal/storage/models"
)

// Identity request/response types. Passwords are accepted on create and
// update but never echoed back.

type CreateIdentityRequest struct {
	Name             string `json:"name"`
	IsAdmin          bool   `json:"is_admin"`
	SyncEnabled      bool   `json:"sync_enabled"`
	PortalUsername   string `json:"portal_username"`
	PortalPassword   string `json:"portal_password"`
	ExchangeUsername string `json:"exchange_username"`
	ExchangePassword string `json:"exchange_password"`
}

type UpdateIdentityRequest struct {
	Name             string  `json:"name"`
	IsAdmin          bool    `json:"is_admin"`
	SyncEnabled      bool    `json:"sync_enabled"`
	PortalUsername   string  `json:"portal_username"`
	PortalPassword   *string `json:"portal_password,omitempty"`
	ExchangeUsername string  `json:"exchange_username"`
	ExchangePassword *string `json:"exchange_password,omitempty"`
}

type IdentityResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	IsAdmin          bool       `json:"is_admin"`
	SyncEnabled      bool       `json:"sync_enabled"`
	PortalUsername   string     `json:"portal_username"`
	ExchangeUsername string     `json:"exchange_username"`
	PortalLastSync   *time.Time `json:"portal_last_sync_at,omitempty"`
	PortalStatus     *string    `json:"portal_last_sync_status,omitempty"`
	PortalError      bool       `json:"portal_last_sync_error"`
	ExchangeLastSync *time.Time `json:"exchange_last_sync_at,omitempty"`
	ExchangeStatus   *string    `json:"exchange_last_sync_status,omitempty"`
	ExchangeError    bool       `json:"exchange_last_sync_error"`
	SyncSummary      string     `json:"sync_summary"`
}

func identityResponse(identity *models.Identity) IdentityResponse {
	return IdentityResponse{
		ID:               identity.ID,
		Name:             identity.Name,
		IsAdmin:          identity.IsAdmin,
		SyncEnabled:      identity.SyncEnabled,
		PortalUsername:   identity.PortalUsername,
		ExchangeUsername: identity.ExchangeUsername,
		PortalLastSync:   identity.PortalLastSyncAt,
		PortalStatus:     identity.PortalLastSyncStatus,
		PortalError:      identity.PortalLastSyncError,
		ExchangeLastSync: identity.ExchangeLastSyncAt,
		ExchangeStatus:   identity.ExchangeLastSyncStatus,
		ExchangeError:    identity.ExchangeLastSyncError,
		SyncSummary:      identity.SyncSummary(time.Now().UTC()),
	}
}

// ListIdentities returns all identities.
func ListIdentities(identities *storage.IdentityRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := identities.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query identities")
			return
		}

		responses := make([]IdentityResponse, 0, len(all))
		for i := range all {
			responses = append(responses, identityResponse(&all[i]))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(responses)
	}
}

// CreateIdentity adds a new identity.
func CreateIdentity(identities *storage.IdentityRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateIdentityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" || req.PortalUsername == "" || req.ExchangeUsername == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Name and both usernames are required")
			return
		}
		if req.PortalPassword == "" || req.ExchangePassword == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Both passwords are required")
			return
		}

		identity := &models.Identity{
			Name:             req.Name,
			IsAdmin:          req.IsAdmin,
			SyncEnabled:      req.SyncEnabled,
			PortalUsername:   req.PortalUsername,
			PortalPassword:   req.PortalPassword,
			ExchangeUsername: req.ExchangeUsername,
			ExchangePassword: req.ExchangePassword,
		}

		if err := identities.Create(r.Context(), identity); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create identity")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(identityResponse(identity))
	}
}

// GetIdentity returns one identity by ID.
func GetIdentity(identities *storage.IdentityRepository) http.HandlerFunc {
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

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(identityResponse(identity))
	}
}

// UpdateIdentity updates an identity. Omitted passwords keep their stored
// values.
func UpdateIdentity(identities *storage.IdentityRepository) http.HandlerFunc {
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

		var req UpdateIdentityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" || req.PortalUsername == "" || req.ExchangeUsername == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Name and both usernames are required")
			return
		}

		identity.Name = req.Name
		identity.IsAdmin = req.IsAdmin
		identity.SyncEnabled = req.SyncEnabled
		identity.PortalUsername = req.PortalUsername
		identity.ExchangeUsername = req.ExchangeUsername
		if req.PortalPassword != nil {
			identity.PortalPassword = *req.PortalPassword
		}
		if req.ExchangePassword != nil {
			identity.ExchangePassword = *req.ExchangePassword
		}

		if err := identities.Update(r.Context(), identity); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update identity")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(identityResponse(identity))
	}
}

// DeleteIdentity removes an identity; its absence events cascade.
func DeleteIdentity(identities *storage.IdentityRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := identities.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Identity not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
