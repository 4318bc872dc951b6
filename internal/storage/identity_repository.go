package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/absence-sync/backend/internal/storage/models"
)

// RemoteSystem names one of the two external systems an identity syncs with.
type RemoteSystem string

const (
	RemotePortal   RemoteSystem = "portal"
	RemoteExchange RemoteSystem = "exchange"
)

const identityColumns = `id, name, is_admin, sync_enabled,
	portal_username, portal_password, exchange_username, exchange_password,
	portal_last_sync_at, portal_last_sync_status, portal_last_sync_error,
	exchange_last_sync_at, exchange_last_sync_status, exchange_last_sync_error,
	created_at, updated_at`

// IdentityRepository provides data access for identities.
type IdentityRepository struct {
	BaseRepository
}

// NewIdentityRepository creates a new identity repository.
func NewIdentityRepository(db *DB) *IdentityRepository {
	return &IdentityRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new identity.
func (r *IdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	identity.ID = GenerateID()
	identity.CreatedAt = r.Now()
	identity.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO identities (
			id, name, is_admin, sync_enabled,
			portal_username, portal_password, exchange_username, exchange_password,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		identity.ID, identity.Name, identity.IsAdmin, identity.SyncEnabled,
		identity.PortalUsername, identity.PortalPassword,
		identity.ExchangeUsername, identity.ExchangePassword,
		identity.CreatedAt, identity.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting identity: %w", err)
	}

	return nil
}

// GetByID retrieves an identity by its ID.
func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	return r.scanIdentityRow(row)
}

// GetByExchangeUsername retrieves an identity by its calendar-service username.
func (r *IdentityRepository) GetByExchangeUsername(ctx context.Context, username string) (*models.Identity, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE exchange_username = ?`, username)
	return r.scanIdentityRow(row)
}

// List retrieves all identities.
func (r *IdentityRepository) List(ctx context.Context) ([]models.Identity, error) {
	rows, err := r.DB().QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying identities: %w", err)
	}
	defer rows.Close()

	return r.scanIdentities(rows)
}

// ListSyncEnabled retrieves all identities with syncing enabled.
func (r *IdentityRepository) ListSyncEnabled(ctx context.Context) ([]models.Identity, error) {
	rows, err := r.DB().QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE sync_enabled = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying sync-enabled identities: %w", err)
	}
	defer rows.Close()

	return r.scanIdentities(rows)
}

// Update updates an existing identity. Passwords are written as provided;
// callers must preserve the stored values when no new password was given.
func (r *IdentityRepository) Update(ctx context.Context, identity *models.Identity) error {
	identity.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE identities SET
			name = ?, is_admin = ?, sync_enabled = ?,
			portal_username = ?, portal_password = ?,
			exchange_username = ?, exchange_password = ?,
			updated_at = ?
		WHERE id = ?
	`,
		identity.Name, identity.IsAdmin, identity.SyncEnabled,
		identity.PortalUsername, identity.PortalPassword,
		identity.ExchangeUsername, identity.ExchangePassword,
		identity.UpdatedAt, identity.ID,
	)

	if err != nil {
		return fmt.Errorf("updating identity: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("identity not found: %s", identity.ID)
	}

	return nil
}

// Delete removes an identity. Its absence events cascade.
func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM identities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting identity: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("identity not found: %s", id)
	}

	return nil
}

// StampSyncStatus records the outcome of a sync attempt against one remote
// system. The timestamp is always written, even on failure, so "never synced"
// and "last attempt failed" stay distinguishable.
func (r *IdentityRepository) StampSyncStatus(ctx context.Context, id string, system RemoteSystem, status string, failed bool, at time.Time) error {
	var query string
	switch system {
	case RemotePortal:
		query = `UPDATE identities SET portal_last_sync_at = ?, portal_last_sync_status = ?, portal_last_sync_error = ?, updated_at = ? WHERE id = ?`
	case RemoteExchange:
		query = `UPDATE identities SET exchange_last_sync_at = ?, exchange_last_sync_status = ?, exchange_last_sync_error = ?, updated_at = ? WHERE id = ?`
	default:
		return fmt.Errorf("unknown remote system: %s", system)
	}

	_, err := r.DB().ExecContext(ctx, query, at, status, failed, r.Now(), id)
	if err != nil {
		return fmt.Errorf("stamping %s sync status: %w", system, err)
	}

	return nil
}

func (r *IdentityRepository) scanIdentityRow(row *sql.Row) (*models.Identity, error) {
	identity := &models.Identity{}

	err := row.Scan(
		&identity.ID, &identity.Name, &identity.IsAdmin, &identity.SyncEnabled,
		&identity.PortalUsername, &identity.PortalPassword,
		&identity.ExchangeUsername, &identity.ExchangePassword,
		&identity.PortalLastSyncAt, &identity.PortalLastSyncStatus, &identity.PortalLastSyncError,
		&identity.ExchangeLastSyncAt, &identity.ExchangeLastSyncStatus, &identity.ExchangeLastSyncError,
		&identity.CreatedAt, &identity.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying identity: %w", err)
	}

	return identity, nil
}

func (r *IdentityRepository) scanIdentities(rows *sql.Rows) ([]models.Identity, error) {
	var identities []models.Identity
	for rows.Next() {
		var identity models.Identity
		if err := rows.Scan(
			&identity.ID, &identity.Name, &identity.IsAdmin, &identity.SyncEnabled,
			&identity.PortalUsername, &identity.PortalPassword,
			&identity.ExchangeUsername, &identity.ExchangePassword,
			&identity.PortalLastSyncAt, &identity.PortalLastSyncStatus, &identity.PortalLastSyncError,
			&identity.ExchangeLastSyncAt, &identity.ExchangeLastSyncStatus, &identity.ExchangeLastSyncError,
			&identity.CreatedAt, &identity.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning identity: %w", err)
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}
