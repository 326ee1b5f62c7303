// Package persist provides the durable per-tenant snapshot store backed
// by SQLite.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/DoriNori7/BnuuyBotGithub/internal/domain/entry"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	tenant_id  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`

// Store persists queue snapshots, one row per tenant. Writers for
// different tenants never block each other beyond the driver's own
// serialization; writers for the same tenant are serialized by the
// owning scheduler.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create store directory")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open snapshot store")
	}
	// SQLite prefers a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create snapshot schema")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the snapshot for a tenant.
func (s *Store) Save(ctx context.Context, tenantID string, snap entry.Snapshot) error {
	if snap.Entries == nil {
		snap.Entries = []entry.Entry{}
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "failed to marshal snapshot")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots(tenant_id, payload, updated_at) VALUES(?, ?, datetime('now'))
		 ON CONFLICT(tenant_id) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		tenantID, string(payload),
	)
	return errors.Wrap(err, "failed to save snapshot")
}

// Load returns the snapshot for a tenant, or (nil, nil) when absent.
// Absence is a normal state, not an error.
func (s *Store) Load(ctx context.Context, tenantID string) (*entry.Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE tenant_id = ?`, tenantID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load snapshot")
	}
	var snap entry.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal snapshot")
	}
	return &snap, nil
}

// Delete removes a tenant's snapshot.
func (s *Store) Delete(ctx context.Context, tenantID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE tenant_id = ?`, tenantID)
	return errors.Wrap(err, "failed to delete snapshot")
}

// Tenants returns the tenant IDs that currently hold a snapshot.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tenant_id FROM snapshots ORDER BY tenant_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list snapshots")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan tenant id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "failed to iterate snapshots")
}
