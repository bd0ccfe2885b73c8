// Package postgres persists workflow snapshots as JSONB documents. This is
// host-side infrastructure: the engine itself never writes here.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/snapshot"
	"github.com/SNUH-NSTRI/kcd2025-sub001/ports"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS workflow_snapshots (
	session_id TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// SnapshotStoreImpl implements ports.SnapshotStore for PostgreSQL
type SnapshotStoreImpl struct {
	db *sqlx.DB
}

// NewSnapshotStore creates a new PostgreSQL snapshot store
func NewSnapshotStore(db *sqlx.DB) ports.SnapshotStore {
	return &SnapshotStoreImpl{db: db}
}

// Migrate creates the snapshot table if it does not exist
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("migrate workflow_snapshots: %w", err)
	}
	return nil
}

// Save upserts the snapshot for a session
func (s *SnapshotStoreImpl) Save(ctx context.Context, sessionID core.SessionID, snap snapshot.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_snapshots (session_id, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_id) DO UPDATE SET payload = $2, updated_at = NOW()
	`, sessionID.String(), payload)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", sessionID, err)
	}
	return nil
}

// Load returns the stored snapshot for a session
func (s *SnapshotStoreImpl) Load(ctx context.Context, sessionID core.SessionID) (*snapshot.Snapshot, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, `
		SELECT payload FROM workflow_snapshots WHERE session_id = $1
	`, sessionID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", sessionID, err)
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", sessionID, err)
	}
	return &snap, nil
}

// Delete removes a stored session; deleting an absent session is a no-op
func (s *SnapshotStoreImpl) Delete(ctx context.Context, sessionID core.SessionID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM workflow_snapshots WHERE session_id = $1
	`, sessionID.String())
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", sessionID, err)
	}
	return nil
}
