package ports

import (
	"context"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/snapshot"
)

// SnapshotStore persists whole workflow sessions on behalf of the host. The
// engine never writes through this interface on its own; the host decides
// when to save and when to rehydrate.
type SnapshotStore interface {
	// Save upserts the snapshot for a session.
	Save(ctx context.Context, sessionID core.SessionID, snap snapshot.Snapshot) error

	// Load returns the stored snapshot, or core.ErrSnapshotNotFound.
	Load(ctx context.Context, sessionID core.SessionID) (*snapshot.Snapshot, error)

	// Delete removes a stored session. Deleting an absent session is not an
	// error.
	Delete(ctx context.Context, sessionID core.SessionID) error
}
