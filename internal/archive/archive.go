// Package archive defines the raw snapshot store. Every successful fetch
// can be archived as the unmapped source payload, keyed by external ID
// and fetch time, so historical field values survive later overwrites.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotStore persists raw fetch payloads.
type SnapshotStore interface {
	// Save uploads data to a specified object path in the blob store.
	Save(ctx context.Context, objectName string, data []byte) error
}

// ObjectName builds the archive path for one fetch:
// <prefix>/<external_id>/<RFC3339 fetch time>.json.
func ObjectName(prefix, externalID string, fetchedAt time.Time) string {
	return fmt.Sprintf("%s/%s/%s.json", prefix, externalID, fetchedAt.UTC().Format(time.RFC3339))
}

// Snapshot marshals the raw payload and saves it under the archive path.
func Snapshot(ctx context.Context, store SnapshotStore, prefix, externalID string, fetchedAt time.Time, raw map[string]any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	name := ObjectName(prefix, externalID, fetchedAt)
	if err := store.Save(ctx, name, data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return nil
}

// NoOp is a snapshot store that performs no operations. It is useful for
// running without an archive bucket configured.
type NoOp struct{}

// Save for NoOp does nothing and always returns nil.
func (NoOp) Save(_ context.Context, _ string, _ []byte) error {
	return nil
}
