// Package store defines the persistence interface for profile records.
// The interface decouples the cache layer from Postgres so tests can
// substitute an in-memory fake.
package store

import (
	"context"
	"errors"

	"github.com/JakeFAU/profile-vault/internal/profile"
)

// ErrNotFound is returned when no row exists for the requested URL.
var ErrNotFound = errors.New("profile not found")

// ProfileStore persists profile records keyed by their source URL.
type ProfileStore interface {
	// FindByURL returns the stored record for a profile URL, or
	// ErrNotFound when the profile has never been fetched.
	FindByURL(ctx context.Context, linkedinURL string) (*profile.Record, error)

	// Upsert inserts a new row or overwrites every mutable column of the
	// existing row sharing the URL, stamping last_updated server-side in
	// the same statement. It returns the persisted record.
	Upsert(ctx context.Context, linkedinURL string, fields profile.Fields) (*profile.Record, error)

	// Ping verifies the backing connection is alive.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close()
}
