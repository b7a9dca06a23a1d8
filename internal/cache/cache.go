// Package cache implements the freshness-gated fetch-or-refresh layer.
// A lookup serves the stored record when it is recent enough, refreshes
// from the scraping source otherwise, and falls back to stale data when
// the source fails. Ordinary operational failures degrade the result
// instead of raising; only storage failures surface as errors.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/profile-vault/internal/archive"
	"github.com/JakeFAU/profile-vault/internal/events"
	"github.com/JakeFAU/profile-vault/internal/metrics"
	"github.com/JakeFAU/profile-vault/internal/profile"
	"github.com/JakeFAU/profile-vault/internal/scrape"
	"github.com/JakeFAU/profile-vault/internal/store"
)

// Fetcher retrieves one profile from the external source. A nil result
// means the fetch failed or the profile does not exist; the two are not
// distinguished here.
type Fetcher interface {
	Fetch(ctx context.Context, externalID string) *scrape.Result
}

// Clock supplies the current time for freshness decisions.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Config controls the cache service.
type Config struct {
	// DefaultFreshnessDays applies when a caller passes a negative
	// threshold.
	DefaultFreshnessDays int
	// ArchivePrefix is the object path prefix for raw snapshots.
	ArchivePrefix string
}

// Service is the cache orchestrator. All collaborators are injected;
// publisher and snapshots may be nil, which disables the corresponding
// side effect.
type Service struct {
	store     store.ProfileStore
	fetcher   Fetcher
	publisher events.Publisher
	snapshots archive.SnapshotStore
	clock     Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Service using the system clock.
func New(st store.ProfileStore, fetcher Fetcher, publisher events.Publisher, snapshots archive.SnapshotStore, cfg Config, logger *zap.Logger) *Service {
	return NewWithClock(st, fetcher, publisher, snapshots, cfg, logger, systemClock{})
}

// NewWithClock constructs a Service with an explicit clock. Tests use it
// to pin the freshness comparison to a fixed instant.
func NewWithClock(st store.ProfileStore, fetcher Fetcher, publisher events.Publisher, snapshots archive.SnapshotStore, cfg Config, logger *zap.Logger, clock Clock) *Service {
	if publisher == nil {
		publisher = events.NoOp{}
	}
	if snapshots == nil {
		snapshots = archive.NoOp{}
	}
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultFreshnessDays <= 0 {
		cfg.DefaultFreshnessDays = 30
	}
	if cfg.ArchivePrefix == "" {
		cfg.ArchivePrefix = "snapshots"
	}
	return &Service{
		store:     st,
		fetcher:   fetcher,
		publisher: publisher,
		snapshots: snapshots,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// GetOrRefresh returns the record for a profile URL, from the store when
// the stored copy is at most freshnessDays old, otherwise freshly fetched
// and persisted. A negative freshnessDays selects the configured default.
//
// Failure policy: a failed fetch returns the stale record when one
// exists, or (nil, nil) when the profile was never stored. NotFound is
// not an error. Storage failures return (nil, err).
//
// No per-key locking is held: concurrent calls for the same URL may each
// refresh, and the last upsert wins. Each upsert is atomic, so the race
// only widens the staleness window.
func (s *Service) GetOrRefresh(ctx context.Context, linkedinURL string, freshnessDays int) (*profile.Record, error) {
	if freshnessDays < 0 {
		freshnessDays = s.cfg.DefaultFreshnessDays
	}

	existing, err := s.store.FindByURL(ctx, linkedinURL)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		metrics.ObserveCacheLookup("error")
		metrics.ObserveStorageError()
		s.logger.Error("profile lookup failed",
			zap.String("linkedin_url", linkedinURL),
			zap.Error(err),
		)
		return nil, fmt.Errorf("lookup profile %s: %w", linkedinURL, err)
	}

	if existing != nil && s.ageDays(existing.LastUpdated) <= freshnessDays {
		metrics.ObserveCacheLookup("hit")
		s.logger.Debug("serving cached profile",
			zap.String("linkedin_url", linkedinURL),
			zap.Time("last_updated", existing.LastUpdated),
		)
		return existing, nil
	}

	if existing != nil {
		metrics.ObserveCacheLookup("stale")
	} else {
		metrics.ObserveCacheLookup("miss")
	}

	externalID := profile.ExternalIDFromURL(linkedinURL)
	start := time.Now()
	res := s.fetcher.Fetch(ctx, externalID)
	if res == nil {
		metrics.ObserveFetch("empty", time.Since(start))
		if existing != nil {
			s.logger.Warn("fetch failed, serving stale profile",
				zap.String("linkedin_url", linkedinURL),
				zap.Time("last_updated", existing.LastUpdated),
			)
			return existing, nil
		}
		s.logger.Warn("fetch failed for unknown profile",
			zap.String("linkedin_url", linkedinURL),
		)
		return nil, nil
	}
	metrics.ObserveFetch("ok", time.Since(start))

	rec, err := s.store.Upsert(ctx, linkedinURL, res.Fields)
	if err != nil {
		metrics.ObserveStorageError()
		s.logger.Error("profile upsert failed",
			zap.String("linkedin_url", linkedinURL),
			zap.Error(err),
		)
		return nil, fmt.Errorf("upsert profile %s: %w", linkedinURL, err)
	}
	metrics.ObserveUpsert()

	s.afterUpsert(ctx, externalID, existing == nil, rec, res.Raw)
	return rec, nil
}

// ageDays is the whole-day floor of the record's age. The store keeps
// naive-UTC timestamps, so both sides are normalized to UTC before
// subtracting.
func (s *Service) ageDays(lastUpdated time.Time) int {
	elapsed := s.clock.Now().UTC().Sub(lastUpdated.UTC())
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// afterUpsert runs the best-effort side effects of a refresh: a refresh
// event and a raw snapshot. Failures are logged and never surfaced.
func (s *Service) afterUpsert(ctx context.Context, externalID string, created bool, rec *profile.Record, raw map[string]any) {
	evt := events.RefreshEvent{
		LinkedInURL: rec.LinkedInURL,
		ExternalID:  externalID,
		LastUpdated: rec.LastUpdated,
		Created:     created,
	}
	if _, err := s.publisher.Publish(ctx, events.TopicRefresh, evt); err != nil {
		s.logger.Warn("publish refresh event",
			zap.String("external_id", externalID),
			zap.Error(err),
		)
	}

	if len(raw) == 0 {
		return
	}
	if err := archive.Snapshot(ctx, s.snapshots, s.cfg.ArchivePrefix, externalID, rec.LastUpdated, raw); err != nil {
		s.logger.Warn("archive raw snapshot",
			zap.String("external_id", externalID),
			zap.Error(err),
		)
	}
}
