// Package bulk drives the cache layer over many profiles in one run.
// Profiles are processed sequentially so the source's rate limits see
// one fetch at a time, and every input produces exactly one result in
// input order, even when individual profiles fail.
package bulk

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/profile-vault/internal/profile"
)

// Refresher is the single-profile operation applied to each input.
type Refresher interface {
	GetOrRefresh(ctx context.Context, linkedinURL string, freshnessDays int) (*profile.Record, error)
}

// Result is one per-profile outcome. Exactly one of Profile and Err is
// meaningful; both empty means the profile could not be found anywhere.
type Result struct {
	URL     string          `json:"linkedin_url"`
	Profile *profile.Record `json:"profile,omitempty"`
	Err     string          `json:"error,omitempty"`
}

// Driver applies a Refresher to batches of profile URLs.
type Driver struct {
	refresher Refresher
	logger    *zap.Logger
}

// New constructs a Driver.
func New(refresher Refresher, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{refresher: refresher, logger: logger}
}

// FetchMany refreshes every URL with the shared freshness threshold. The
// returned slice has one entry per input, in input order. A failure on
// one profile never aborts the rest; it is recorded in that profile's
// result slot.
func (d *Driver) FetchMany(ctx context.Context, urls []string, freshnessDays int) []Result {
	runID := uuid.NewString()
	logger := d.logger.With(zap.String("run_id", runID))
	logger.Info("bulk refresh started",
		zap.Int("profiles", len(urls)),
		zap.Int("freshness_days", freshnessDays),
	)

	results := make([]Result, len(urls))
	var failed int
	for i, url := range urls {
		results[i] = d.fetchOne(ctx, url, freshnessDays)
		if results[i].Err != "" {
			failed++
			logger.Warn("bulk item failed",
				zap.String("linkedin_url", url),
				zap.String("error", results[i].Err),
			)
		}
	}

	logger.Info("bulk refresh finished",
		zap.Int("profiles", len(urls)),
		zap.Int("failed", failed),
	)
	return results
}

// fetchOne isolates a single refresh, converting both returned errors
// and panics into the result envelope.
func (d *Driver) fetchOne(ctx context.Context, url string, freshnessDays int) (res Result) {
	res.URL = url
	defer func() {
		if r := recover(); r != nil {
			res.Profile = nil
			res.Err = fmt.Sprintf("panic: %v", r)
		}
	}()

	rec, err := d.refresher.GetOrRefresh(ctx, url, freshnessDays)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Profile = rec
	return res
}
