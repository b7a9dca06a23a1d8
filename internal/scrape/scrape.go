// Package scrape adapts the external profile source into the canonical
// field set. Backends fetch raw pages; the adapter extracts and maps the
// fields. A scrape failure never propagates past the adapter: callers see
// a nil result and decide what to serve instead.
package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/profile-vault/internal/profile"
)

// Page is the raw outcome of one page fetch.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// PageFetcher retrieves the raw profile page for a source URL.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (Page, error)
}

// Detector decides when a probe fetch needs the headless fallback.
type Detector interface {
	ShouldPromote(p Page) bool
}

// Limiter throttles outbound calls to the (rate-limited) source.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// Result is one successfully fetched, normalized profile. Raw keeps the
// unmapped source fields for snapshot archival.
type Result struct {
	Fields profile.Fields
	Raw    map[string]any
}

// Config controls the adapter.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Adapter wires the probe fetcher, the optional headless fallback and the
// field mapper into the single-identifier fetch operation.
type Adapter struct {
	probe    PageFetcher
	headless PageFetcher
	detector Detector
	limiter  Limiter
	cfg      Config
	logger   *zap.Logger
}

// New constructs an Adapter. headless, detector and limiter may be nil.
func New(probe PageFetcher, headless PageFetcher, detector Detector, limiter Limiter, cfg Config, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.linkedin.com/in/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		probe:    probe,
		headless: headless,
		detector: detector,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger,
	}
}

// Fetch retrieves one profile by external identifier. It returns nil for
// both "profile does not exist" and "fetch failed"; the two are
// distinguished only in logs, matching the degrade-not-crash policy.
func (a *Adapter) Fetch(ctx context.Context, externalID string) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("scrape backend panicked",
				zap.String("external_id", externalID),
				zap.Any("panic", r),
			)
			result = nil
		}
	}()

	url := a.cfg.BaseURL + externalID
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, url); err != nil {
			a.logger.Warn("rate limit wait aborted", zap.String("url", url), zap.Error(err))
			return nil
		}
	}

	page, err := a.probe.FetchPage(ctx, url)
	if err != nil {
		a.logger.Warn("probe fetch failed", zap.String("url", url), zap.Error(err))
		return nil
	}

	if a.detector != nil && a.headless != nil && a.detector.ShouldPromote(page) {
		promoted, err := a.headless.FetchPage(ctx, url)
		if err != nil {
			a.logger.Warn("headless promotion failed", zap.String("url", url), zap.Error(err))
		} else {
			a.logger.Debug("headless promotion applied", zap.String("url", url))
			page = promoted
		}
	}

	raw := ExtractRaw(page.Body)
	if len(raw) == 0 {
		a.logger.Warn("no profile data in page",
			zap.String("url", url),
			zap.Int("status", page.StatusCode),
		)
		return nil
	}

	fields := MapRaw(raw)
	return &Result{Fields: fields, Raw: raw}
}
