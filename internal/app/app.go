// Package app initializes and holds long-lived application services,
// acting as a dependency injection container. It is built once at
// startup and handed to the CLI commands that need it.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/profile-vault/internal/archive"
	archivegcs "github.com/JakeFAU/profile-vault/internal/archive/gcs"
	"github.com/JakeFAU/profile-vault/internal/bulk"
	"github.com/JakeFAU/profile-vault/internal/cache"
	"github.com/JakeFAU/profile-vault/internal/config"
	"github.com/JakeFAU/profile-vault/internal/events"
	eventspubsub "github.com/JakeFAU/profile-vault/internal/events/pubsub"
	"github.com/JakeFAU/profile-vault/internal/harvest"
	"github.com/JakeFAU/profile-vault/internal/logging"
	"github.com/JakeFAU/profile-vault/internal/metrics"
	"github.com/JakeFAU/profile-vault/internal/policy/ratelimit"
	"github.com/JakeFAU/profile-vault/internal/scrape"
	collyfetcher "github.com/JakeFAU/profile-vault/internal/scrape/colly"
	"github.com/JakeFAU/profile-vault/internal/scrape/detector"
	"github.com/JakeFAU/profile-vault/internal/scrape/headless"
	"github.com/JakeFAU/profile-vault/internal/store"
	"github.com/JakeFAU/profile-vault/internal/store/postgres"
	"github.com/JakeFAU/profile-vault/internal/summarize"
)

// App holds all shared, long-lived services.
type App struct {
	Cfg        config.Config
	Logger     *zap.Logger
	Store      store.ProfileStore
	Cache      *cache.Service
	Bulk       *bulk.Driver
	Harvest    *harvest.Client
	Summarizer *summarize.Client

	publisher events.Publisher
	snapshots archive.SnapshotStore
	headless  *headless.Fetcher
}

/// New builds the full service graph from configuration. It fails fast:
// any unreachable critical dependency aborts startup.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	metrics.Init()

	st, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        int32(cfg.DB.MaxConns),
		MinConns:        int32(cfg.DB.MinConns),
		MaxConnLifetime: cfg.ConnLifetime(),
	})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	probe, err := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.Scrape.UserAgent,
		Timeout:     cfg.ScrapeTimeout(),
		SessionFile: cfg.Scrape.SessionFile,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init probe fetcher: %w", err)
	}

	a := &App{Cfg: cfg, Logger: logger, Store: st}

	var headlessFetcher scrape.PageFetcher
	if cfg.Headless.Enabled {
		hf, err := headless.New(headless.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Scrape.UserAgent,
			NavigationTimeout: cfg.NavTimeout(),
			SessionCookies:    probe.Cookies(),
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init headless fetcher: %w", err)
		}
		a.headless = hf
		headlessFetcher = hf
		logger.Info("headless fallback enabled",
			zap.Int("max_parallel", cfg.Headless.MaxParallel),
		)
	}

	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.Scrape.RateRPS,
		DefaultBurst: cfg.Scrape.RateBurst,
	})
	adapter := scrape.New(
		probe,
		headlessFetcher,
		detector.NewHeuristic(cfg.Headless.PromotionMinBytes),
		limiter,
		scrape.Config{BaseURL: cfg.Scrape.BaseURL, Timeout: cfg.ScrapeTimeout()},
		logger,
	)

	if cfg.PubSub.Enabled {
		pub, err := eventspubsub.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init pubsub publisher: %w", err)
		}
		a.publisher = pub
		logger.Info("publishing refresh events",
			zap.String("topic", cfg.PubSub.TopicName),
		)
	} else {
		a.publisher = events.NoOp{}
	}

	if cfg.Archive.GCSBucket != "" {
		snaps, err := archivegcs.New(ctx, cfg.Archive.GCSBucket, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init snapshot store: %w", err)
		}
		a.snapshots = snaps
		logger.Info("archiving raw snapshots",
			zap.String("bucket", cfg.Archive.GCSBucket),
		)
	} else {
		a.snapshots = archive.NoOp{}
	}

	a.Cache = cache.New(st, adapter, a.publisher, a.snapshots, cache.Config{
		DefaultFreshnessDays: cfg.Cache.DefaultFreshnessDays,
		ArchivePrefix:        cfg.Archive.Prefix,
	}, logger)
	a.Bulk = bulk.New(a.Cache, logger)

	a.Harvest, err = harvest.New(harvest.Config{
		BaseURL: cfg.Harvest.BaseURL,
		APIKey:  cfg.Harvest.APIKey,
		Timeout: cfg.HarvestTimeout(),
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init harvest client: %w", err)
	}

	if cfg.Ollama.Enabled {
		a.Summarizer = summarize.New(summarize.Config{
			BaseURL: cfg.Ollama.BaseURL,
			Model:   cfg.Ollama.Model,
			Timeout: cfg.OllamaTimeout(),
		}, logger)
	}

	logger.Info("application services initialized")
	return a, nil
}

// Close shuts down all services. Safe to call on a partially built App.
func (a *App) Close() {
	if a.headless != nil {
		a.headless.Close()
	}
	if closer, ok := a.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Warn("close publisher", zap.Error(err))
		}
	}
	if closer, ok := a.snapshots.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Warn("close snapshot store", zap.Error(err))
		}
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
