// Package app wires the application components together in explicit
// dependency order and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/engine"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/marketdata"
	"github.com/ternarybob/marketpulse/internal/reference"
	"github.com/ternarybob/marketpulse/internal/services/insight"
	"github.com/ternarybob/marketpulse/internal/services/llm"
	"github.com/ternarybob/marketpulse/internal/services/news"
	"github.com/ternarybob/marketpulse/internal/services/pulse"
	"github.com/ternarybob/marketpulse/internal/services/scheduler"
	"github.com/ternarybob/marketpulse/internal/storage/badger"
)

// Job names registered with the scheduler.
const (
	JobFullRefresh  = "full-refresh"
	JobPriceRefresh = "price-refresh"
	JobNewsRefresh  = "news-refresh"
	JobPulse        = "pulse"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	ReferenceStore *reference.Store
	MarketClient   *marketdata.Client

	RefreshService   interfaces.RefreshService
	PulseService     interfaces.PulseService
	InsightService   interfaces.InsightService
	NewsService      interfaces.NewsService
	SchedulerService interfaces.SchedulerService

	LLMFactory *llm.ProviderFactory
}

// New initializes the application. Construction order is explicit: storage,
// reference dataset, provider client, engine, LLM factory, domain services,
// scheduler registration. Nothing is constructed at import time.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	common.SetDefaultExchange(cfg.Market.DefaultExchange)

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	refStore, err := reference.Load(cfg.Market.ReferencePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference dataset: %w", err)
	}
	app.ReferenceStore = refStore
	logger.Info().
		Str("version", refStore.Version()).
		Int("tickers", refStore.Len()).
		Msg("Reference dataset loaded")

	app.MarketClient = app.buildMarketClient(context.Background())

	fetcher := engine.NewFetcher(app.MarketClient, cfg.Engine.HistoryTimeout, logger)
	coordinator := engine.NewCoordinator(fetcher, cfg.Engine.Workers, cfg.Engine.FetchTimeout, logger)
	app.RefreshService = engine.NewService(
		coordinator,
		refStore,
		storageManager.CompanyStorage(),
		cfg.Engine.QuoteChunkSize,
		logger,
	)

	app.LLMFactory = llm.NewProviderFactory(
		&cfg.Gemini,
		&cfg.Claude,
		&cfg.LLM,
		storageManager.KeyValueStorage(),
		logger,
	)

	app.PulseService = pulse.NewService(
		storageManager.CompanyStorage(),
		storageManager.HeadlineStorage(),
		storageManager.PulseStorage(),
		app.LLMFactory,
		cfg.Pulse.MoversLimit,
		cfg.Pulse.HeadlinesLimit,
		logger,
	)

	app.InsightService = insight.NewService(storageManager.CompanyStorage(), app.LLMFactory, logger)

	app.NewsService = news.NewService(app.MarketClient, refStore, storageManager.HeadlineStorage(), logger)

	app.SchedulerService = scheduler.NewService(logger)
	if err := app.registerJobs(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	logger.Info().Msg("Application initialization complete")
	return app, nil
}

// buildMarketClient constructs the provider client. A missing API key is not
// fatal: fetches fail, refresh cycles degrade to reference-only records, and
// the condition is logged once here.
func (a *App) buildMarketClient(ctx context.Context) *marketdata.Client {
	apiKey, err := common.ResolveAPIKey(ctx, a.StorageManager.KeyValueStorage(), "eodhd_api_key", a.Config.EODHD.APIKey)
	if err != nil {
		a.Logger.Warn().
			Err(err).
			Msg("No EODHD API key configured, market refresh degrades to reference-only records")
	}

	opts := []marketdata.ClientOption{
		marketdata.WithLogger(a.Logger),
	}
	if a.Config.EODHD.BaseURL != "" {
		opts = append(opts, marketdata.WithBaseURL(a.Config.EODHD.BaseURL))
	}
	if interval, parseErr := time.ParseDuration(a.Config.EODHD.RateLimit); parseErr == nil && interval > 0 {
		rps := int(time.Second / interval)
		if rps < 1 {
			rps = 1
		}
		opts = append(opts, marketdata.WithRateLimit(rps))
	}
	if timeout, parseErr := time.ParseDuration(a.Config.EODHD.Timeout); parseErr == nil && timeout > 0 {
		opts = append(opts, marketdata.WithHTTPClient(&http.Client{Timeout: timeout}))
	}

	return marketdata.NewClient(apiKey, opts...)
}

// registerJobs binds the refresh cadences to the scheduler.
func (a *App) registerJobs() error {
	jobs := []struct {
		name        string
		schedule    string
		description string
		handler     func(ctx context.Context) error
	}{
		{
			JobFullRefresh,
			a.Config.Refresh.FullSchedule,
			"Full metadata refresh: quotes, fundamentals and reference merge for the whole universe",
			func(ctx context.Context) error {
				_, err := a.RefreshService.FullRefresh(ctx)
				return err
			},
		},
		{
			JobPriceRefresh,
			a.Config.Refresh.PriceSchedule,
			"Fast price and volume refresh via chunked bulk quotes",
			func(ctx context.Context) error {
				_, err := a.RefreshService.PriceRefresh(ctx)
				return err
			},
		},
		{
			JobNewsRefresh,
			a.Config.Refresh.NewsSchedule,
			"Provider news headlines into the headline store",
			func(ctx context.Context) error {
				_, err := a.NewsService.Refresh(ctx)
				return err
			},
		},
		{
			JobPulse,
			a.Config.Refresh.PulseSchedule,
			"Quota-aware market summary regeneration",
			func(ctx context.Context) error {
				return a.PulseService.Generate(ctx)
			},
		},
	}

	for _, job := range jobs {
		if err := a.SchedulerService.RegisterJob(job.name, job.schedule, job.description, job.handler); err != nil {
			return err
		}
	}
	return nil
}

// Start runs the initial refresh cycle in the background and starts the
// scheduler. The initial cycle warms the store so the HTTP surface has data
// before the first scheduled full refresh.
func (a *App) Start(ctx context.Context) error {
	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		if _, err := a.RefreshService.FullRefresh(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Initial full refresh failed")
			return
		}
		if _, err := a.NewsService.Refresh(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Initial news refresh failed")
		}
		if err := a.PulseService.Generate(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Initial pulse generation failed")
		}
	}()

	return nil
}

// Close releases resources in reverse construction order.
func (a *App) Close() {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler stop failed")
		}
	}
	if a.LLMFactory != nil {
		if err := a.LLMFactory.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("LLM factory close failed")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
		}
	}
}
