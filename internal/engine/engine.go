package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/reference"
)

// Service drives the refresh cycles: it fans fetches out through the
// coordinator, merges outcomes against the reference dataset and upserts
// the results. Implements interfaces.RefreshService.
type Service struct {
	coordinator *Coordinator
	refStore    *reference.Store
	companies   interfaces.CompanyStorage
	chunkSize   int
	logger      arbor.ILogger
}

// NewService creates the refresh service. chunkSize bounds the bulk quote
// requests of the fast price cadence.
func NewService(coordinator *Coordinator, refStore *reference.Store, companies interfaces.CompanyStorage, chunkSize int, logger arbor.ILogger) *Service {
	if chunkSize <= 0 {
		chunkSize = 20
	}
	return &Service{
		coordinator: coordinator,
		refStore:    refStore,
		companies:   companies,
		chunkSize:   chunkSize,
		logger:      logger,
	}
}

// FullRefresh fetches quotes and fundamentals for the whole universe,
// merges against the reference dataset and upserts every resolvable
// record. Fetch failures degrade to reference-only updates; the cycle
// never aborts on individual failures.
func (s *Service) FullRefresh(ctx context.Context) (*interfaces.RefreshStats, error) {
	started := time.Now()

	universe := s.universe()
	if len(universe) == 0 {
		return nil, fmt.Errorf("full refresh: reference universe is empty")
	}

	s.logger.Info().
		Int("tickers", len(universe)).
		Msg("Starting full market refresh")

	outcomes := s.coordinator.FetchAll(ctx, universe, true)

	stats := &interfaces.RefreshStats{Total: len(universe)}
	for _, ticker := range universe {
		key := ticker.String()
		outcome := outcomes[key]

		entry, hasRef := s.refStore.Lookup(key)

		var degraded bool
		if outcome.Err != nil {
			if !hasRef {
				s.logger.Warn().
					Str("ticker", key).
					Err(outcome.Err).
					Msg("Fetch failed and no reference entry, skipping")
				stats.Failed++
				continue
			}
			s.logger.Warn().
				Str("ticker", key).
				Err(outcome.Err).
				Msg("Fetch failed, writing reference-only record")
			degraded = true
		}

		update, err := Merge(key, entry, hasRef, outcome.Result)
		if err != nil {
			s.logger.Warn().Str("ticker", key).Err(err).Msg("Merge failed")
			stats.Failed++
			continue
		}

		if err := s.companies.Upsert(ctx, update); err != nil {
			s.logger.Error().Str("ticker", key).Err(err).Msg("Company upsert failed")
			stats.Failed++
			continue
		}

		if degraded {
			stats.Degraded++
		} else {
			stats.Succeeded++
		}
	}

	stats.Duration = time.Since(started)
	s.logger.Info().
		Int("succeeded", stats.Succeeded).
		Int("degraded", stats.Degraded).
		Int("failed", stats.Failed).
		Str("duration", stats.Duration.String()).
		Msg("Full market refresh complete")

	return stats, nil
}

// PriceRefresh updates price, change and volume through the chunked bulk
// quote path. Records are only patched, never created: a ticker with no
// persisted record yet waits for the next full refresh.
func (s *Service) PriceRefresh(ctx context.Context) (*interfaces.RefreshStats, error) {
	started := time.Now()

	universe := s.universe()
	if len(universe) == 0 {
		return nil, fmt.Errorf("price refresh: reference universe is empty")
	}

	outcomes := s.coordinator.FetchQuotes(ctx, universe, s.chunkSize)

	stats := &interfaces.RefreshStats{Total: len(universe)}
	for _, ticker := range universe {
		key := ticker.String()
		outcome := outcomes[key]

		if outcome.Err != nil || outcome.Result == nil {
			s.logger.Debug().Str("ticker", key).Err(outcome.Err).Msg("Price refresh fetch failed")
			stats.Failed++
			continue
		}

		if _, err := s.companies.Get(ctx, key); err != nil {
			// No record yet; price-only data cannot establish identity.
			stats.Failed++
			continue
		}

		update := &models.CompanyUpdate{
			Ticker:        key,
			Price:         outcome.Result.Price,
			PreviousClose: outcome.Result.PreviousClose,
			Change:        outcome.Result.Change,
			ChangePercent: outcome.Result.ChangePercent,
			Volume:        outcome.Result.Volume,
		}

		if err := s.companies.Upsert(ctx, update); err != nil {
			s.logger.Error().Str("ticker", key).Err(err).Msg("Price upsert failed")
			stats.Failed++
			continue
		}
		stats.Succeeded++
	}

	stats.Duration = time.Since(started)
	s.logger.Info().
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Str("duration", stats.Duration.String()).
		Msg("Price refresh complete")

	return stats, nil
}

func (s *Service) universe() []common.Ticker {
	codes := s.refStore.Tickers()
	tickers := make([]common.Ticker, 0, len(codes))
	for _, code := range codes {
		if t := common.ParseTicker(code); t.Code != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}
