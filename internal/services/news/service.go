// Package news refreshes stored headlines from the market data provider's
// news endpoint and serves them newest first.
package news

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/marketdata"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/reference"
)

// maxStoredHeadlines bounds the headline store; each refresh prunes down to
// this count after inserting.
const maxStoredHeadlines = 200

// NewsClient is the provider surface this service consumes.
type NewsClient interface {
	GetNews(ctx context.Context, symbols []string, opts ...marketdata.QueryOption) (marketdata.NewsResponse, error)
}

// Service implements interfaces.NewsService.
type Service struct {
	client    NewsClient
	refStore  *reference.Store
	headlines interfaces.HeadlineStorage
	logger    arbor.ILogger
}

// NewService creates the news service.
func NewService(client NewsClient, refStore *reference.Store, headlines interfaces.HeadlineStorage, logger arbor.ILogger) *Service {
	return &Service{
		client:    client,
		refStore:  refStore,
		headlines: headlines,
		logger:    logger,
	}
}

// Refresh pulls recent provider news for the tracked universe into the
// headline store and returns the number of newly stored headlines.
// Headlines already stored (same link) are skipped.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	symbols := s.universeSymbols()
	if len(symbols) == 0 {
		return 0, fmt.Errorf("news refresh: reference universe is empty")
	}

	items, err := s.client.GetNews(ctx, symbols, marketdata.WithLimit(50))
	if err != nil {
		return 0, fmt.Errorf("news fetch failed: %w", err)
	}

	stored := 0
	for _, item := range items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		publishedAt := item.Date
		if publishedAt.IsZero() {
			publishedAt = time.Now().UTC()
		}

		inserted, err := s.headlines.Save(ctx, &models.Headline{
			Title:       item.Title,
			Link:        item.Link,
			Source:      sourceFromTags(item.Tags),
			Tickers:     item.Symbols,
			PublishedAt: publishedAt,
		})
		if err != nil {
			s.logger.Warn().Str("link", item.Link).Err(err).Msg("Headline save failed")
			continue
		}
		if inserted {
			stored++
		}
	}

	if pruned, err := s.headlines.Prune(ctx, maxStoredHeadlines); err != nil {
		s.logger.Warn().Err(err).Msg("Headline prune failed")
	} else if pruned > 0 {
		s.logger.Debug().Int("pruned", pruned).Msg("Pruned old headlines")
	}

	s.logger.Info().
		Int("fetched", len(items)).
		Int("stored", stored).
		Msg("News refresh complete")
	return stored, nil
}

// MostRecent returns up to n stored headlines, newest first.
func (s *Service) MostRecent(ctx context.Context, n int) ([]models.Headline, error) {
	return s.headlines.MostRecent(ctx, n)
}

func (s *Service) universeSymbols() []string {
	codes := s.refStore.Tickers()
	symbols := make([]string, 0, len(codes))
	for _, code := range codes {
		if t := common.ParseTicker(code); t.Code != "" {
			symbols = append(symbols, t.EODHDSymbol())
		}
	}
	return symbols
}

// sourceFromTags picks the first tag as a display source when present.
func sourceFromTags(tags []string) string {
	if len(tags) > 0 {
		return tags[0]
	}
	return ""
}
