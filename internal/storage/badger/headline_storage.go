package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// HeadlineStorage implements the HeadlineStorage interface for Badger
type HeadlineStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHeadlineStorage creates a new HeadlineStorage instance
func NewHeadlineStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HeadlineStorage {
	return &HeadlineStorage{
		db:     db,
		logger: logger,
	}
}

// Save stores a headline, deduplicating by link. Returns false when a
// headline with the same link already exists.
func (s *HeadlineStorage) Save(ctx context.Context, headline *models.Headline) (bool, error) {
	if headline == nil {
		return false, fmt.Errorf("nil headline")
	}
	if headline.Link == "" {
		return false, fmt.Errorf("headline has no link")
	}

	count, err := s.db.Store().Count(&models.Headline{}, badgerhold.Where("Link").Eq(headline.Link))
	if err != nil {
		return false, fmt.Errorf("failed to check headline existence: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if headline.ID == "" {
		headline.ID = common.NewDocumentID()
	}
	if headline.CreatedAt.IsZero() {
		headline.CreatedAt = time.Now()
	}

	if err := s.db.Store().Insert(headline.ID, headline); err != nil {
		return false, fmt.Errorf("failed to insert headline: %w", err)
	}
	return true, nil
}

// MostRecent returns up to n headlines ordered by published date descending
func (s *HeadlineStorage) MostRecent(ctx context.Context, n int) ([]models.Headline, error) {
	if n <= 0 {
		return nil, nil
	}

	var headlines []models.Headline
	query := badgerhold.Where("Link").Ne("").SortBy("PublishedAt").Reverse().Limit(n)
	if err := s.db.Store().Find(&headlines, query); err != nil {
		return nil, fmt.Errorf("failed to list headlines: %w", err)
	}
	return headlines, nil
}

// Prune deletes all but the keep most recent headlines, returning the
// number removed.
func (s *HeadlineStorage) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	var headlines []models.Headline
	query := badgerhold.Where("Link").Ne("").SortBy("PublishedAt").Reverse()
	if err := s.db.Store().Find(&headlines, query); err != nil {
		return 0, fmt.Errorf("failed to list headlines for pruning: %w", err)
	}

	if len(headlines) <= keep {
		return 0, nil
	}

	removed := 0
	for _, headline := range headlines[keep:] {
		if err := s.db.Store().Delete(headline.ID, &models.Headline{}); err != nil {
			s.logger.Warn().Str("id", headline.ID).Err(err).Msg("Failed to delete headline during prune")
			continue
		}
		removed++
	}

	return removed, nil
}
