package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// PulseStorage holds the singleton pulse document under a well-known key.
type PulseStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPulseStorage creates a new PulseStorage instance
func NewPulseStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PulseStorage {
	return &PulseStorage{
		db:     db,
		logger: logger,
	}
}

// Get returns the cached pulse, or ErrNotFound when none exists yet
func (s *PulseStorage) Get(ctx context.Context) (*models.PulseDocument, error) {
	var pulse models.PulseDocument
	err := s.db.Store().Get(models.PulseDocumentID, &pulse)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pulse document: %w", err)
	}
	return &pulse, nil
}

// Save overwrites the cached pulse
func (s *PulseStorage) Save(ctx context.Context, pulse *models.PulseDocument) error {
	if pulse == nil {
		return fmt.Errorf("nil pulse document")
	}
	pulse.ID = models.PulseDocumentID

	if err := s.db.Store().Upsert(models.PulseDocumentID, pulse); err != nil {
		return fmt.Errorf("failed to save pulse document: %w", err)
	}
	return nil
}
