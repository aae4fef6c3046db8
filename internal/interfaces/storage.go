package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/marketpulse/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// CompanyStorage defines operations for persisted company records.
type CompanyStorage interface {
	// Upsert creates the record when absent and applies the update
	// field-wise when present: nil update fields keep the persisted value.
	Upsert(ctx context.Context, update *models.CompanyUpdate) error

	// Get retrieves a company by exchange-qualified ticker.
	Get(ctx context.Context, ticker string) (*models.Company, error)

	// List returns all company records.
	List(ctx context.Context) ([]models.Company, error)

	// Count returns the number of stored companies.
	Count(ctx context.Context) (int, error)

	// Delete removes a company record.
	Delete(ctx context.Context, ticker string) error
}

// PulseStorage holds the singleton market pulse document.
type PulseStorage interface {
	// Get returns the cached pulse, or ErrNotFound when none exists yet.
	Get(ctx context.Context) (*models.PulseDocument, error)

	// Save overwrites the cached pulse.
	Save(ctx context.Context, pulse *models.PulseDocument) error
}

// HeadlineStorage defines operations for stored news headlines.
type HeadlineStorage interface {
	// Save stores a headline. Saving a headline whose link already exists
	// is a no-op and returns false.
	Save(ctx context.Context, headline *models.Headline) (bool, error)

	// MostRecent returns up to n headlines ordered by published date descending.
	MostRecent(ctx context.Context, n int) ([]models.Headline, error)

	// Prune deletes all but the keep most recent headlines.
	Prune(ctx context.Context, keep int) (int, error)
}

// StorageManager aggregates the typed storages over one database.
type StorageManager interface {
	CompanyStorage() CompanyStorage
	PulseStorage() PulseStorage
	HeadlineStorage() HeadlineStorage
	KeyValueStorage() KeyValueStorage

	// Close closes the database connection
	Close() error
}
