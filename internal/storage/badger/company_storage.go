package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// CompanyStorage implements the CompanyStorage interface for Badger
type CompanyStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCompanyStorage creates a new CompanyStorage instance
func NewCompanyStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CompanyStorage {
	return &CompanyStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert creates the record when absent and patches it field-wise when
// present. Nil update fields leave the persisted value untouched, so a
// partial cycle (price-only refresh, degraded fetch) never blanks data a
// previous cycle wrote.
func (s *CompanyStorage) Upsert(ctx context.Context, update *models.CompanyUpdate) error {
	if update == nil {
		return fmt.Errorf("nil company update")
	}
	if update.Ticker == "" {
		return fmt.Errorf("company update has no ticker")
	}

	now := time.Now()

	// Read-modify-write inside one transaction so a concurrent cycle cannot
	// interleave between the read and the write. Badger aborts conflicting
	// commits; retrying preserves last-writer-wins.
	for attempt := 0; ; attempt++ {
		err := s.db.Store().Badger().Update(func(txn *badger.Txn) error {
			var company models.Company
			err := s.db.Store().TxGet(txn, update.Ticker, &company)
			if err == badgerhold.ErrNotFound {
				if update.Name == "" {
					return fmt.Errorf("company update for %s has no name", update.Ticker)
				}
				company = models.Company{
					Ticker:    update.Ticker,
					CreatedAt: now,
				}
			} else if err != nil {
				return fmt.Errorf("failed to read company %s: %w", update.Ticker, err)
			}

			applyUpdate(&company, update)
			company.UpdatedAt = now

			return s.db.Store().TxUpsert(txn, company.Ticker, &company)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < 3 {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to upsert company %s: %w", update.Ticker, err)
		}
		return nil
	}
}

func applyUpdate(company *models.Company, update *models.CompanyUpdate) {
	if update.Name != "" {
		company.Name = update.Name
	}

	if update.Sector != nil {
		company.Sector = *update.Sector
	}
	if update.Industry != nil {
		company.Industry = *update.Industry
	}
	if update.Website != nil {
		company.Website = *update.Website
	}
	if update.Description != nil {
		company.Description = *update.Description
	}
	if update.CEO != nil {
		company.CEO = *update.CEO
	}
	if update.FoundedYear != nil {
		company.FoundedYear = update.FoundedYear
	}
	if update.EmployeeCount != nil {
		company.EmployeeCount = update.EmployeeCount
	}
	if update.Price != nil {
		company.Price = update.Price
	}
	if update.PreviousClose != nil {
		company.PreviousClose = update.PreviousClose
	}
	if update.Change != nil {
		company.Change = update.Change
	}
	if update.ChangePercent != nil {
		company.ChangePercent = update.ChangePercent
	}
	if update.Volume != nil {
		company.Volume = update.Volume
	}
	if update.MarketCap != nil {
		company.MarketCap = update.MarketCap
	}
	if update.Revenue != nil {
		company.Revenue = update.Revenue
	}
	if update.NetProfit != nil {
		company.NetProfit = update.NetProfit
	}
}

// Get retrieves a company by exchange-qualified ticker
func (s *CompanyStorage) Get(ctx context.Context, ticker string) (*models.Company, error) {
	var company models.Company
	err := s.db.Store().Get(ticker, &company)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company %s: %w", ticker, err)
	}
	return &company, nil
}

// List returns all company records
func (s *CompanyStorage) List(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	if err := s.db.Store().Find(&companies, nil); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// Count returns the number of stored companies
func (s *CompanyStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Company{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return int(count), nil
}

// Delete removes a company record
func (s *CompanyStorage) Delete(ctx context.Context, ticker string) error {
	err := s.db.Store().Delete(ticker, &models.Company{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete company %s: %w", ticker, err)
	}
	return nil
}
