package engine

import (
	"errors"
	"fmt"

	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/reference"
)

// SectorOther is the bucket for companies neither source can classify.
const SectorOther = "Other"

// ErrNoIdentity is returned when neither the provider nor the reference
// dataset can supply a company name. Such records are never persisted.
var ErrNoIdentity = errors.New("no resolvable company name")

// Merge combines one fetch result with the reference entry for a ticker
// into a field-wise update. Either source may be absent:
//
//   - live == nil (fetch failed): degraded mode. Requires a reference
//     entry, which supplies identity and enrichment; live market fields
//     stay unset so previously persisted values survive.
//   - hasRef == false: provider-only record, fundamentals must carry the
//     name.
//
// Field priorities follow a fixed policy: identity and enrichment prefer
// the live feed with reference fallback, sector is reference-authoritative,
// founded year and CEO are reference-only, market data is live-only.
func Merge(ticker string, ref reference.Entry, hasRef bool, live *QuoteResult) (*models.CompanyUpdate, error) {
	if live == nil && !hasRef {
		return nil, fmt.Errorf("merge for %s: no live data and no reference entry: %w", ticker, ErrNoIdentity)
	}

	update := &models.CompanyUpdate{Ticker: ticker}

	var fund *Fundamentals
	if live != nil {
		fund = live.Fundamentals
	}

	// Name: live preferred, reference fallback, otherwise the record is
	// unidentifiable and rejected.
	switch {
	case fund != nil && fund.Name != "":
		update.Name = fund.Name
	case hasRef && ref.Name != "":
		update.Name = ref.Name
	default:
		return nil, fmt.Errorf("merge for %s: %w", ticker, ErrNoIdentity)
	}

	// Sector: reference is authoritative; the provider's sector then
	// industry stand in when the dataset has no opinion.
	switch {
	case hasRef && ref.Sector != "":
		update.Sector = models.StringPtr(ref.Sector)
	case fund != nil && fund.Sector != "":
		update.Sector = models.StringPtr(fund.Sector)
	case fund != nil && fund.Industry != "":
		update.Sector = models.StringPtr(fund.Industry)
	default:
		update.Sector = models.StringPtr(SectorOther)
	}

	if fund != nil && fund.Industry != "" {
		update.Industry = models.StringPtr(fund.Industry)
	}

	// Website and employee count: live preferred, reference fallback.
	switch {
	case fund != nil && fund.Website != "":
		update.Website = models.StringPtr(fund.Website)
	case hasRef && ref.Website != "":
		update.Website = models.StringPtr(ref.Website)
	}
	switch {
	case fund != nil && fund.EmployeeCount > 0:
		update.EmployeeCount = models.IntPtr(fund.EmployeeCount)
	case hasRef && ref.EmployeeCount > 0:
		update.EmployeeCount = models.IntPtr(ref.EmployeeCount)
	}

	if fund != nil && fund.Description != "" {
		update.Description = models.StringPtr(fund.Description)
	}

	// Founded year and CEO only ever come from the curated dataset.
	if hasRef {
		if ref.FoundedYear > 0 {
			update.FoundedYear = models.IntPtr(ref.FoundedYear)
		}
		if ref.CEO != "" {
			update.CEO = models.StringPtr(ref.CEO)
		}
	}

	// Financials: live figures win when the provider reported them,
	// the dataset's approximations fill in otherwise.
	switch {
	case fund != nil && fund.Revenue != 0:
		update.Revenue = models.Float64Ptr(fund.Revenue)
	case hasRef && ref.Revenue != 0:
		update.Revenue = models.Float64Ptr(ref.Revenue)
	}
	switch {
	case fund != nil && fund.NetProfit != 0:
		update.NetProfit = models.Float64Ptr(fund.NetProfit)
	case hasRef && ref.NetProfit != 0:
		update.NetProfit = models.Float64Ptr(ref.NetProfit)
	}

	// Market data is live-only; in degraded mode these stay nil.
	if live != nil {
		update.Price = live.Price
		update.PreviousClose = live.PreviousClose
		update.Change = live.Change
		update.ChangePercent = live.ChangePercent
		update.Volume = live.Volume
		if fund != nil && fund.MarketCap != 0 {
			update.MarketCap = models.Float64Ptr(fund.MarketCap)
		}
	}

	return update, nil
}
