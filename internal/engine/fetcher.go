// Package engine implements the market data refresh pipeline: per-ticker
// quote fetching with fallbacks, bounded-parallel coordination, merge
// against the reference dataset and sector-level aggregation.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/marketdata"
)

// MarketDataClient is the provider surface the engine consumes.
type MarketDataClient interface {
	GetRealTimeQuote(ctx context.Context, symbol string) (*marketdata.RealTimeQuote, error)
	GetRealTimeQuotes(ctx context.Context, symbols []string) ([]marketdata.RealTimeQuote, error)
	GetEOD(ctx context.Context, symbol string, opts ...marketdata.QueryOption) (marketdata.EODResponse, error)
	GetFundamentals(ctx context.Context, symbol string) (*marketdata.FundamentalsResponse, error)
}

// QuoteResult holds everything one fetch observed for a ticker. Nil pointer
// fields mean the provider reported nothing for that field this cycle.
type QuoteResult struct {
	Ticker common.Ticker

	Price         *float64
	PreviousClose *float64
	Change        *float64
	ChangePercent *float64
	Volume        *int64

	// Fundamentals is nil in price-only mode and when the fundamentals
	// endpoint failed; a failed fundamentals call does not fail the fetch.
	Fundamentals *Fundamentals
}

// Fundamentals carries the enrichment subset of the provider's
// fundamentals payload. Zero values mean not reported.
type Fundamentals struct {
	Name          string
	Sector        string
	Industry      string
	Website       string
	Description   string
	EmployeeCount int
	MarketCap     float64
	Revenue       float64
	NetProfit     float64
}

// Fetcher retrieves and normalizes provider data for single tickers.
type Fetcher struct {
	client         MarketDataClient
	historyTimeout time.Duration
	logger         arbor.ILogger
}

// NewFetcher creates a Fetcher. historyTimeout bounds the previous-close
// history lookup; it should be well inside the coordinator's per-item budget.
func NewFetcher(client MarketDataClient, historyTimeout time.Duration, logger arbor.ILogger) *Fetcher {
	if historyTimeout <= 0 {
		historyTimeout = 2 * time.Second
	}
	return &Fetcher{
		client:         client,
		historyTimeout: historyTimeout,
		logger:         logger,
	}
}

// Fetch retrieves the current quote for a ticker, resolving the previous
// close through the fallback chain, and optionally pulls fundamentals.
// Every provider failure comes back as an error value; callers decide what
// a failed ticker means for the batch.
func (f *Fetcher) Fetch(ctx context.Context, ticker common.Ticker, includeFundamentals bool) (*QuoteResult, error) {
	symbol := ticker.EODHDSymbol()
	if symbol == "" {
		return nil, fmt.Errorf("ticker %q has no provider symbol", ticker.Raw)
	}

	quote, err := f.client.GetRealTimeQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("quote fetch for %s: %w", ticker.String(), err)
	}

	result := f.buildQuoteResult(ticker, quote)

	if result.Price != nil {
		f.resolvePreviousClose(ctx, symbol, result)
		computeChange(result)
	}

	if includeFundamentals {
		fund, err := f.client.GetFundamentals(ctx, symbol)
		if err != nil {
			f.logger.Warn().
				Str("ticker", ticker.String()).
				Err(err).
				Msg("Fundamentals fetch failed, continuing with quote only")
		} else {
			result.Fundamentals = normalizeFundamentals(fund)
		}
	}

	return result, nil
}

// buildQuoteResult maps the raw provider quote into a QuoteResult without
// derived fields.
func (f *Fetcher) buildQuoteResult(ticker common.Ticker, quote *marketdata.RealTimeQuote) *QuoteResult {
	result := &QuoteResult{Ticker: ticker}

	if quote.Close.Valid {
		result.Price = floatPtr(quote.Close.Value)
	}
	if quote.PreviousClose.Valid {
		result.PreviousClose = floatPtr(quote.PreviousClose.Value)
	}
	if quote.Volume.Valid {
		v := int64(quote.Volume.Value)
		result.Volume = &v
	}

	return result
}

// resolvePreviousClose fills PreviousClose when the quote omitted it or
// reported it equal to the current price (a common placeholder on thin
// feeds). One short history lookup supplies the penultimate daily close;
// if that fails the previous close falls back to the current price, which
// reads as a 0% change: unknown, not wrong.
func (f *Fetcher) resolvePreviousClose(ctx context.Context, symbol string, result *QuoteResult) {
	price := *result.Price

	if result.PreviousClose != nil && *result.PreviousClose != price {
		return
	}

	hctx, cancel := context.WithTimeout(ctx, f.historyTimeout)
	defer cancel()

	now := time.Now()
	bars, err := f.client.GetEOD(hctx, symbol,
		marketdata.WithDateRange(now.AddDate(0, 0, -10), now),
		marketdata.WithOrder("a"),
	)
	if err == nil && len(bars) >= 2 {
		prev := bars[len(bars)-2].Close
		if prev > 0 {
			result.PreviousClose = floatPtr(prev)
			return
		}
	}
	if err != nil {
		f.logger.Debug().
			Str("symbol", symbol).
			Err(err).
			Msg("Previous close history lookup failed")
	}

	result.PreviousClose = floatPtr(price)
}

// computeChange derives Change and ChangePercent from price and previous
// close. A zero previous close yields 0% rather than a division error.
func computeChange(result *QuoteResult) {
	if result.Price == nil || result.PreviousClose == nil {
		return
	}

	price := *result.Price
	prev := *result.PreviousClose

	change := price - prev
	result.Change = &change

	pct := 0.0
	if prev > 0 {
		pct = change / prev * 100
	}
	result.ChangePercent = &pct
}

// normalizeFundamentals extracts the enrichment subset from the provider
// payload.
func normalizeFundamentals(fund *marketdata.FundamentalsResponse) *Fundamentals {
	if fund == nil {
		return nil
	}

	result := &Fundamentals{}

	if general := fund.General; general != nil {
		result.Name = general.Name
		result.Sector = general.Sector
		result.Industry = general.Industry
		result.Website = general.WebURL
		result.Description = general.Description
		result.EmployeeCount = general.FullTimeEmployees
	}
	if highlights := fund.Highlights; highlights != nil {
		result.MarketCap = highlights.MarketCapitalization
		result.Revenue = highlights.RevenueTTM
		result.NetProfit = highlights.NetIncomeTTM()
	}

	return result
}

// BuildBulkResult maps one entry of a bulk quote response into a price-only
// QuoteResult. No history fallback runs on the bulk path; an absent or
// placeholder previous close simply reads as 0% change until the next full
// refresh.
func BuildBulkResult(ticker common.Ticker, quote marketdata.RealTimeQuote) *QuoteResult {
	result := &QuoteResult{Ticker: ticker}

	if quote.Close.Valid {
		result.Price = floatPtr(quote.Close.Value)
	}
	if quote.PreviousClose.Valid {
		result.PreviousClose = floatPtr(quote.PreviousClose.Value)
	}
	if quote.Volume.Valid {
		v := int64(quote.Volume.Value)
		result.Volume = &v
	}

	computeChange(result)
	return result
}

func floatPtr(v float64) *float64 {
	return &v
}
