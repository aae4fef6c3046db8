package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
)

// FetchOutcome is the result of one ticker's fetch within a batch: either a
// QuoteResult or the error that prevented one. Failures are data, not
// control flow; a batch always runs to completion.
type FetchOutcome struct {
	Ticker string
	Result *QuoteResult
	Err    error
}

// TimedOut reports whether the outcome failed on the per-item budget.
func (o FetchOutcome) TimedOut() bool {
	return o.Err != nil && errors.Is(o.Err, context.DeadlineExceeded)
}

// Coordinator runs per-ticker fetches across a bounded worker pool.
type Coordinator struct {
	fetcher      *Fetcher
	workers      int
	fetchTimeout time.Duration
	logger       arbor.ILogger
}

// NewCoordinator creates a Coordinator with the given pool width and
// per-item timeout.
func NewCoordinator(fetcher *Fetcher, workers int, fetchTimeout time.Duration, logger arbor.ILogger) *Coordinator {
	if workers <= 0 {
		workers = 15
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	return &Coordinator{
		fetcher:      fetcher,
		workers:      workers,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// FetchAll fetches every ticker through the pool and returns outcomes keyed
// by exchange-qualified ticker. Each item gets its own hard timeout; a slow
// or failed item never cancels its siblings. Completion order is not
// deterministic, which is why results key by ticker rather than position.
func (c *Coordinator) FetchAll(ctx context.Context, tickers []common.Ticker, includeFundamentals bool) map[string]FetchOutcome {
	outcomes := make(map[string]FetchOutcome, len(tickers))
	if len(tickers) == 0 {
		return outcomes
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, c.workers)
	)

	for _, ticker := range tickers {
		wg.Add(1)
		go func(t common.Ticker) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			ictx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
			defer cancel()

			result, err := c.fetcher.Fetch(ictx, t, includeFundamentals)
			if err != nil && ictx.Err() == context.DeadlineExceeded {
				err = fmt.Errorf("fetch for %s exceeded %v: %w", t.String(), c.fetchTimeout, context.DeadlineExceeded)
			}

			mu.Lock()
			outcomes[t.String()] = FetchOutcome{
				Ticker: t.String(),
				Result: result,
				Err:    err,
			}
			mu.Unlock()
		}(ticker)
	}

	wg.Wait()
	return outcomes
}

// FetchQuotes runs the price-only bulk path: tickers are split into
// fixed-size chunks and each chunk goes through the multi-symbol quote
// endpoint. Chunks run sequentially; a failed chunk marks only its own
// tickers as failed.
func (c *Coordinator) FetchQuotes(ctx context.Context, tickers []common.Ticker, chunkSize int) map[string]FetchOutcome {
	outcomes := make(map[string]FetchOutcome, len(tickers))
	if len(tickers) == 0 {
		return outcomes
	}
	if chunkSize <= 0 {
		chunkSize = 20
	}

	bySymbol := make(map[string]common.Ticker, len(tickers))
	for _, t := range tickers {
		bySymbol[t.EODHDSymbol()] = t
	}

	for start := 0; start < len(tickers); start += chunkSize {
		end := start + chunkSize
		if end > len(tickers) {
			end = len(tickers)
		}
		chunk := tickers[start:end]

		symbols := make([]string, len(chunk))
		for i, t := range chunk {
			symbols[i] = t.EODHDSymbol()
		}

		quotes, err := c.fetcher.client.GetRealTimeQuotes(ctx, symbols)
		if err != nil {
			for _, t := range chunk {
				outcomes[t.String()] = FetchOutcome{
					Ticker: t.String(),
					Err:    fmt.Errorf("bulk quote fetch: %w", err),
				}
			}
			continue
		}

		seen := make(map[string]bool, len(quotes))
		for _, quote := range quotes {
			ticker, ok := bySymbol[quote.Code]
			if !ok {
				c.logger.Debug().Str("code", quote.Code).Msg("Bulk quote for unrequested symbol, skipping")
				continue
			}
			seen[ticker.String()] = true
			outcomes[ticker.String()] = FetchOutcome{
				Ticker: ticker.String(),
				Result: BuildBulkResult(ticker, quote),
			}
		}

		// Symbols the provider silently dropped from the response
		for _, t := range chunk {
			if !seen[t.String()] {
				outcomes[t.String()] = FetchOutcome{
					Ticker: t.String(),
					Err:    fmt.Errorf("bulk quote response missing %s", t.String()),
				}
			}
		}
	}

	return outcomes
}
