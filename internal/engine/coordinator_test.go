package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ternarybob/marketpulse/internal/common"
)

func testTickers(n int) []common.Ticker {
	tickers := make([]common.Ticker, n)
	for i := range tickers {
		tickers[i] = common.ParseTicker(fmt.Sprintf("T%02d", i))
	}
	return tickers
}

func TestFetchAllCompletesDespiteTimeouts(t *testing.T) {
	client := newFakeClient()
	tickers := testTickers(17)

	for i, ticker := range tickers {
		symbol := ticker.EODHDSymbol()
		client.quotes[symbol] = quoteOf(symbol, 10.0+float64(i), 9.0, 1000)
	}
	// Three slow tickers blow the per-item budget.
	for _, ticker := range []common.Ticker{tickers[2], tickers[8], tickers[14]} {
		client.delays[ticker.EODHDSymbol()] = 500 * time.Millisecond
	}

	fetcher := NewFetcher(client, time.Second, common.GetLogger())
	coordinator := NewCoordinator(fetcher, 5, 50*time.Millisecond, common.GetLogger())

	outcomes := coordinator.FetchAll(context.Background(), tickers, false)

	if len(outcomes) != 17 {
		t.Fatalf("expected 17 outcomes, got %d", len(outcomes))
	}

	var succeeded, timedOut int
	for _, outcome := range outcomes {
		switch {
		case outcome.TimedOut():
			timedOut++
		case outcome.Err == nil && outcome.Result != nil:
			succeeded++
		default:
			t.Errorf("unexpected outcome for %s: %v", outcome.Ticker, outcome.Err)
		}
	}
	if succeeded != 14 {
		t.Errorf("expected 14 successes, got %d", succeeded)
	}
	if timedOut != 3 {
		t.Errorf("expected 3 timeouts, got %d", timedOut)
	}
}

func TestFetchAllEmptyUniverse(t *testing.T) {
	fetcher := NewFetcher(newFakeClient(), time.Second, common.GetLogger())
	coordinator := NewCoordinator(fetcher, 5, time.Second, common.GetLogger())

	outcomes := coordinator.FetchAll(context.Background(), nil, false)
	if len(outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(outcomes))
	}
}

func TestFetchQuotesChunksSequentially(t *testing.T) {
	client := newFakeClient()
	tickers := testTickers(5)
	for _, ticker := range tickers {
		symbol := ticker.EODHDSymbol()
		client.quotes[symbol] = quoteOf(symbol, 20.0, 19.0, 3000)
	}

	fetcher := NewFetcher(client, time.Second, common.GetLogger())
	coordinator := NewCoordinator(fetcher, 5, time.Second, common.GetLogger())

	outcomes := coordinator.FetchQuotes(context.Background(), tickers, 2)

	if len(client.bulkCalls) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(client.bulkCalls))
	}
	wantSizes := []int{2, 2, 1}
	for i, call := range client.bulkCalls {
		if len(call) != wantSizes[i] {
			t.Errorf("chunk %d: expected %d symbols, got %d", i, wantSizes[i], len(call))
		}
	}

	for _, ticker := range tickers {
		outcome := outcomes[ticker.String()]
		if outcome.Err != nil {
			t.Errorf("%s: unexpected error %v", ticker.String(), outcome.Err)
			continue
		}
		if outcome.Result == nil || outcome.Result.Price == nil || *outcome.Result.Price != 20.0 {
			t.Errorf("%s: missing bulk price", ticker.String())
		}
		if outcome.Result.ChangePercent == nil {
			t.Errorf("%s: expected derived change percent on bulk path", ticker.String())
		}
	}
}

func TestFetchQuotesChunkFailureIsIsolated(t *testing.T) {
	client := newFakeClient()
	tickers := testTickers(4)
	for _, ticker := range tickers {
		symbol := ticker.EODHDSymbol()
		client.quotes[symbol] = quoteOf(symbol, 20.0, 19.0, 3000)
	}
	// The first chunk fails, the second must still succeed.
	client.failBulk[tickers[0].EODHDSymbol()] = true

	fetcher := NewFetcher(client, time.Second, common.GetLogger())
	coordinator := NewCoordinator(fetcher, 5, time.Second, common.GetLogger())

	outcomes := coordinator.FetchQuotes(context.Background(), tickers, 2)

	for _, ticker := range tickers[:2] {
		if outcomes[ticker.String()].Err == nil {
			t.Errorf("%s: expected error from failed chunk", ticker.String())
		}
	}
	for _, ticker := range tickers[2:] {
		outcome := outcomes[ticker.String()]
		if outcome.Err != nil || outcome.Result == nil {
			t.Errorf("%s: expected success from healthy chunk, got %v", ticker.String(), outcome.Err)
		}
	}
}

func TestFetchQuotesMissingSymbolReported(t *testing.T) {
	client := newFakeClient()
	tickers := testTickers(3)
	// Provider silently drops the middle symbol from the response.
	for _, ticker := range []common.Ticker{tickers[0], tickers[2]} {
		symbol := ticker.EODHDSymbol()
		client.quotes[symbol] = quoteOf(symbol, 20.0, 19.0, 3000)
	}

	fetcher := NewFetcher(client, time.Second, common.GetLogger())
	coordinator := NewCoordinator(fetcher, 5, time.Second, common.GetLogger())

	outcomes := coordinator.FetchQuotes(context.Background(), tickers, 10)

	if outcomes[tickers[1].String()].Err == nil {
		t.Errorf("expected error for symbol missing from bulk response")
	}
	if outcomes[tickers[0].String()].Err != nil || outcomes[tickers[2].String()].Err != nil {
		t.Errorf("expected present symbols to succeed")
	}
}
