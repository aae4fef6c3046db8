// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "ASX:BHP", "NYSE:AAPL")
type Ticker struct {
	// Exchange is the exchange code (e.g., "ASX", "NYSE", "NASDAQ")
	Exchange string
	// Code is the stock/security code (e.g., "BHP", "AAPL")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps exchange codes to EODHD API suffixes.
var ExchangeToSuffix = map[string]string{
	"ASX":    ".AU",
	"NYSE":   ".US",
	"NASDAQ": ".US",
	"LSE":    ".LSE",
	"TSX":    ".TO",
	"XETRA":  ".XETRA",
}

// DefaultExchange is the exchange assumed when parsing tickers without an
// exchange prefix. Overridden via [market] default_exchange in TOML.
var DefaultExchange = "ASX"

// SetDefaultExchange sets the default exchange for parsing tickers.
// Called during app initialization from config.
func SetDefaultExchange(exchange string) {
	if exchange != "" {
		DefaultExchange = strings.ToUpper(exchange)
	}
}

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "ASX:BHP" -> Exchange="ASX", Code="BHP" (colon separator)
//   - "ASX.BHP" -> Exchange="ASX", Code="BHP" (dot separator)
//   - "BHP" -> Exchange=DefaultExchange, Code="BHP"
//   - "bhp" -> Exchange=DefaultExchange, Code="BHP" (normalized to uppercase)
//
// Note: EODHD uses CODE.EXCHANGE (e.g., "BHP.AU"), while our format uses
// EXCHANGE.CODE. Use EODHDSymbol() to convert to EODHD format.
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(ticker[idx+1:]),
			Raw:      ticker,
		}
	}

	// Dot separator only matches when the prefix is a known exchange, so
	// codes containing dots still parse as bare codes.
	if idx := strings.Index(ticker, "."); idx > 0 {
		possibleExchange := strings.ToUpper(ticker[:idx])
		if _, ok := ExchangeToSuffix[possibleExchange]; ok {
			return Ticker{
				Exchange: possibleExchange,
				Code:     strings.ToUpper(ticker[idx+1:]),
				Raw:      ticker,
			}
		}
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// EODHDSymbol returns the EODHD API symbol format.
// Example: "ASX:BHP" -> "BHP.AU"
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		suffix = ".AU"
	}
	return t.Code + suffix
}

// ParseTickers parses a list of ticker strings, dropping any that are empty.
func ParseTickers(tickers []string) []Ticker {
	result := make([]Ticker, 0, len(tickers))
	for _, t := range tickers {
		if parsed := ParseTicker(t); parsed.Code != "" {
			result = append(result, parsed)
		}
	}
	return result
}

// ParseEODHDTicker parses an EODHD-format ticker string.
// EODHD format: CODE.EXCHANGE (e.g., "CBA.AU", "AAPL.US").
// Bulk quote responses identify symbols in this format; this maps them back.
func ParseEODHDTicker(symbol string) Ticker {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return Ticker{}
	}

	// LastIndex because codes can contain dots (e.g., "BRK.B.US")
	lastDot := strings.LastIndex(symbol, ".")
	if lastDot <= 0 || lastDot == len(symbol)-1 {
		return Ticker{}
	}

	return Ticker{
		Exchange: strings.ToUpper(symbol[lastDot+1:]),
		Code:     strings.ToUpper(symbol[:lastDot]),
		Raw:      symbol,
	}
}
