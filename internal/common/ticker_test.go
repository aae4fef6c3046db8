package common

import (
	"testing"
)

func TestParseTicker(t *testing.T) {
	// Ensure default exchange is ASX for these tests
	originalDefault := DefaultExchange
	DefaultExchange = "ASX"
	defer func() { DefaultExchange = originalDefault }()

	tests := []struct {
		input        string
		wantExchange string
		wantCode     string
		wantString   string
		wantEODHD    string
	}{
		// Exchange-qualified format with colon separator
		{"ASX:BHP", "ASX", "BHP", "ASX:BHP", "BHP.AU"},
		{"ASX:CBA", "ASX", "CBA", "ASX:CBA", "CBA.AU"},
		{"NYSE:AAPL", "NYSE", "AAPL", "NYSE:AAPL", "AAPL.US"},
		{"NASDAQ:MSFT", "NASDAQ", "MSFT", "NASDAQ:MSFT", "MSFT.US"},

		// Exchange-qualified format with dot separator (EXCHANGE.CODE)
		{"ASX.BHP", "ASX", "BHP", "ASX:BHP", "BHP.AU"},
		{"NYSE.AAPL", "NYSE", "AAPL", "NYSE:AAPL", "AAPL.US"},

		// Bare code defaults to ASX
		{"BHP", "ASX", "BHP", "ASX:BHP", "BHP.AU"},
		{"WES", "ASX", "WES", "ASX:WES", "WES.AU"},

		// Case normalization
		{"asx:bhp", "ASX", "BHP", "ASX:BHP", "BHP.AU"},
		{"asx.bhp", "ASX", "BHP", "ASX:BHP", "BHP.AU"},
		{"bhp", "ASX", "BHP", "ASX:BHP", "BHP.AU"},

		// Whitespace handling
		{"  ASX:BHP  ", "ASX", "BHP", "ASX:BHP", "BHP.AU"},
		{"  BHP  ", "ASX", "BHP", "ASX:BHP", "BHP.AU"},

		// Empty input
		{"", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseTicker(tt.input)

			if result.Exchange != tt.wantExchange {
				t.Errorf("Exchange = %q, want %q", result.Exchange, tt.wantExchange)
			}
			if result.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", result.Code, tt.wantCode)
			}
			if result.String() != tt.wantString {
				t.Errorf("String() = %q, want %q", result.String(), tt.wantString)
			}
			if result.EODHDSymbol() != tt.wantEODHD {
				t.Errorf("EODHDSymbol() = %q, want %q", result.EODHDSymbol(), tt.wantEODHD)
			}
		})
	}
}

func TestParseTickers(t *testing.T) {
	input := []string{"ASX:BHP", "ASX:CBA", "WES", "  ", ""}
	result := ParseTickers(input)

	if len(result) != 3 {
		t.Errorf("ParseTickers returned %d tickers, want 3", len(result))
	}

	expected := []string{"BHP", "CBA", "WES"}
	for i, ticker := range result {
		if ticker.Code != expected[i] {
			t.Errorf("result[%d].Code = %q, want %q", i, ticker.Code, expected[i])
		}
	}
}

func TestParseEODHDTicker(t *testing.T) {
	tests := []struct {
		input        string
		wantExchange string
		wantCode     string
	}{
		// Standard EODHD format
		{"CBA.AU", "AU", "CBA"},
		{"AAPL.US", "US", "AAPL"},
		{"VOD.LSE", "LSE", "VOD"},
		{"SAP.XETRA", "XETRA", "SAP"},

		// Code with dot (e.g., BRK.B)
		{"BRK.B.US", "US", "BRK.B"},

		// Case normalization
		{"cba.au", "AU", "CBA"},

		// Whitespace handling
		{"  CBA.AU  ", "AU", "CBA"},

		// Invalid formats
		{"", "", ""},
		{"NODOT", "", ""},
		{".", "", ""},
		{".AU", "", ""},
		{"CBA.", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseEODHDTicker(tt.input)

			if result.Exchange != tt.wantExchange {
				t.Errorf("Exchange = %q, want %q", result.Exchange, tt.wantExchange)
			}
			if result.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", result.Code, tt.wantCode)
			}
		})
	}
}
