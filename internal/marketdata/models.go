package marketdata

import (
	"encoding/json"
	"time"
)

// RealTimeQuote represents a delayed/real-time quote for one symbol.
// EODHD returns "NA" for numeric fields when no data is available, so the
// numeric fields use a tolerant unmarshaler and report availability via ok
// flags on the typed accessors.
type RealTimeQuote struct {
	Code          string        `json:"code"` // EODHD symbol, e.g. "BHP.AU"
	Timestamp     int64         `json:"timestamp"`
	Open          OptionalFloat `json:"open"`
	High          OptionalFloat `json:"high"`
	Low           OptionalFloat `json:"low"`
	Close         OptionalFloat `json:"close"`
	PreviousClose OptionalFloat `json:"previousClose"`
	Change        OptionalFloat `json:"change"`
	ChangePercent OptionalFloat `json:"change_p"`
	Volume        OptionalFloat `json:"volume"`
}

// OptionalFloat is a float64 that tolerates the "NA" string and null the
// provider emits for unavailable values. Valid is false for those.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON accepts numbers, numeric strings, "NA" and null.
func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	o.Value = 0
	o.Valid = false

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		o.Value = f
		o.Valid = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		// "NA" and empty mean unavailable; anything else is ignored too,
		// a malformed numeric string is indistinguishable from no data.
		return nil
	}

	// null
	return nil
}

// MarshalJSON emits the value or null when unavailable.
func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// EODData represents a single day's end-of-day price data.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// NewsItem represents a single news article.
type NewsItem struct {
	Date    time.Time `json:"-"`
	DateStr string    `json:"date"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Link    string    `json:"link"`
	Symbols []string  `json:"symbols"`
	Tags    []string  `json:"tags"`
}

// NewsResponse is a slice of NewsItem.
type NewsResponse []NewsItem

// FundamentalsResponse represents the fundamentals data used for enrichment.
type FundamentalsResponse struct {
	General    *GeneralInfo `json:"General"`
	Highlights *Highlights  `json:"Highlights"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code              string                 `json:"Code"`
	Type              string                 `json:"Type"`
	Name              string                 `json:"Name"`
	Exchange          string                 `json:"Exchange"`
	CurrencyCode      string                 `json:"CurrencyCode"`
	Sector            string                 `json:"Sector"`
	Industry          string                 `json:"Industry"`
	Description       string                 `json:"Description"`
	Address           string                 `json:"Address"`
	WebURL            string                 `json:"WebURL"`
	FullTimeEmployees int                    `json:"FullTimeEmployees"`
	IPODate           string                 `json:"IPODate"`
	Officers          map[string]OfficerInfo `json:"Officers"`
}

// OfficerInfo represents a company officer/executive
type OfficerInfo struct {
	Name     string `json:"Name"`
	Title    string `json:"Title"`
	YearBorn string `json:"YearBorn"`
}

// Highlights contains key financial highlights.
type Highlights struct {
	MarketCapitalization float64 `json:"MarketCapitalization"`
	EBITDA               float64 `json:"EBITDA"`
	PERatio              float64 `json:"PERatio"`
	DividendYield        float64 `json:"DividendYield"`
	EarningsShare        float64 `json:"EarningsShare"`
	ProfitMargin         float64 `json:"ProfitMargin"`
	RevenueTTM           float64 `json:"RevenueTTM"`
	GrossProfitTTM       float64 `json:"GrossProfitTTM"`
	DilutedEpsTTM        float64 `json:"DilutedEpsTTM"`
}

// NetIncomeTTM approximates trailing net profit from profit margin and
// revenue when both are reported, zero otherwise.
func (h *Highlights) NetIncomeTTM() float64 {
	if h == nil || h.RevenueTTM == 0 || h.ProfitMargin == 0 {
		return 0
	}
	return h.RevenueTTM * h.ProfitMargin
}
