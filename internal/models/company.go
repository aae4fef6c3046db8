package models

import (
	"time"
)

// Company is the persisted enriched record for one tracked ticker.
//
// Live market fields are pointers so that "never observed" is distinct from a
// legitimate zero. A nil Price means no quote has ever succeeded for this
// ticker; a zero ChangePercent means the price genuinely did not move.
type Company struct {
	// Ticker is the exchange-qualified ticker (e.g., "ASX:BHP"), unique key.
	Ticker string `json:"ticker" badgerhold:"unique"`

	// Identity and enrichment
	Name        string `json:"name"`
	Sector      string `json:"sector" badgerhold:"index"`
	Industry    string `json:"industry,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
	CEO         string `json:"ceo,omitempty"`

	FoundedYear   *int `json:"founded_year,omitempty"`
	EmployeeCount *int `json:"employee_count,omitempty"`

	// Live market data
	Price         *float64 `json:"price,omitempty"`
	PreviousClose *float64 `json:"previous_close,omitempty"`
	Change        *float64 `json:"change,omitempty"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
	Volume        *int64   `json:"volume,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`

	// Financials (TTM where live, approximate where reference-sourced)
	Revenue   *float64 `json:"revenue,omitempty"`
	NetProfit *float64 `json:"net_profit,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyUpdate is a field-wise patch produced by one merge pass.
// Nil fields mean "no observation this cycle, keep the persisted value";
// non-nil fields overwrite. Name is required (a record without a resolvable
// name is rejected upstream).
type CompanyUpdate struct {
	Ticker string
	Name   string

	Sector      *string
	Industry    *string
	Website     *string
	Description *string
	CEO         *string

	FoundedYear   *int
	EmployeeCount *int

	Price         *float64
	PreviousClose *float64
	Change        *float64
	ChangePercent *float64
	Volume        *int64
	MarketCap     *float64

	Revenue   *float64
	NetProfit *float64
}

// Float64Ptr returns a pointer to v. Convenience for building updates.
func Float64Ptr(v float64) *float64 { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
