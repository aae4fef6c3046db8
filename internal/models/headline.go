package models

import (
	"time"
)

// Headline is a stored news item from the market data provider.
type Headline struct {
	ID          string    `json:"id" badgerhold:"unique"` // doc_{uuid}
	Title       string    `json:"title"`
	Link        string    `json:"link" badgerhold:"index"` // Dedup key
	Source      string    `json:"source,omitempty"`
	Tickers     []string  `json:"tickers,omitempty"` // Related symbols as reported
	PublishedAt time.Time `json:"published_at" badgerhold:"index"`
	CreatedAt   time.Time `json:"created_at"`
}
