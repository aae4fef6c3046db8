// Package reference provides the immutable curated enrichment dataset for
// the tracked universe. The store is loaded once at startup and never
// mutated; lookups report absence explicitly rather than defaulting.
package reference

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/marketpulse/internal/common"
)

//go:embed dataset.toml
var embeddedDataset []byte

// Entry is the curated reference record for one ticker.
type Entry struct {
	Ticker        string  `toml:"ticker"` // Exchange-qualified, e.g. "ASX:BHP"
	Name          string  `toml:"name"`
	Sector        string  `toml:"sector"`
	Website       string  `toml:"website"`
	FoundedYear   int     `toml:"founded_year"`
	EmployeeCount int     `toml:"employee_count"`
	Revenue       float64 `toml:"revenue"`
	NetProfit     float64 `toml:"net_profit"`
	CEO           string  `toml:"ceo"`
}

type dataset struct {
	Version   string  `toml:"version"`
	Companies []Entry `toml:"companies"`
}

// Store holds the reference dataset. Immutable after Load.
type Store struct {
	version string
	entries map[string]Entry
	order   []string
}

// Load builds a Store from the embedded dataset, or from the TOML file at
// path when one is configured.
func Load(path string) (*Store, error) {
	data := embeddedDataset
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read reference dataset %s: %w", path, err)
		}
		data = fileData
	}

	var ds dataset
	if err := toml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse reference dataset: %w", err)
	}
	if len(ds.Companies) == 0 {
		return nil, fmt.Errorf("reference dataset contains no companies")
	}

	store := &Store{
		version: ds.Version,
		entries: make(map[string]Entry, len(ds.Companies)),
		order:   make([]string, 0, len(ds.Companies)),
	}

	for _, entry := range ds.Companies {
		parsed := common.ParseTicker(entry.Ticker)
		if parsed.Code == "" {
			return nil, fmt.Errorf("reference dataset has entry with invalid ticker %q", entry.Ticker)
		}
		if entry.Name == "" {
			return nil, fmt.Errorf("reference dataset entry %q has no name", entry.Ticker)
		}
		key := parsed.String()
		if _, exists := store.entries[key]; exists {
			return nil, fmt.Errorf("reference dataset has duplicate ticker %q", key)
		}
		entry.Ticker = key
		store.entries[key] = entry
		store.order = append(store.order, key)
	}

	return store, nil
}

// Version returns the dataset version string.
func (s *Store) Version() string {
	return s.version
}

// Lookup returns the entry for a ticker and whether one exists.
// The ticker may be in any format ParseTicker accepts.
func (s *Store) Lookup(ticker string) (Entry, bool) {
	parsed := common.ParseTicker(ticker)
	if parsed.Code == "" {
		return Entry{}, false
	}
	entry, ok := s.entries[parsed.String()]
	return entry, ok
}

// Tickers returns the tracked universe in dataset order.
func (s *Store) Tickers() []string {
	result := make([]string, len(s.order))
	copy(result, s.order)
	return result
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}
