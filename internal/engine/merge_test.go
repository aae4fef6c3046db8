package engine

import (
	"errors"
	"testing"

	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/reference"
)

func refEntry() reference.Entry {
	return reference.Entry{
		Ticker:        "ASX:BHP",
		Name:          "BHP Group",
		Sector:        "Materials",
		Website:       "https://www.bhp.com",
		FoundedYear:   1885,
		EmployeeCount: 80000,
		Revenue:       54e9,
		NetProfit:     11e9,
		CEO:           "Mike Henry",
	}
}

func liveResult() *QuoteResult {
	return &QuoteResult{
		Price:         models.Float64Ptr(42.50),
		PreviousClose: models.Float64Ptr(41.80),
		Change:        models.Float64Ptr(0.70),
		ChangePercent: models.Float64Ptr(1.674),
		Volume:        models.Int64Ptr(8_500_000),
		Fundamentals: &Fundamentals{
			Name:          "BHP Group Limited",
			Sector:        "Basic Materials",
			Industry:      "Industrial Metals & Mining",
			Website:       "https://bhp.com",
			Description:   "Diversified resources company.",
			EmployeeCount: 30000,
			MarketCap:     200e9,
			Revenue:       55e9,
			NetProfit:     12e9,
		},
	}
}

func TestMergeFieldPriorities(t *testing.T) {
	update, err := Merge("ASX:BHP", refEntry(), true, liveResult())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if update.Name != "BHP Group Limited" {
		t.Errorf("expected live name to win, got %q", update.Name)
	}
	if update.Sector == nil || *update.Sector != "Materials" {
		t.Errorf("expected reference sector to be authoritative, got %v", update.Sector)
	}
	if update.Website == nil || *update.Website != "https://bhp.com" {
		t.Errorf("expected live website to win, got %v", update.Website)
	}
	if update.EmployeeCount == nil || *update.EmployeeCount != 30000 {
		t.Errorf("expected live employee count to win, got %v", update.EmployeeCount)
	}
	if update.FoundedYear == nil || *update.FoundedYear != 1885 {
		t.Errorf("expected reference founded year, got %v", update.FoundedYear)
	}
	if update.CEO == nil || *update.CEO != "Mike Henry" {
		t.Errorf("expected reference CEO, got %v", update.CEO)
	}
	if update.Revenue == nil || *update.Revenue != 55e9 {
		t.Errorf("expected live revenue to win, got %v", update.Revenue)
	}
	if update.Price == nil || *update.Price != 42.50 {
		t.Errorf("expected live price, got %v", update.Price)
	}
	if update.MarketCap == nil || *update.MarketCap != 200e9 {
		t.Errorf("expected live market cap, got %v", update.MarketCap)
	}
}

func TestMergeReferenceFallbacks(t *testing.T) {
	live := liveResult()
	live.Fundamentals.Website = ""
	live.Fundamentals.EmployeeCount = 0
	live.Fundamentals.Revenue = 0
	live.Fundamentals.NetProfit = 0

	update, err := Merge("ASX:BHP", refEntry(), true, live)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if update.Website == nil || *update.Website != "https://www.bhp.com" {
		t.Errorf("expected reference website fallback, got %v", update.Website)
	}
	if update.EmployeeCount == nil || *update.EmployeeCount != 80000 {
		t.Errorf("expected reference employee count fallback, got %v", update.EmployeeCount)
	}
	if update.Revenue == nil || *update.Revenue != 54e9 {
		t.Errorf("expected reference revenue when live reports zero, got %v", update.Revenue)
	}
	if update.NetProfit == nil || *update.NetProfit != 11e9 {
		t.Errorf("expected reference net profit when live reports zero, got %v", update.NetProfit)
	}
}

func TestMergeSectorFallbackChain(t *testing.T) {
	tests := []struct {
		name       string
		refSector  string
		fundSector string
		industry   string
		want       string
	}{
		{"reference wins", "Materials", "Basic Materials", "Mining", "Materials"},
		{"provider sector", "", "Basic Materials", "Mining", "Basic Materials"},
		{"provider industry", "", "", "Mining", "Mining"},
		{"other bucket", "", "", "", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := refEntry()
			ref.Sector = tt.refSector
			live := liveResult()
			live.Fundamentals.Sector = tt.fundSector
			live.Fundamentals.Industry = tt.industry

			update, err := Merge("ASX:BHP", ref, true, live)
			if err != nil {
				t.Fatalf("Merge failed: %v", err)
			}
			if update.Sector == nil || *update.Sector != tt.want {
				t.Errorf("expected sector %q, got %v", tt.want, update.Sector)
			}
		})
	}
}

func TestMergeDegradedModeLeavesMarketFieldsUnset(t *testing.T) {
	update, err := Merge("ASX:BHP", refEntry(), true, nil)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if update.Name != "BHP Group" {
		t.Errorf("expected reference name, got %q", update.Name)
	}
	if update.Price != nil || update.PreviousClose != nil || update.Change != nil ||
		update.ChangePercent != nil || update.Volume != nil || update.MarketCap != nil {
		t.Error("expected all live market fields to stay unset in degraded mode")
	}
	if update.Revenue == nil || *update.Revenue != 54e9 {
		t.Errorf("expected reference revenue in degraded mode, got %v", update.Revenue)
	}
	if update.CEO == nil || *update.CEO != "Mike Henry" {
		t.Errorf("expected reference CEO in degraded mode, got %v", update.CEO)
	}
}

func TestMergeRejectsUnidentifiableRecords(t *testing.T) {
	// No live data and no reference entry.
	if _, err := Merge("ASX:XYZ", reference.Entry{}, false, nil); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("expected ErrNoIdentity with no sources, got %v", err)
	}

	// Live quote without fundamentals and no reference entry.
	live := &QuoteResult{Price: models.Float64Ptr(1.0)}
	if _, err := Merge("ASX:XYZ", reference.Entry{}, false, live); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("expected ErrNoIdentity with nameless live data, got %v", err)
	}

	// Fundamentals present but empty name, reference entry nameless too.
	live = liveResult()
	live.Fundamentals.Name = ""
	ref := refEntry()
	ref.Name = ""
	if _, err := Merge("ASX:BHP", ref, true, live); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("expected ErrNoIdentity when neither source names the company, got %v", err)
	}
}
