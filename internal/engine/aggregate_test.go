package engine

import (
	"math"
	"reflect"
	"testing"

	"github.com/ternarybob/marketpulse/internal/models"
)

func company(ticker, sector string, changePct *float64) models.Company {
	c := models.Company{Ticker: ticker, Name: ticker, Sector: sector, ChangePercent: changePct}
	if changePct != nil {
		c.Price = models.Float64Ptr(10)
	}
	return c
}

func TestSectorSummariesAveragesWithNilAsZero(t *testing.T) {
	companies := []models.Company{
		company("ASX:A", "Materials", models.Float64Ptr(2.0)),
		company("ASX:B", "Materials", models.Float64Ptr(-1.0)),
		company("ASX:C", "Materials", nil),
	}

	summaries := SectorSummaries(companies)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 sector, got %d", len(summaries))
	}
	want := 1.0 / 3.0
	if math.Abs(summaries[0].AvgChange-want) > 1e-9 {
		t.Errorf("expected avg change %v, got %v", want, summaries[0].AvgChange)
	}
	if summaries[0].CompanyCount != 3 {
		t.Errorf("expected count 3, got %d", summaries[0].CompanyCount)
	}
}

func TestSectorSummariesOrderAndEmptySectorBucket(t *testing.T) {
	companies := []models.Company{
		company("ASX:A", "Energy", models.Float64Ptr(-2.0)),
		company("ASX:B", "", models.Float64Ptr(0.5)),
		company("ASX:C", "Financials", models.Float64Ptr(3.0)),
	}

	summaries := SectorSummaries(companies)
	if len(summaries) != 3 {
		t.Fatalf("expected 3 sectors, got %d", len(summaries))
	}

	wantOrder := []string{"Financials", "", "Energy"}
	for i, want := range wantOrder {
		if summaries[i].Sector != want {
			t.Errorf("position %d: expected sector %q, got %q", i, want, summaries[i].Sector)
		}
	}
}

func TestSectorSummariesPermutationStable(t *testing.T) {
	base := []models.Company{
		company("ASX:A", "Materials", models.Float64Ptr(2.0)),
		company("ASX:B", "Energy", models.Float64Ptr(2.0)),
		company("ASX:C", "Materials", models.Float64Ptr(-1.0)),
		company("ASX:D", "Financials", models.Float64Ptr(0.5)),
		company("ASX:E", "Energy", models.Float64Ptr(2.0)),
	}

	want := SectorSummaries(base)

	// Materials and Financials tie at 0.5; the label tie-break pins the
	// ranking regardless of input order.
	wantOrder := []string{"Energy", "Financials", "Materials"}
	for i, sector := range wantOrder {
		if want[i].Sector != sector {
			t.Fatalf("position %d: expected sector %q, got %q", i, sector, want[i].Sector)
		}
	}

	permutations := [][]int{
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
		{1, 4, 0, 3, 2},
	}
	for _, perm := range permutations {
		shuffled := make([]models.Company, len(base))
		for i, j := range perm {
			shuffled[i] = base[j]
		}
		got := SectorSummaries(shuffled)

		if len(got) != len(want) {
			t.Fatalf("permutation changed sector count: %d vs %d", len(got), len(want))
		}
		for i := range want {
			if got[i].Sector != want[i].Sector ||
				math.Abs(got[i].AvgChange-want[i].AvgChange) > 1e-9 ||
				got[i].CompanyCount != want[i].CompanyCount {
				t.Errorf("permutation %v changed summary %d: %+v vs %+v", perm, i, got[i], want[i])
			}
		}
	}
}

func TestTopMoversExcludesPriceless(t *testing.T) {
	companies := []models.Company{
		company("ASX:A", "Materials", models.Float64Ptr(1.0)),
		company("ASX:B", "Energy", nil), // never fetched, no price
		company("ASX:C", "Financials", models.Float64Ptr(4.0)),
		company("ASX:D", "Materials", models.Float64Ptr(-2.0)),
	}

	movers := TopMovers(companies, 10)
	tickers := make([]string, len(movers))
	for i, m := range movers {
		tickers[i] = m.Ticker
	}
	want := []string{"ASX:C", "ASX:A", "ASX:D"}
	if !reflect.DeepEqual(tickers, want) {
		t.Errorf("expected order %v, got %v", want, tickers)
	}

	if limited := TopMovers(companies, 2); len(limited) != 2 {
		t.Errorf("expected limit of 2, got %d", len(limited))
	}
}

func TestByMarketCapOrdersDescendingWithUnknownLast(t *testing.T) {
	a := company("ASX:A", "Materials", models.Float64Ptr(1.0))
	a.MarketCap = models.Float64Ptr(50e9)
	b := company("ASX:B", "Energy", models.Float64Ptr(1.0))
	b.MarketCap = models.Float64Ptr(200e9)
	c := company("ASX:C", "Financials", models.Float64Ptr(1.0)) // no market cap

	ranked := ByMarketCap([]models.Company{a, c, b}, 0)
	want := []string{"ASX:B", "ASX:A", "ASX:C"}
	for i, w := range want {
		if ranked[i].Ticker != w {
			t.Errorf("position %d: expected %s, got %s", i, w, ranked[i].Ticker)
		}
	}
}
