package engine

import (
	"sort"

	"github.com/ternarybob/marketpulse/internal/models"
)

// SectorSummaries groups companies by sector and averages their change
// percent. A company that has never produced a change observation counts
// as 0.0 rather than being excluded, so sector membership stays stable
// across partial refreshes. An empty sector is its own bucket.
//
// Results are ordered by average change descending with ties broken by
// sector label, so any permutation of the input yields the same output.
func SectorSummaries(companies []models.Company) []models.SectorSummary {
	type bucket struct {
		sector string
		sum    float64
		count  int
	}

	index := make(map[string]*bucket)
	order := make([]*bucket, 0)

	for _, company := range companies {
		b, ok := index[company.Sector]
		if !ok {
			b = &bucket{sector: company.Sector}
			index[company.Sector] = b
			order = append(order, b)
		}
		if company.ChangePercent != nil {
			b.sum += *company.ChangePercent
		}
		b.count++
	}

	summaries := make([]models.SectorSummary, len(order))
	for i, b := range order {
		summaries[i] = models.SectorSummary{
			Sector:       b.sector,
			AvgChange:    b.sum / float64(b.count),
			CompanyCount: b.count,
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].AvgChange != summaries[j].AvgChange {
			return summaries[i].AvgChange > summaries[j].AvgChange
		}
		return summaries[i].Sector < summaries[j].Sector
	})

	return summaries
}

// TopMovers returns up to n companies with a live price, ordered by change
// percent descending. Companies without a change observation rank as 0%.
func TopMovers(companies []models.Company, n int) []models.Company {
	movers := make([]models.Company, 0, len(companies))
	for _, company := range companies {
		if company.Price != nil {
			movers = append(movers, company)
		}
	}

	sort.SliceStable(movers, func(i, j int) bool {
		return changeOrZero(movers[i]) > changeOrZero(movers[j])
	})

	if n > 0 && len(movers) > n {
		movers = movers[:n]
	}
	return movers
}

// ByMarketCap returns up to n companies ordered by market cap descending.
// Companies without a market cap observation sort last.
func ByMarketCap(companies []models.Company, n int) []models.Company {
	sorted := make([]models.Company, len(companies))
	copy(sorted, companies)

	sort.SliceStable(sorted, func(i, j int) bool {
		return capOrNegative(sorted[i]) > capOrNegative(sorted[j])
	})

	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func changeOrZero(c models.Company) float64 {
	if c.ChangePercent == nil {
		return 0
	}
	return *c.ChangePercent
}

func capOrNegative(c models.Company) float64 {
	if c.MarketCap == nil {
		return -1
	}
	return *c.MarketCap
}
