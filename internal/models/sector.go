package models

// SectorSummary is one sector-level rollup row.
type SectorSummary struct {
	Sector       string  `json:"sector"`
	AvgChange    float64 `json:"avg_change"`    // Mean change percent across the sector's companies
	CompanyCount int     `json:"company_count"`
}
