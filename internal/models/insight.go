package models

import "time"

// CompanyInsight is an LLM-generated SWOT analysis for one company.
// Generated on demand; not persisted.
type CompanyInsight struct {
	Ticker        string    `json:"ticker"`
	Name          string    `json:"name"`
	Strengths     []string  `json:"strengths"`
	Weaknesses    []string  `json:"weaknesses"`
	Opportunities []string  `json:"opportunities"`
	Threats       []string  `json:"threats"`
	Provider      string    `json:"provider,omitempty"`
	Model         string    `json:"model,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
}
