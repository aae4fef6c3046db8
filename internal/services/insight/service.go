// Package insight generates per-company SWOT analyses on demand. Unlike the
// pulse, insights are not cached: each request reflects the company record as
// currently stored.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/llm"
)

const systemInstruction = "You are a financial analyst. Produce a SWOT analysis for the given company as a JSON object with exactly four keys: \"strengths\", \"weaknesses\", \"opportunities\", \"threats\". Each value is an array of two to four short strings. No other keys, no prose outside the JSON."

// Service implements interfaces.InsightService.
type Service struct {
	companies interfaces.CompanyStorage
	generator llm.Generator
	logger    arbor.ILogger
}

// NewService creates the insight service.
func NewService(companies interfaces.CompanyStorage, generator llm.Generator, logger arbor.ILogger) *Service {
	return &Service{
		companies: companies,
		generator: generator,
		logger:    logger,
	}
}

// swotPayload is the JSON shape the completion must produce.
type swotPayload struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// CompanyInsight generates a SWOT analysis for one stored company. The
// ticker must already be in the store; interfaces.ErrNotFound passes through
// so callers can distinguish an unknown ticker from a generation failure.
func (s *Service) CompanyInsight(ctx context.Context, ticker string) (*models.CompanyInsight, error) {
	company, err := s.companies.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}

	response, err := s.generator.GenerateContent(ctx, &llm.ContentRequest{
		Prompt:            buildPrompt(company),
		SystemInstruction: systemInstruction,
		ResponseFormat:    llm.ResponseFormatJSON,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Insight generation failed")
		return nil, fmt.Errorf("insight generation failed for %s: %w", ticker, err)
	}

	var payload swotPayload
	if err := json.Unmarshal([]byte(response.Text), &payload); err != nil {
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Insight response is not valid JSON")
		return nil, fmt.Errorf("invalid insight response for %s: %w", ticker, err)
	}
	if len(payload.Strengths) == 0 && len(payload.Weaknesses) == 0 &&
		len(payload.Opportunities) == 0 && len(payload.Threats) == 0 {
		return nil, fmt.Errorf("empty insight response for %s", ticker)
	}

	return &models.CompanyInsight{
		Ticker:        company.Ticker,
		Name:          company.Name,
		Strengths:     payload.Strengths,
		Weaknesses:    payload.Weaknesses,
		Opportunities: payload.Opportunities,
		Threats:       payload.Threats,
		Provider:      string(response.Provider),
		Model:         response.Model,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// buildPrompt assembles the company context. Missing fields are named as
// unknown rather than omitted so the model does not invent them silently.
func buildPrompt(company *models.Company) string {
	sector := company.Sector
	if sector == "" {
		sector = "Unknown"
	}
	description := strings.TrimSpace(company.Description)
	if description == "" {
		description = "No description available."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s (%s)\nSector: %s\n", company.Name, company.Ticker, sector)
	if company.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", company.Industry)
	}
	fmt.Fprintf(&b, "Description: %s\n", description)
	if company.MarketCap != nil {
		fmt.Fprintf(&b, "Market cap: $%.0f\n", *company.MarketCap)
	}
	if company.Revenue != nil {
		fmt.Fprintf(&b, "Revenue: $%.0f\n", *company.Revenue)
	}
	return b.String()
}
