// Package pulse maintains the cached market summary document. One generated
// summary is kept under a well-known key and re-served until the next
// successful generation; quota exhaustion never destroys a good summary.
package pulse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/engine"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/llm"
)

// placeholderSummary is served when no summary has ever been generated and
// the provider quota is exhausted. It is written at most once.
const placeholderSummary = "Market summary is temporarily unavailable while the analysis service is over capacity. Live prices and sector data continue to refresh; a fresh summary will appear once capacity returns."

const systemInstruction = "You are a financial market analyst. Write exactly three sentences summarizing the current session: overall direction, notable movers, and any sector or news themes. Plain prose, no preamble, no disclaimers."

// Service implements interfaces.PulseService.
type Service struct {
	companies      interfaces.CompanyStorage
	headlines      interfaces.HeadlineStorage
	pulseStorage   interfaces.PulseStorage
	generator      llm.Generator
	moversLimit    int
	headlinesLimit int
	logger         arbor.ILogger
}

// NewService creates the pulse service. moversLimit and headlinesLimit bound
// the prompt; zero values fall back to defaults.
func NewService(
	companies interfaces.CompanyStorage,
	headlines interfaces.HeadlineStorage,
	pulseStorage interfaces.PulseStorage,
	generator llm.Generator,
	moversLimit int,
	headlinesLimit int,
	logger arbor.ILogger,
) *Service {
	if moversLimit <= 0 {
		moversLimit = 30
	}
	if headlinesLimit <= 0 {
		headlinesLimit = 6
	}
	return &Service{
		companies:      companies,
		headlines:      headlines,
		pulseStorage:   pulseStorage,
		generator:      generator,
		moversLimit:    moversLimit,
		headlinesLimit: headlinesLimit,
		logger:         logger,
	}
}

// Generate runs one proactive generation pass. Outcomes:
//   - success: the cached pulse is unconditionally replaced;
//   - quota exhaustion: the existing pulse stays untouched; only when no
//     pulse exists at all is one generic placeholder written;
//   - any other failure: no store mutation.
func (s *Service) Generate(ctx context.Context) error {
	prompt, err := s.buildPrompt(ctx)
	if err != nil {
		return fmt.Errorf("failed to build pulse prompt: %w", err)
	}
	if prompt == "" {
		s.logger.Info().Msg("No market data available yet, skipping pulse generation")
		return nil
	}

	response, err := s.generator.GenerateContent(ctx, &llm.ContentRequest{
		Prompt:            prompt,
		SystemInstruction: systemInstruction,
	})
	if err != nil {
		if llm.IsQuotaError(err) {
			return s.handleQuotaExhaustion(ctx, err)
		}
		s.logger.Error().Err(err).Msg("Pulse generation failed")
		return fmt.Errorf("pulse generation failed: %w", err)
	}

	doc := &models.PulseDocument{
		ID:          models.PulseDocumentID,
		Summary:     strings.TrimSpace(response.Text),
		Type:        models.PulseTypeGenerated,
		Provider:    string(response.Provider),
		Model:       response.Model,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.pulseStorage.Save(ctx, doc); err != nil {
		return fmt.Errorf("failed to save pulse document: %w", err)
	}

	s.logger.Info().
		Str("provider", doc.Provider).
		Str("model", doc.Model).
		Msg("Market pulse updated")
	return nil
}

// GetOrGenerate returns the cached pulse, running one synchronous generation
// pass when none exists yet.
func (s *Service) GetOrGenerate(ctx context.Context) (*models.PulseDocument, error) {
	doc, err := s.pulseStorage.Get(ctx)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to load pulse document: %w", err)
	}

	if genErr := s.Generate(ctx); genErr != nil {
		return nil, genErr
	}

	doc, err = s.pulseStorage.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("no pulse available after generation: %w", err)
	}
	return doc, nil
}

// handleQuotaExhaustion keeps the cached pulse alive across quota windows.
// A placeholder is only written on a cold start; repeat exhaustion finds the
// placeholder already cached and writes nothing.
func (s *Service) handleQuotaExhaustion(ctx context.Context, cause error) error {
	if _, err := s.pulseStorage.Get(ctx); err == nil {
		s.logger.Warn().Err(cause).Msg("LLM quota exhausted, keeping cached pulse")
		return nil
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("failed to check cached pulse: %w", err)
	}

	s.logger.Warn().Err(cause).Msg("LLM quota exhausted with no cached pulse, writing placeholder")
	doc := &models.PulseDocument{
		ID:          models.PulseDocumentID,
		Summary:     placeholderSummary,
		Type:        models.PulseTypePlaceholder,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.pulseStorage.Save(ctx, doc); err != nil {
		return fmt.Errorf("failed to save placeholder pulse: %w", err)
	}
	return nil
}

// buildPrompt assembles a bounded prompt from top movers, sector rollups and
// recent headlines. Returns empty when no companies are stored yet.
func (s *Service) buildPrompt(ctx context.Context) (string, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list companies: %w", err)
	}
	if len(companies) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Current market snapshot.\n\nTop movers (ticker, price, change%):\n")
	for _, company := range engine.TopMovers(companies, s.moversLimit) {
		fmt.Fprintf(&b, "- %s (%s): $%.2f, %+.2f%%\n",
			company.Ticker, company.Name, deref(company.Price), deref(company.ChangePercent))
	}

	b.WriteString("\nSector averages (change%):\n")
	for _, sector := range engine.SectorSummaries(companies) {
		name := sector.Sector
		if name == "" {
			name = "Unclassified"
		}
		fmt.Fprintf(&b, "- %s: %+.2f%% across %d companies\n", name, sector.AvgChange, sector.CompanyCount)
	}

	headlines, err := s.headlines.MostRecent(ctx, s.headlinesLimit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Headline lookup failed, generating pulse without news")
	} else if len(headlines) > 0 {
		b.WriteString("\nRecent headlines:\n")
		for _, headline := range headlines {
			fmt.Fprintf(&b, "- %s (%s)\n", headline.Title, headline.Source)
		}
	}

	return b.String(), nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
