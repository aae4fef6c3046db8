package insight

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/llm"
)

type fakeGenerator struct {
	response    *llm.ContentResponse
	err         error
	lastRequest *llm.ContentRequest
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error) {
	f.lastRequest = request
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type stubCompanyStore struct {
	companies map[string]models.Company
}

func (s *stubCompanyStore) Upsert(ctx context.Context, update *models.CompanyUpdate) error {
	return errors.New("not implemented")
}

func (s *stubCompanyStore) Get(ctx context.Context, ticker string) (*models.Company, error) {
	company, ok := s.companies[ticker]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	copied := company
	return &copied, nil
}

func (s *stubCompanyStore) List(ctx context.Context) ([]models.Company, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCompanyStore) Count(ctx context.Context) (int, error) {
	return len(s.companies), nil
}

func (s *stubCompanyStore) Delete(ctx context.Context, ticker string) error {
	return nil
}

func newTestService(generator *fakeGenerator) *Service {
	store := &stubCompanyStore{companies: map[string]models.Company{
		"ASX:BHP": {
			Ticker:      "ASX:BHP",
			Name:        "BHP Group",
			Sector:      "Materials",
			Industry:    "Metals & Mining",
			Description: "Global resources company producing iron ore, copper and coal.",
			MarketCap:   models.Float64Ptr(200e9),
		},
	}}
	return NewService(store, generator, common.GetLogger())
}

const swotJSON = `{
	"strengths": ["Scale", "Low-cost production"],
	"weaknesses": ["Commodity price exposure"],
	"opportunities": ["Copper demand growth"],
	"threats": ["Regulatory change", "China slowdown"]
}`

func TestCompanyInsightParsesStructuredResponse(t *testing.T) {
	generator := &fakeGenerator{response: &llm.ContentResponse{
		Text:     swotJSON,
		Provider: llm.ProviderGemini,
		Model:    "gemini-3-flash-preview",
	}}
	service := newTestService(generator)

	result, err := service.CompanyInsight(context.Background(), "ASX:BHP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Ticker != "ASX:BHP" || result.Name != "BHP Group" {
		t.Errorf("unexpected identity: %s / %s", result.Ticker, result.Name)
	}
	if !reflect.DeepEqual(result.Strengths, []string{"Scale", "Low-cost production"}) {
		t.Errorf("unexpected strengths: %v", result.Strengths)
	}
	if len(result.Threats) != 2 {
		t.Errorf("expected 2 threats, got %v", result.Threats)
	}
	if result.Provider != "gemini" {
		t.Errorf("expected provider gemini, got %q", result.Provider)
	}
	if result.GeneratedAt.IsZero() {
		t.Error("expected generation timestamp")
	}
}

func TestCompanyInsightRequestsStructuredJSON(t *testing.T) {
	generator := &fakeGenerator{response: &llm.ContentResponse{Text: swotJSON}}
	service := newTestService(generator)

	if _, err := service.CompanyInsight(context.Background(), "ASX:BHP"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if generator.lastRequest == nil {
		t.Fatal("expected a generation request")
	}
	if generator.lastRequest.ResponseFormat != llm.ResponseFormatJSON {
		t.Errorf("expected structured JSON format, got %q", generator.lastRequest.ResponseFormat)
	}
	if generator.lastRequest.SystemInstruction == "" {
		t.Error("expected a system instruction")
	}
}

func TestCompanyInsightUnknownTicker(t *testing.T) {
	generator := &fakeGenerator{response: &llm.ContentResponse{Text: swotJSON}}
	service := newTestService(generator)

	_, err := service.CompanyInsight(context.Background(), "ASX:ZZZ")
	if !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if generator.lastRequest != nil {
		t.Error("expected no generation call for an unknown ticker")
	}
}

func TestCompanyInsightGeneratorFailure(t *testing.T) {
	cause := errors.New("backend unavailable")
	service := newTestService(&fakeGenerator{err: cause})

	_, err := service.CompanyInsight(context.Background(), "ASX:BHP")
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped generator error, got %v", err)
	}
}

func TestCompanyInsightRejectsInvalidJSON(t *testing.T) {
	generator := &fakeGenerator{response: &llm.ContentResponse{Text: "BHP is a strong company."}}
	service := newTestService(generator)

	if _, err := service.CompanyInsight(context.Background(), "ASX:BHP"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestCompanyInsightRejectsEmptyAnalysis(t *testing.T) {
	generator := &fakeGenerator{response: &llm.ContentResponse{Text: `{"strengths":[]}`}}
	service := newTestService(generator)

	if _, err := service.CompanyInsight(context.Background(), "ASX:BHP"); err == nil {
		t.Error("expected error for empty analysis")
	}
}
