package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/marketpulse/internal/models"
)

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name        string     `json:"name"`
	Enabled     bool       `json:"enabled"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	IsRunning   bool       `json:"is_running"`
	LastError   string     `json:"last_error,omitempty"`
}

// SchedulerService manages cron-based scheduling of the refresh cadences.
type SchedulerService interface {
	// RegisterJob registers a job with a six-field cron schedule
	RegisterJob(name, schedule, description string, handler func(ctx context.Context) error) error

	// Start begins executing registered jobs on their schedules
	Start() error

	// Stop halts scheduling, letting in-flight jobs finish
	Stop() error

	// TriggerJob runs a registered job immediately
	TriggerJob(ctx context.Context, name string) error

	// GetJobStatus returns the status of a specific job
	GetJobStatus(name string) (*JobStatus, error)

	// GetAllJobStatuses returns all job statuses
	GetAllJobStatuses() map[string]*JobStatus
}

// RefreshService runs market data refresh cycles.
type RefreshService interface {
	// FullRefresh fetches quotes and fundamentals for the whole universe,
	// merges them against the reference dataset and upserts the results.
	FullRefresh(ctx context.Context) (*RefreshStats, error)

	// PriceRefresh updates only price, change and volume via bulk quotes.
	PriceRefresh(ctx context.Context) (*RefreshStats, error)
}

// RefreshStats summarizes one refresh cycle.
type RefreshStats struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Degraded  int           `json:"degraded"` // Reference-only records after fetch failure
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// PulseService generates and serves the cached market summary.
type PulseService interface {
	// Generate runs one proactive generation pass.
	Generate(ctx context.Context) error

	// GetOrGenerate returns the cached pulse, generating one synchronously
	// when none exists.
	GetOrGenerate(ctx context.Context) (*models.PulseDocument, error)
}

// InsightService generates per-company analysis on demand.
type InsightService interface {
	// CompanyInsight returns a SWOT analysis for a stored company.
	// Returns ErrNotFound when the ticker is not in the store.
	CompanyInsight(ctx context.Context, ticker string) (*models.CompanyInsight, error)
}

// NewsService refreshes and serves stored headlines.
type NewsService interface {
	// Refresh pulls recent provider news for the universe into the store.
	Refresh(ctx context.Context) (int, error)

	// MostRecent returns up to n stored headlines, newest first.
	MostRecent(ctx context.Context, n int) ([]models.Headline, error)
}
