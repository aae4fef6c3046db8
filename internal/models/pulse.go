package models

import (
	"time"
)

const (
	// PulseDocumentID is the well-known key of the singleton pulse document.
	PulseDocumentID = "latest_pulse"

	// PulseTypeGenerated marks a pulse produced by an LLM completion.
	PulseTypeGenerated = "generated"
	// PulseTypePlaceholder marks the generic pulse inserted when no summary
	// has ever been generated and the provider quota is exhausted.
	PulseTypePlaceholder = "placeholder"
)

// PulseDocument is the cached market summary. Exactly one lives in the store
// under PulseDocumentID; every successful generation overwrites it.
type PulseDocument struct {
	ID          string    `json:"id" badgerhold:"unique"`
	Summary     string    `json:"summary"`
	Type        string    `json:"type"` // "generated" or "placeholder"
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
