package analyses

import "time"

// Analysis is one document-clarification run. It carries the workflow
// position alongside the accumulated outputs of each phase.
type Analysis struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	CurrentStep      string     `json:"currentStep"`
	Language         string     `json:"language"`
	DocumentNames    []string   `json:"documentNames"`
	FileRefs         []string   `json:"-"`
	Domain           string     `json:"domain,omitempty"`
	DomainConfidence float64    `json:"domainConfidence,omitempty"`
	Intent           string     `json:"intent,omitempty"`
	Result           *Result    `json:"result,omitempty"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// HistoryEntry is the trimmed listing shape for a user's past analyses.
type HistoryEntry struct {
	ID            string    `json:"id"`
	DocumentNames []string  `json:"documentNames"`
	Domain        string    `json:"domain,omitempty"`
	SmartScore    *int      `json:"smartScore,omitempty"`
	CurrentStep   string    `json:"currentStep"`
	CreatedAt     time.Time `json:"createdAt"`
}
