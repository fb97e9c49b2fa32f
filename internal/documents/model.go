package documents

import "time"

// Document represents one staged PDF belonging to an analysis.
type Document struct {
	ID         string
	AnalysisID string
	UserID     string
	FileName   string
	SizeBytes  int64
	PageCount  int
	MimeType   string
	StorageKey string
	FileRef    string
	CreatedAt  time.Time
}
