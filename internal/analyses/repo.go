package analyses

import "context"

// Repo abstracts persistence for analyses so handlers and the worker
// can run against Postgres or the in-memory dev store.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]HistoryEntry, error)
	Delete(ctx context.Context, userID, analysisID string) error

	UpdateStep(ctx context.Context, analysisID, step string) error
	UpdateLanguage(ctx context.Context, analysisID, language string) error
	MarkError(ctx context.Context, analysisID, message string) error
	UpdateUpload(ctx context.Context, analysisID string, documentNames, fileRefs []string, step string) error
	UpdateDomain(ctx context.Context, analysisID, domain string, confidence float64, step string) error
	UpdateIntent(ctx context.Context, analysisID, intent, step string) error
	UpdateResult(ctx context.Context, analysisID string, result *Result, step string) error
}
