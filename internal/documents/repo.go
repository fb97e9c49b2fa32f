package documents

import "context"

// Repo defines persistence operations for staged documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	ListByAnalysis(ctx context.Context, analysisID string) ([]Document, error)
	UpdateFileRef(ctx context.Context, documentID, fileRef string) error
	DeleteByAnalysis(ctx context.Context, analysisID string) error
}
