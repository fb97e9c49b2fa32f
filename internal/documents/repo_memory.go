package documents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo for dev and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Document // analysisId -> documents
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Document),
	}
}

// Create stores a document under its analysis.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.AnalysisID] = append(r.data[doc.AnalysisID], doc)
	return nil
}

// ListByAnalysis returns documents for an analysis in upload order.
func (r *MemoryRepo) ListByAnalysis(ctx context.Context, analysisID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]Document, len(r.data[analysisID]))
	copy(docs, r.data[analysisID])
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// UpdateFileRef stores the provider file reference for a document.
func (r *MemoryRepo) UpdateFileRef(ctx context.Context, documentID, fileRef string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for analysisID, docs := range r.data {
		for i := range docs {
			if docs[i].ID == documentID {
				docs[i].FileRef = fileRef
				r.data[analysisID] = docs
				return nil
			}
		}
	}
	return ErrNotFound
}

// DeleteByAnalysis removes all documents for an analysis.
func (r *MemoryRepo) DeleteByAnalysis(ctx context.Context, analysisID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, analysisID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
