package analyses

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for local development and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Analysis
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Analysis)}
}

func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[analysis.ID] = cloneAnalysis(analysis)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return cloneAnalysis(a), nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []Analysis
	for _, a := range r.items {
		if a.UserID == userID {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []HistoryEntry{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	entries := make([]HistoryEntry, 0, len(all))
	for _, a := range all {
		e := HistoryEntry{
			ID:            a.ID,
			DocumentNames: append([]string{}, a.DocumentNames...),
			Domain:        a.Domain,
			CurrentStep:   a.CurrentStep,
			CreatedAt:     a.CreatedAt,
		}
		if a.Result != nil {
			score := a.Result.SmartScore
			e.SmartScore = &score
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, analysisID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[analysisID]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	delete(r.items, analysisID)
	return nil
}

func (r *MemoryRepo) UpdateStep(ctx context.Context, analysisID, step string) error {
	return r.update(analysisID, func(a *Analysis) {
		a.CurrentStep = step
	})
}

func (r *MemoryRepo) UpdateLanguage(ctx context.Context, analysisID, language string) error {
	return r.update(analysisID, func(a *Analysis) {
		a.Language = language
	})
}

func (r *MemoryRepo) MarkError(ctx context.Context, analysisID, message string) error {
	return r.update(analysisID, func(a *Analysis) {
		now := time.Now().UTC()
		a.CurrentStep = StepError
		a.ErrorMessage = message
		a.CompletedAt = &now
	})
}

func (r *MemoryRepo) UpdateUpload(ctx context.Context, analysisID string, documentNames, fileRefs []string, step string) error {
	return r.update(analysisID, func(a *Analysis) {
		a.DocumentNames = append([]string{}, documentNames...)
		a.FileRefs = append([]string{}, fileRefs...)
		a.CurrentStep = step
	})
}

func (r *MemoryRepo) UpdateDomain(ctx context.Context, analysisID, domain string, confidence float64, step string) error {
	return r.update(analysisID, func(a *Analysis) {
		a.Domain = domain
		a.DomainConfidence = confidence
		a.CurrentStep = step
	})
}

func (r *MemoryRepo) UpdateIntent(ctx context.Context, analysisID, intent, step string) error {
	return r.update(analysisID, func(a *Analysis) {
		a.Intent = intent
		a.CurrentStep = step
	})
}

func (r *MemoryRepo) UpdateResult(ctx context.Context, analysisID string, result *Result, step string) error {
	return r.update(analysisID, func(a *Analysis) {
		if result != nil {
			copied := *result
			a.Result = &copied
		}
		now := time.Now().UTC()
		a.CompletedAt = &now
		a.CurrentStep = step
	})
}

func (r *MemoryRepo) update(analysisID string, apply func(*Analysis)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[analysisID]
	if !ok {
		return ErrNotFound
	}
	apply(&a)
	a.UpdatedAt = time.Now().UTC()
	r.items[analysisID] = a
	return nil
}

func cloneAnalysis(a Analysis) Analysis {
	out := a
	out.DocumentNames = append([]string{}, a.DocumentNames...)
	out.FileRefs = append([]string{}, a.FileRefs...)
	if a.Result != nil {
		copied := *a.Result
		out.Result = &copied
	}
	return out
}
