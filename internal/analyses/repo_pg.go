package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new analysis row at its starting step.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, user_id, current_step, language, document_names, file_refs, started_at, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	names, err := marshalJSONB(stringSliceOrEmpty(analysis.DocumentNames))
	if err != nil {
		return err
	}
	refs, err := marshalJSONB(stringSliceOrEmpty(analysis.FileRefs))
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.UserID,
		analysis.CurrentStep,
		analysis.Language,
		names,
		refs,
		analysis.StartedAt,
		analysis.CreatedAt,
		analysis.UpdatedAt,
	)
	return err
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	const query = `
SELECT id, user_id, current_step, language, document_names, file_refs,
       domain, domain_confidence, intent, result, error_message,
       started_at, completed_at, created_at, updated_at
FROM analyses
WHERE id = $1
LIMIT 1`
	var a Analysis
	var names, refs []byte
	var domain sql.NullString
	var confidence sql.NullFloat64
	var intent sql.NullString
	var result []byte
	var errorMessage sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, analysisID).Scan(
		&a.ID,
		&a.UserID,
		&a.CurrentStep,
		&a.Language,
		&names,
		&refs,
		&domain,
		&confidence,
		&intent,
		&result,
		&errorMessage,
		&startedAt,
		&completedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	if err != nil {
		return Analysis{}, err
	}
	if err := unmarshalJSONB(names, &a.DocumentNames); err != nil {
		return Analysis{}, fmt.Errorf("document_names decode: %w", err)
	}
	if err := unmarshalJSONB(refs, &a.FileRefs); err != nil {
		return Analysis{}, fmt.Errorf("file_refs decode: %w", err)
	}
	if len(result) > 0 {
		var parsed Result
		if err := json.Unmarshal(result, &parsed); err != nil {
			return Analysis{}, fmt.Errorf("result decode: %w", err)
		}
		a.Result = &parsed
	}
	a.Domain = domain.String
	a.DomainConfidence = confidence.Float64
	a.Intent = intent.String
	a.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		t := startedAt.Time
		a.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	return a, nil
}

// ListByUser returns a page of the user's analyses, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]HistoryEntry, error) {
	const query = `
SELECT id, document_names, domain, current_step,
       (result ->> 'smart_score')::int AS smart_score, created_at
FROM analyses
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var e HistoryEntry
		var names []byte
		var domain sql.NullString
		var score sql.NullInt64
		if err := rows.Scan(&e.ID, &names, &domain, &e.CurrentStep, &score, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(names, &e.DocumentNames); err != nil {
			return nil, fmt.Errorf("document_names decode: %w", err)
		}
		e.Domain = domain.String
		if score.Valid {
			v := int(score.Int64)
			e.SmartScore = &v
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes an analysis owned by the user. Document rows cascade.
func (r *PGRepo) Delete(ctx context.Context, userID, analysisID string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM analyses WHERE id = $1 AND user_id = $2`, analysisID, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateStep advances the workflow position.
func (r *PGRepo) UpdateStep(ctx context.Context, analysisID, step string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE analyses SET current_step = $2, updated_at = NOW() WHERE id = $1`,
		analysisID, step)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateLanguage overrides the output language chosen at upload time.
func (r *PGRepo) UpdateLanguage(ctx context.Context, analysisID, language string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE analyses SET language = $2, updated_at = NOW() WHERE id = $1`,
		analysisID, language)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkError moves the analysis to the terminal error step.
func (r *PGRepo) MarkError(ctx context.Context, analysisID, message string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE analyses SET current_step = $2, error_message = $3, completed_at = NOW(), updated_at = NOW() WHERE id = $1`,
		analysisID, StepError, message)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateUpload records file names and provider refs after staging.
func (r *PGRepo) UpdateUpload(ctx context.Context, analysisID string, documentNames, fileRefs []string, step string) error {
	names, err := marshalJSONB(stringSliceOrEmpty(documentNames))
	if err != nil {
		return err
	}
	refs, err := marshalJSONB(stringSliceOrEmpty(fileRefs))
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE analyses SET document_names = $2, file_refs = $3, current_step = $4, updated_at = NOW() WHERE id = $1`,
		analysisID, names, refs, step)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateDomain stores the classification outcome.
func (r *PGRepo) UpdateDomain(ctx context.Context, analysisID, domain string, confidence float64, step string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE analyses SET domain = $2, domain_confidence = $3, current_step = $4, updated_at = NOW() WHERE id = $1`,
		analysisID, domain, confidence, step)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateIntent stores the selected intent and advances the step.
func (r *PGRepo) UpdateIntent(ctx context.Context, analysisID, intent, step string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE analyses SET intent = $2, current_step = $3, updated_at = NOW() WHERE id = $1`,
		analysisID, intent, step)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateResult stores the structured result and advances the step.
func (r *PGRepo) UpdateResult(ctx context.Context, analysisID string, result *Result, step string) error {
	payload, err := marshalJSONB(result)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE analyses SET result = $2, current_step = $3, completed_at = NOW(), updated_at = NOW() WHERE id = $1`,
		analysisID, payload, step)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalJSONB(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsonb encode: %w", err)
	}
	return payload, nil
}

func unmarshalJSONB(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func stringSliceOrEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
