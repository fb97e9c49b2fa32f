package documents

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document row.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    analysis_id,
    user_id,
    file_name,
    size_bytes,
    page_count,
    mime_type,
    storage_key,
    file_ref,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	var fileRef sql.NullString
	if doc.FileRef != "" {
		fileRef = sql.NullString{String: doc.FileRef, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.AnalysisID,
		doc.UserID,
		doc.FileName,
		doc.SizeBytes,
		doc.PageCount,
		mimeType,
		doc.StorageKey,
		fileRef,
		doc.CreatedAt,
	)
	return err
}

// ListByAnalysis returns all documents staged for an analysis in upload order.
func (r *PGRepo) ListByAnalysis(ctx context.Context, analysisID string) ([]Document, error) {
	const query = `
SELECT id, analysis_id, user_id, file_name, size_bytes, page_count, mime_type, storage_key, file_ref, created_at
FROM documents
WHERE analysis_id = $1
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var fileRef sql.NullString
		if err := rows.Scan(
			&doc.ID,
			&doc.AnalysisID,
			&doc.UserID,
			&doc.FileName,
			&doc.SizeBytes,
			&doc.PageCount,
			&doc.MimeType,
			&doc.StorageKey,
			&fileRef,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		if fileRef.Valid {
			doc.FileRef = fileRef.String
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateFileRef stores the provider file reference for a document.
func (r *PGRepo) UpdateFileRef(ctx context.Context, documentID, fileRef string) error {
	const query = `UPDATE documents SET file_ref = $2 WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, query, documentID, fileRef)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByAnalysis removes all document rows for an analysis.
func (r *PGRepo) DeleteByAnalysis(ctx context.Context, analysisID string) error {
	const query = `DELETE FROM documents WHERE analysis_id = $1`
	_, err := r.DB.ExecContext(ctx, query, analysisID)
	return err
}

var _ Repo = (*PGRepo)(nil)
