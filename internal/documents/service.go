package documents

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clarify-backend/internal/pdfinfo"
	"clarify-backend/internal/shared/storage/object"
	"clarify-backend/internal/shared/telemetry"
)

// AnalysisStarter creates the analysis row that staged documents attach to.
// Satisfied by the analyses service.
type AnalysisStarter interface {
	CreateForUpload(ctx context.Context, userID, language string) (string, error)
}

// Upload is one incoming file payload.
type Upload struct {
	Name string
	Data []byte
}

// StagedFile summarizes one successfully staged document.
type StagedFile struct {
	DocumentID string `json:"documentId"`
	FileName   string `json:"fileName"`
	SizeBytes  int64  `json:"sizeBytes"`
	PageCount  int    `json:"pageCount"`
}

// StageResult is the outcome of staging an upload batch. Status is always
// "pending": the workflow does not run until the client calls start.
type StageResult struct {
	AnalysisID string       `json:"analysisId"`
	Status     string       `json:"status"`
	FileCount  int          `json:"fileCount"`
	Files      []StagedFile `json:"files"`
}

// Service contains business logic for staging uploaded documents.
type Service struct {
	Store    object.ObjectStore
	Repo     Repo
	Analyses AnalysisStarter
	MaxFiles int
	MaxBytes int64
}

// Stage validates the batch, writes each PDF to object storage, creates the
// owning analysis row, and records one document row per file. The batch is
// all-or-nothing: one bad file rejects the whole upload.
func (s *Service) Stage(ctx context.Context, userID, language string, uploads []Upload) (StageResult, error) {
	if len(uploads) == 0 {
		return StageResult{}, fmt.Errorf("%w: at least one file is required", ErrInvalidInput)
	}
	maxFiles := s.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 5
	}
	if len(uploads) > maxFiles {
		return StageResult{}, fmt.Errorf("%w: at most %d files per analysis", ErrTooManyFiles, maxFiles)
	}

	infos := make([]pdfinfo.Info, len(uploads))
	for i, up := range uploads {
		if up.Name == "" {
			return StageResult{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
		}
		if s.MaxBytes > 0 && int64(len(up.Data)) > s.MaxBytes {
			return StageResult{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, up.Name, s.MaxBytes)
		}
		info, err := pdfinfo.Inspect(up.Data)
		if err != nil {
			return StageResult{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, up.Name, err)
		}
		infos[i] = info
	}

	analysisID, err := s.Analyses.CreateForUpload(ctx, userID, language)
	if err != nil {
		return StageResult{}, err
	}

	result := StageResult{AnalysisID: analysisID, Status: "pending"}
	for i, up := range uploads {
		storageKey, size, mimeType, err := s.Store.Save(ctx, userID, up.Name, bytes.NewReader(up.Data))
		if err != nil {
			return StageResult{}, err
		}

		doc := Document{
			ID:         uuid.NewString(),
			AnalysisID: analysisID,
			UserID:     userID,
			FileName:   up.Name,
			SizeBytes:  size,
			PageCount:  infos[i].PageCount,
			MimeType:   mimeType,
			StorageKey: storageKey,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.Repo.Create(ctx, doc); err != nil {
			return StageResult{}, err
		}

		result.Files = append(result.Files, StagedFile{
			DocumentID: doc.ID,
			FileName:   doc.FileName,
			SizeBytes:  doc.SizeBytes,
			PageCount:  doc.PageCount,
		})
	}

	result.FileCount = len(result.Files)
	telemetry.Info("documents.staged", map[string]any{
		"analysis_id": analysisID,
		"user_id":     userID,
		"files":       len(result.Files),
	})
	return result, nil
}
