// Package llm abstracts the model provider used for document
// classification and analysis.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
)

// ErrNotConfigured is returned by the placeholder implementations when no
// provider has been wired.
var ErrNotConfigured = errors.New("llm provider not configured")

// FileInput is one document payload to upload to the provider.
type FileInput struct {
	Name string
	Body io.Reader
}

// FileMeta describes one successfully uploaded file.
type FileMeta struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Ref  string `json:"ref"`
}

// UploadResult aggregates per-file outcomes of a batch upload. Refs holds
// the provider file references for the files that made it; Errors holds a
// message per file that did not.
type UploadResult struct {
	Refs   []string
	Files  []FileMeta
	Errors []string
}

// FileService uploads documents to the provider so later calls can
// reference them without resending the payload.
type FileService interface {
	Upload(ctx context.Context, files []FileInput) (UploadResult, error)
	Delete(ctx context.Context, ref string) bool
}

// DomainResult is the outcome of document domain classification.
type DomainResult struct {
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classifier determines the domain of previously uploaded documents.
type Classifier interface {
	ClassifyDomain(ctx context.Context, refs []string) (DomainResult, error)
}

// AnalyzeInput carries everything the analysis call needs.
type AnalyzeInput struct {
	Refs     []string
	Domain   string
	Intent   string
	Notes    string
	Language string
}

// Analyzer produces the structured document analysis. The returned payload
// is the provider's JSON, already validated as syntactically well formed.
type Analyzer interface {
	AnalyzeDocuments(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// PlaceholderFileService is a stub used until provider wiring is added.
type PlaceholderFileService struct{}

func (PlaceholderFileService) Upload(ctx context.Context, files []FileInput) (UploadResult, error) {
	_ = ctx
	_ = files
	return UploadResult{}, ErrNotConfigured
}

func (PlaceholderFileService) Delete(ctx context.Context, ref string) bool {
	_ = ctx
	_ = ref
	return false
}

// PlaceholderClassifier is a stub used until provider wiring is added.
type PlaceholderClassifier struct{}

func (PlaceholderClassifier) ClassifyDomain(ctx context.Context, refs []string) (DomainResult, error) {
	_ = ctx
	_ = refs
	return DomainResult{}, ErrNotConfigured
}

// PlaceholderAnalyzer is a stub used until provider wiring is added.
type PlaceholderAnalyzer struct{}

func (PlaceholderAnalyzer) AnalyzeDocuments(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}

var (
	_ FileService = PlaceholderFileService{}
	_ Classifier  = PlaceholderClassifier{}
	_ Analyzer    = PlaceholderAnalyzer{}
)
