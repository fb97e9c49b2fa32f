package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clarify-backend/internal/documents"
	"clarify-backend/internal/llm"
	"clarify-backend/internal/queue"
	"clarify-backend/internal/shared/metrics"
	"clarify-backend/internal/shared/storage/object"
	"clarify-backend/internal/shared/telemetry"
	"clarify-backend/internal/taxonomy"
)

// DocRepo is the slice of the documents repository the workflow needs.
// Satisfied by documents.PGRepo and documents.MemoryRepo.
type DocRepo interface {
	ListByAnalysis(ctx context.Context, analysisID string) ([]documents.Document, error)
	UpdateFileRef(ctx context.Context, documentID, fileRef string) error
	DeleteByAnalysis(ctx context.Context, analysisID string) error
}

// Service contains the business logic of the clarification workflow.
type Service struct {
	Repo       Repo
	DocRepo    DocRepo
	Store      object.ObjectStore
	Files      llm.FileService
	Classifier llm.Classifier
	Analyzer   llm.Analyzer

	// Queue, when set, offloads workflow phases to a worker process.
	// When nil, phases run in-process goroutines.
	Queue queue.Client

	DefaultLanguage string
}

// DomainDetectionResult is the response for the intents endpoint. For an
// unsupported domain Intents is empty and AllowedDomains lists what the
// classifier can recognize.
type DomainDetectionResult struct {
	Domain            string            `json:"domain"`
	DomainDescription string            `json:"domain_description"`
	DomainConfidence  float64           `json:"domain_confidence"`
	IsSupported       bool              `json:"is_supported"`
	Intents           []taxonomy.Intent `json:"intents"`
	AllowedDomains    []string          `json:"allowed_domains,omitempty"`
}

// StatusInfo is the polled workflow position.
type StatusInfo struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	CurrentStep  string `json:"currentStep"`
	Progress     int    `json:"progress"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// CreateForUpload creates a fresh analysis in the uploading step. Called
// by the upload flow before any document rows are written.
func (s *Service) CreateForUpload(ctx context.Context, userID, language string) (string, error) {
	if userID == "" {
		return "", errors.New("userID is required")
	}
	if language = strings.TrimSpace(language); language == "" {
		language = s.DefaultLanguage
	}
	if language == "" {
		language = "English"
	}
	now := time.Now().UTC()
	analysis := Analysis{
		ID:            uuid.NewString(),
		UserID:        userID,
		CurrentStep:   StepUploading,
		Language:      language,
		DocumentNames: []string{},
		FileRefs:      []string{},
		StartedAt:     &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		return "", err
	}
	return analysis.ID, nil
}

// Start kicks off the first workflow phase for a staged analysis: upload
// the documents to the model provider and detect the domain. A non-empty
// language overrides the one chosen at upload time.
func (s *Service) Start(ctx context.Context, userID, analysisID, language string) error {
	analysis, err := s.getOwned(ctx, userID, analysisID)
	if err != nil {
		return err
	}
	if analysis.CurrentStep != StepUploading {
		return fmt.Errorf("%w: step %s", ErrInvalidState, analysis.CurrentStep)
	}
	if language = strings.TrimSpace(language); language != "" && language != analysis.Language {
		if err := s.Repo.UpdateLanguage(ctx, analysisID, language); err != nil {
			return err
		}
		analysis.Language = language
	}
	metrics.IncWorkflowStarted()
	s.dispatch(ctx, queue.Message{
		AnalysisID: analysisID,
		Phase:      queue.PhaseStart,
		Language:   analysis.Language,
	})
	return nil
}

// SubmitIntent records the user's selected intent and kicks off the
// analysis phase. The "other" intent carries the user's own wording.
// Submitting again after completion re-runs the analysis with the new
// intent against the already uploaded files.
func (s *Service) SubmitIntent(ctx context.Context, userID, analysisID, intentID, customIntent, notes string) error {
	analysis, err := s.getOwned(ctx, userID, analysisID)
	if err != nil {
		return err
	}
	switch analysis.CurrentStep {
	case StepWaitingForIntent, StepAnalysis, StepComplete:
	default:
		return fmt.Errorf("%w: step %s", ErrInvalidState, analysis.CurrentStep)
	}
	if len(analysis.FileRefs) == 0 {
		return fmt.Errorf("%w: no uploaded files", ErrInvalidState)
	}

	intentID = strings.TrimSpace(intentID)
	customIntent = strings.TrimSpace(customIntent)
	if intentID == "" {
		return fmt.Errorf("%w: intent_id is required", ErrInvalidState)
	}
	if intentID == taxonomy.IntentOther && customIntent == "" {
		return ErrIntentRequired
	}
	if intentID != taxonomy.IntentOther && taxonomy.IsSupported(analysis.Domain) && !taxonomy.ValidIntent(analysis.Domain, intentID) {
		return fmt.Errorf("%w: unknown intent %q for domain %s", ErrInvalidState, intentID, analysis.Domain)
	}

	intent := intentID
	if intentID == taxonomy.IntentOther {
		intent = customIntent
	}

	if err := s.Repo.UpdateIntent(ctx, analysisID, intent, StepAnalysis); err != nil {
		return err
	}
	telemetry.Info("workflow.status", map[string]any{
		"request_id":      requestIDFromContext(ctx),
		"user_id":         userID,
		"analysis_id":     analysisID,
		"step_transition": analysis.CurrentStep + "->" + StepAnalysis,
		"intent":          intent,
	})
	s.dispatch(ctx, queue.Message{
		AnalysisID: analysisID,
		Phase:      queue.PhaseContinue,
		Notes:      notes,
		Language:   analysis.Language,
	})
	return nil
}

// Status reports the workflow position for polling clients.
func (s *Service) Status(ctx context.Context, userID, analysisID string) (StatusInfo, error) {
	analysis, err := s.getOwned(ctx, userID, analysisID)
	if err != nil {
		return StatusInfo{}, err
	}
	return StatusInfo{
		ID:           analysis.ID,
		Status:       StatusFor(analysis.CurrentStep),
		CurrentStep:  analysis.CurrentStep,
		Progress:     ProgressFor(analysis.CurrentStep),
		ErrorMessage: analysis.ErrorMessage,
	}, nil
}

// Intents returns the detected domain and its intent options once
// classification has run.
func (s *Service) Intents(ctx context.Context, userID, analysisID string) (DomainDetectionResult, error) {
	analysis, err := s.getOwned(ctx, userID, analysisID)
	if err != nil {
		return DomainDetectionResult{}, err
	}
	if analysis.Domain == "" {
		return DomainDetectionResult{}, ErrNotReady
	}
	result := DomainDetectionResult{
		Domain:           analysis.Domain,
		DomainConfidence: analysis.DomainConfidence,
		IsSupported:      taxonomy.IsSupported(analysis.Domain),
		Intents:          []taxonomy.Intent{},
	}
	if info, ok := taxonomy.Lookup(analysis.Domain); ok {
		result.DomainDescription = info.Description
		result.Intents = info.Intents
	} else {
		result.DomainDescription = "Unsupported Document Type"
		result.AllowedDomains = taxonomy.AllowedDomains()
	}
	return result, nil
}

// Get returns the analysis for the results endpoint.
func (s *Service) Get(ctx context.Context, userID, analysisID string) (Analysis, error) {
	return s.getOwned(ctx, userID, analysisID)
}

// Finding returns one red flag from a completed analysis by its ID.
func (s *Service) Finding(ctx context.Context, userID, analysisID, findingID string) (RedFlag, error) {
	analysis, err := s.getOwned(ctx, userID, analysisID)
	if err != nil {
		return RedFlag{}, err
	}
	if analysis.CurrentStep != StepComplete || analysis.Result == nil {
		return RedFlag{}, ErrNotReady
	}
	for _, flag := range analysis.Result.RedFlags {
		if flag.ID == findingID {
			return flag, nil
		}
	}
	return RedFlag{}, ErrNotFound
}

// List returns a page of the user's analysis history.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Delete removes an analysis and frees its provider files and stored
// objects. Cleanup of remote resources is best effort.
func (s *Service) Delete(ctx context.Context, userID, analysisID string) error {
	analysis, err := s.getOwned(ctx, userID, analysisID)
	if err != nil {
		return err
	}
	if s.Files != nil {
		for _, ref := range analysis.FileRefs {
			if !s.Files.Delete(ctx, ref) {
				telemetry.Warn("workflow.file_delete_failed", map[string]any{
					"analysis_id": analysisID,
					"file_ref":    ref,
				})
			}
		}
	}
	if s.DocRepo != nil {
		docs, err := s.DocRepo.ListByAnalysis(ctx, analysisID)
		if err == nil && s.Store != nil {
			for _, doc := range docs {
				if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
					telemetry.Warn("workflow.object_delete_failed", map[string]any{
						"analysis_id": analysisID,
						"storage_key": doc.StorageKey,
						"error":       err.Error(),
					})
				}
			}
		}
		if err := s.DocRepo.DeleteByAnalysis(ctx, analysisID); err != nil {
			return err
		}
	}
	return s.Repo.Delete(ctx, userID, analysisID)
}

func (s *Service) getOwned(ctx context.Context, userID, analysisID string) (Analysis, error) {
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return Analysis{}, err
	}
	// Ownership failures surface as not found to avoid leaking IDs.
	if analysis.UserID != userID {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

func (s *Service) dispatch(ctx context.Context, msg queue.Message) {
	msg.RequestID = requestIDFromContext(ctx)
	msg.EnqueuedAt = time.Now().UTC().Format(time.RFC3339)
	msg.Version = 1
	if s.Queue != nil {
		err := s.Queue.Send(ctx, msg)
		if err == nil {
			return
		}
		// Fall back to in-process execution when the queue is down.
		telemetry.Error("workflow.enqueue_failed", map[string]any{
			"analysis_id": msg.AnalysisID,
			"phase":       msg.Phase,
			"error":       err.Error(),
		})
	}
	bg := backgroundWithRequestID(ctx)
	go s.runGuarded(bg, msg)
}

func (s *Service) runGuarded(ctx context.Context, msg queue.Message) {
	defer func() {
		if r := recover(); r != nil {
			s.failRun(ctx, msg.AnalysisID, fmt.Errorf("panic: %v", r), nil)
		}
	}()
	switch msg.Phase {
	case queue.PhaseStart:
		s.RunStart(ctx, msg.AnalysisID)
	case queue.PhaseContinue:
		s.RunContinue(ctx, msg.AnalysisID, msg.Notes)
	default:
		s.failRun(ctx, msg.AnalysisID, fmt.Errorf("unknown workflow phase %q", msg.Phase), nil)
	}
}

// RunStart executes the first phase: push staged PDFs to the model
// provider and classify the domain. Classification failures do not stop
// the workflow; the domain is recorded as unsupported and the user still
// reaches intent selection.
func (s *Service) RunStart(ctx context.Context, analysisID string) {
	startedAt := time.Now().UTC()
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		s.failRun(ctx, analysisID, fmt.Errorf("analysis lookup: %w", err), &startedAt)
		return
	}
	if s.DocRepo == nil || s.Store == nil {
		s.failRun(ctx, analysisID, errors.New("missing document store dependencies"), &startedAt)
		return
	}
	if s.Files == nil || s.Classifier == nil {
		s.failRun(ctx, analysisID, errors.New("missing llm client"), &startedAt)
		return
	}

	docs, err := s.DocRepo.ListByAnalysis(ctx, analysisID)
	if err != nil {
		s.failRun(ctx, analysisID, fmt.Errorf("document lookup: %w", err), &startedAt)
		return
	}
	if len(docs) == 0 {
		s.failRun(ctx, analysisID, errors.New("no PDF files staged"), &startedAt)
		return
	}

	inputs := make([]llm.FileInput, 0, len(docs))
	names := make([]string, 0, len(docs))
	closers := make([]func() error, 0, len(docs))
	for _, doc := range docs {
		body, err := s.Store.Open(ctx, doc.StorageKey)
		if err != nil {
			s.failRun(ctx, analysisID, fmt.Errorf("open document %s: %w", doc.FileName, err), &startedAt)
			closeAll(closers)
			return
		}
		closers = append(closers, body.Close)
		inputs = append(inputs, llm.FileInput{Name: doc.FileName, Body: body})
		names = append(names, doc.FileName)
	}
	uploaded, err := s.Files.Upload(ctx, inputs)
	closeAll(closers)
	if err != nil {
		s.failRun(ctx, analysisID, fmt.Errorf("file upload: %w", err), &startedAt)
		return
	}
	if len(uploaded.Refs) == 0 {
		reason := "file upload produced no usable files"
		if len(uploaded.Errors) > 0 {
			reason = strings.Join(uploaded.Errors, "; ")
		}
		s.failRun(ctx, analysisID, errors.New(reason), &startedAt)
		return
	}
	for _, meta := range uploaded.Files {
		for _, doc := range docs {
			if doc.FileName == meta.Name && doc.FileRef == "" {
				if err := s.DocRepo.UpdateFileRef(ctx, doc.ID, meta.Ref); err != nil {
					telemetry.Warn("workflow.file_ref_update_failed", map[string]any{
						"analysis_id": analysisID,
						"document_id": doc.ID,
						"error":       err.Error(),
					})
				}
				break
			}
		}
	}
	if err := s.Repo.UpdateUpload(ctx, analysisID, names, uploaded.Refs, StepDomainDetection); err != nil {
		s.failRun(ctx, analysisID, fmt.Errorf("record upload failed: %w", err), &startedAt)
		return
	}
	telemetry.Info("workflow.status", map[string]any{
		"request_id":      requestIDFromContext(ctx),
		"user_id":         analysis.UserID,
		"analysis_id":     analysisID,
		"step_transition": StepUploading + "->" + StepDomainDetection,
		"file_count":      len(uploaded.Refs),
	})

	domain := taxonomy.DomainUnsupported
	confidence := 0.0
	detected, err := s.Classifier.ClassifyDomain(ctx, uploaded.Refs)
	if err != nil {
		// Detection failure is not fatal. The user can still describe
		// their situation through the "other" intent.
		telemetry.Warn("workflow.domain_detection_failed", map[string]any{
			"analysis_id": analysisID,
			"error":       sanitizeError(err),
		})
	} else {
		domain = taxonomy.Normalize(detected.Domain)
		confidence = detected.Confidence
	}
	if err := s.Repo.UpdateDomain(ctx, analysisID, domain, confidence, StepWaitingForIntent); err != nil {
		s.failRun(ctx, analysisID, fmt.Errorf("record domain failed: %w", err), &startedAt)
		return
	}
	telemetry.Info("workflow.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           analysis.UserID,
		"analysis_id":       analysisID,
		"step_transition":   StepDomainDetection + "->" + StepWaitingForIntent,
		"domain":            domain,
		"domain_confidence": confidence,
	})
}

// RunContinue executes the second phase: structured analysis with the
// stored intent. An analyzer failure stores a degraded result instead of
// failing so the user always gets a response.
func (s *Service) RunContinue(ctx context.Context, analysisID, notes string) {
	startedAt := time.Now().UTC()
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		s.failRun(ctx, analysisID, fmt.Errorf("analysis lookup: %w", err), &startedAt)
		return
	}
	if len(analysis.FileRefs) == 0 {
		s.failRun(ctx, analysisID, errors.New("no uploaded files to analyze"), &startedAt)
		return
	}
	if analysis.Intent == "" {
		s.failRun(ctx, analysisID, errors.New("no intent selected for analysis phase"), &startedAt)
		return
	}
	if s.Analyzer == nil {
		s.failRun(ctx, analysisID, errors.New("missing llm client"), &startedAt)
		return
	}

	var result *Result
	degraded := false
	raw, err := s.Analyzer.AnalyzeDocuments(ctx, llm.AnalyzeInput{
		Refs:     analysis.FileRefs,
		Domain:   analysis.Domain,
		Intent:   analysis.Intent,
		Notes:    notes,
		Language: analysis.Language,
	})
	if err == nil {
		result, err = ParseResult(raw)
	}
	if err != nil {
		degraded = true
		result = DegradedResult(sanitizeError(err))
		metrics.IncWorkflowDegraded()
		telemetry.Warn("workflow.analysis_degraded", map[string]any{
			"analysis_id": analysisID,
			"error":       sanitizeError(err),
		})
	}

	if err := s.Repo.UpdateStep(ctx, analysisID, StepPersist); err != nil {
		s.failRun(ctx, analysisID, fmt.Errorf("record persist step failed: %w", err), &startedAt)
		return
	}
	if err := s.Repo.UpdateResult(ctx, analysisID, result, StepComplete); err != nil {
		s.failRun(ctx, analysisID, fmt.Errorf("record result failed: %w", err), &startedAt)
		return
	}
	completedAt := time.Now().UTC()
	metrics.IncWorkflowCompleted()
	metrics.ObserveWorkflowDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("workflow.status", map[string]any{
		"request_id":      requestIDFromContext(ctx),
		"user_id":         analysis.UserID,
		"analysis_id":     analysisID,
		"step_transition": StepAnalysis + "->" + StepComplete,
		"degraded":        degraded,
		"smart_score":     result.SmartScore,
		"duration_ms":     durationMs(&startedAt, &completedAt),
	})
}

func (s *Service) failRun(ctx context.Context, analysisID string, err error, startedAt *time.Time) {
	code, _ := classifyFailure(err)
	msg := sanitizeError(err)
	if updateErr := s.Repo.MarkError(context.Background(), analysisID, msg); updateErr != nil {
		fmt.Printf("failRun: update failed id=%s err=%v orig=%v\n", analysisID, updateErr, err)
	}
	metrics.IncWorkflowFailed()
	completedAt := time.Now().UTC()
	if startedAt != nil {
		metrics.ObserveWorkflowDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Error("workflow.status", map[string]any{
		"request_id":      requestIDFromContext(ctx),
		"analysis_id":     analysisID,
		"step_transition": "->" + StepError,
		"error_code":      code,
		"error":           msg,
		"duration_ms":     durationMs(startedAt, &completedAt),
	})
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "openai request timeout") {
		return ErrorCodeLLMTimeout, true
	}
	if strings.Contains(msg, "invalid json") || strings.Contains(msg, "payload decode") || strings.Contains(msg, "schema") {
		return ErrorCodeLLMSchemaMismatch, false
	}
	if strings.Contains(msg, "intent") || strings.Contains(msg, "validation") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "document") || strings.Contains(msg, "storage") || strings.Contains(msg, "record ") || strings.Contains(msg, "upload") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func closeAll(closers []func() error) {
	for _, close := range closers {
		_ = close()
	}
}
