package analyses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"clarify-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T, f *workflowFixture) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity())
	api := r.Group("/api/v1")
	NewHandler(f.svc).RegisterRoutes(api)
	return r
}

func doRequest(r *gin.Engine, method, path, userID, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-User-Id", userID)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatusEndpoint(t *testing.T) {
	f := newWorkflowFixture(t)
	r := newTestRouter(t, f)
	id := submitReadyAnalysis(t, f, "user-1")

	w := doRequest(r, http.MethodGet, "/api/v1/analyses/"+id+"/status", "user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var status StatusInfo
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != StatusAwaitingIntent || status.Progress != 55 {
		t.Fatalf("status = %+v", status)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/analyses/"+id+"/status", "user-1", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("immediate repoll status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("429 should carry Retry-After")
	}

	w = doRequest(r, http.MethodGet, "/api/v1/analyses/unknown/status", "user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unknown id status = %d, want 200", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != StatusPending || status.Progress != 0 {
		t.Fatalf("unknown id polls as %+v, want pending", status)
	}
}

func TestStatusHidesForeignAnalyses(t *testing.T) {
	f := newWorkflowFixture(t)
	r := newTestRouter(t, f)
	id := submitReadyAnalysis(t, f, "user-1")

	w := doRequest(r, http.MethodGet, "/api/v1/analyses/"+id+"/status", "someone-else", "")
	if w.Code != http.StatusOK {
		t.Fatalf("foreign poll status = %d, want 200", w.Code)
	}
	var status StatusInfo
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != StatusPending || status.Progress != 0 {
		t.Fatalf("foreign analysis polls as %+v, want pending", status)
	}
}

func TestSelectIntentEndpoint(t *testing.T) {
	f := newWorkflowFixture(t)
	r := newTestRouter(t, f)
	id := submitReadyAnalysis(t, f, "user-1")

	w := doRequest(r, http.MethodPost, "/api/v1/analyses/"+id+"/intent", "user-1",
		`{"intent_id": "other"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("other without custom status = %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Custom intent required") {
		t.Fatalf("body = %s", w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/api/v1/analyses/"+id+"/intent", "user-1",
		`{"intent_id": "tenant", "notes": "moving in June"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("select intent status = %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Success  bool   `json:"success"`
		NextStep string `json:"nextStep"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.NextStep != StepAnalysis {
		t.Fatalf("resp = %+v", resp)
	}

	w = doRequest(r, http.MethodPost, "/api/v1/analyses/"+id+"/intent", "user-1",
		`{"intent_id": "landlord"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("changed intent status = %d, want 200", w.Code)
	}

	staged := f.stage(t, "user-1", "contract.pdf")
	w = doRequest(r, http.MethodPost, "/api/v1/analyses/"+staged+"/intent", "user-1",
		`{"intent_id": "tenant"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("premature intent status = %d, want 409", w.Code)
	}
}

func TestStartEndpointLanguageOverride(t *testing.T) {
	f := newWorkflowFixture(t)
	r := newTestRouter(t, f)
	id := f.stage(t, "user-1", "lease.pdf")

	w := doRequest(r, http.MethodPost, "/api/v1/analyses/"+id+"/start", "user-1",
		`{"language": "French"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("start status = %d body=%s", w.Code, w.Body.String())
	}
	a, _ := f.repo.GetByID(context.Background(), id)
	if a.Language != "French" {
		t.Fatalf("language = %q, want French", a.Language)
	}
}

func TestResultsEndpointShapes(t *testing.T) {
	f := newWorkflowFixture(t)
	r := newTestRouter(t, f)
	id := submitReadyAnalysis(t, f, "user-1")

	w := doRequest(r, http.MethodGet, "/api/v1/analyses/"+id, "user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var partial map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &partial); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if partial["status"] != StatusAwaitingIntent {
		t.Fatalf("incomplete analysis body = %v", partial)
	}
	if _, ok := partial["result"]; ok {
		t.Fatal("incomplete analysis must not expose a result")
	}

	if err := f.svc.SubmitIntent(context.Background(), "user-1", id, "tenant", "", ""); err != nil {
		t.Fatalf("SubmitIntent: %v", err)
	}
	f.svc.RunContinue(context.Background(), id, "")

	w = doRequest(r, http.MethodGet, "/api/v1/analyses/"+id, "user-1", "")
	var full map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &full); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if full["status"] != StatusComplete || full["domain"] != "rental" || full["intent"] != "tenant" {
		t.Fatalf("complete body = %v", full)
	}
	result, ok := full["result"].(map[string]any)
	if !ok {
		t.Fatalf("result missing: %v", full)
	}
	if result["smart_score"].(float64) != 72 {
		t.Fatalf("smart score = %v", result["smart_score"])
	}
}

func TestFindingEndpoint(t *testing.T) {
	f := newWorkflowFixture(t)
	r := newTestRouter(t, f)
	id := submitReadyAnalysis(t, f, "user-1")
	if err := f.svc.SubmitIntent(context.Background(), "user-1", id, "tenant", "", ""); err != nil {
		t.Fatalf("SubmitIntent: %v", err)
	}
	f.svc.RunContinue(context.Background(), id, "")

	w := doRequest(r, http.MethodGet, "/api/v1/analyses/"+id+"/findings/rf-1", "user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var flag RedFlag
	if err := json.Unmarshal(w.Body.Bytes(), &flag); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if flag.ID != "rf-1" || flag.Severity != "medium" {
		t.Fatalf("flag = %+v", flag)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/analyses/"+id+"/findings/rf-404", "user-1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing finding status = %d, want 404", w.Code)
	}
}

func TestIntentsEndpointUnsupportedDomain(t *testing.T) {
	f := newWorkflowFixture(t)
	f.classifier.err = context.DeadlineExceeded
	r := newTestRouter(t, f)
	id := f.stage(t, "user-1", "mystery.pdf")
	f.svc.RunStart(context.Background(), id)

	w := doRequest(r, http.MethodGet, "/api/v1/analyses/"+id+"/intents", "user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var result DomainDetectionResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.IsSupported {
		t.Fatal("failed detection should be unsupported")
	}
	if len(result.AllowedDomains) == 0 {
		t.Fatal("unsupported response should list allowed domains")
	}
}

func TestHistoryRequiresLogin(t *testing.T) {
	f := newWorkflowFixture(t)
	r := newTestRouter(t, f)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.Header.Set("X-Guest-Id", "guest-abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("guest history status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "login_required") {
		t.Fatalf("body = %s", w.Body.String())
	}

	if _, err := f.svc.CreateForUpload(context.Background(), "user-1", ""); err != nil {
		t.Fatalf("CreateForUpload: %v", err)
	}
	resp := doRequest(r, http.MethodGet, "/api/v1/history", "user-1", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("history status = %d", resp.Code)
	}
	var body struct {
		Analyses []HistoryEntry `json:"analyses"`
		HasMore  bool           `json:"hasMore"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Analyses) != 1 || body.HasMore {
		t.Fatalf("history = %+v", body)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	f := newWorkflowFixture(t)
	r := newTestRouter(t, f)
	id := submitReadyAnalysis(t, f, "user-1")

	w := doRequest(r, http.MethodDelete, "/api/v1/analyses/"+id, "someone-else", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign delete status = %d, want 404", w.Code)
	}

	w = doRequest(r, http.MethodDelete, "/api/v1/analyses/"+id, "user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d body=%s", w.Code, w.Body.String())
	}
}
