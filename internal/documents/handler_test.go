package documents_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"clarify-backend/internal/bootstrap"
	"clarify-backend/internal/shared/config"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
		DefaultLanguage: "English",
		MaxUploadFiles:  5,
		MaxUploadBytes:  1 << 20,
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func multipartBody(t *testing.T, files map[string][]byte, language string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, data := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, name))
		header.Set("Content-Type", "application/pdf")
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			t.Fatalf("write language: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadEndpointStagesFiles(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartBody(t, map[string][]byte{
		"lease.pdf": uploadTestPDF(t, 2),
	}, "Spanish")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Guest-Id", "guest-abc")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", resp.Code, resp.Body.String())
	}
	var created struct {
		AnalysisID string `json:"analysisId"`
		Status     string `json:"status"`
		FileCount  int    `json:"fileCount"`
		Files      []struct {
			FileName  string `json:"fileName"`
			PageCount int    `json:"pageCount"`
		} `json:"files"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.AnalysisID == "" {
		t.Fatal("analysisId missing")
	}
	if created.Status != "pending" || created.FileCount != 1 {
		t.Fatalf("status=%q fileCount=%d", created.Status, created.FileCount)
	}
	if len(created.Files) != 1 || created.Files[0].FileName != "lease.pdf" {
		t.Fatalf("files = %+v", created.Files)
	}
	if created.Files[0].PageCount != 2 {
		t.Fatalf("page count = %d, want 2", created.Files[0].PageCount)
	}

	analysis, err := app.AnalysesRepo.GetByID(req.Context(), created.AnalysisID)
	if err != nil {
		t.Fatalf("analysis lookup: %v", err)
	}
	if analysis.Language != "Spanish" {
		t.Fatalf("language = %q, want Spanish", analysis.Language)
	}
}

func TestUploadEndpointRejectsNonPDF(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartBody(t, map[string][]byte{
		"notes.pdf": []byte("plain text pretending to be a pdf"),
	}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Guest-Id", "guest-abc")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestUploadEndpointRequiresIdentity(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartBody(t, map[string][]byte{
		"lease.pdf": uploadTestPDF(t, 1),
	}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

// uploadTestPDF builds a structurally valid PDF with the given page count.
func uploadTestPDF(t *testing.T, pages int) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int64

	writeObj := func(body string) {
		offsets = append(offsets, int64(buf.Len()))
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := ""
	for i := 0; i < pages; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", 3+i)
	}

	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, pages))
	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n", 3+i))
	}

	xrefOffset := buf.Len()
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset))

	return buf.Bytes()
}
