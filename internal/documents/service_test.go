package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	localstore "clarify-backend/internal/shared/storage/object/local"
)

type fakeStarter struct {
	analysisID string
	err        error
	language   string
}

func (f *fakeStarter) CreateForUpload(ctx context.Context, userID, language string) (string, error) {
	f.language = language
	if f.err != nil {
		return "", f.err
	}
	return f.analysisID, nil
}

func newTestService(t *testing.T, starter *fakeStarter) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := &Service{
		Store:    localstore.New(t.TempDir()),
		Repo:     repo,
		Analyses: starter,
		MaxFiles: 3,
		MaxBytes: 1 << 20,
	}
	return svc, repo
}

func TestStageCreatesAnalysisAndDocuments(t *testing.T) {
	starter := &fakeStarter{analysisID: "analysis-1"}
	svc, repo := newTestService(t, starter)

	result, err := svc.Stage(context.Background(), "guest:u1", "Hindi", []Upload{
		{Name: "lease.pdf", Data: testPDF(t, 2)},
		{Name: "addendum.pdf", Data: testPDF(t, 1)},
	})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if result.AnalysisID != "analysis-1" {
		t.Fatalf("expected analysis-1, got %q", result.AnalysisID)
	}
	if starter.language != "Hindi" {
		t.Fatalf("language not forwarded, got %q", starter.language)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 staged files, got %d", len(result.Files))
	}
	if result.Files[0].PageCount != 2 || result.Files[1].PageCount != 1 {
		t.Fatalf("unexpected page counts %+v", result.Files)
	}

	docs, err := repo.ListByAnalysis(context.Background(), "analysis-1")
	if err != nil {
		t.Fatalf("ListByAnalysis: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents persisted, got %d", len(docs))
	}
	for _, doc := range docs {
		if doc.StorageKey == "" {
			t.Fatalf("document %s missing storage key", doc.FileName)
		}
		if doc.UserID != "guest:u1" {
			t.Fatalf("document %s has user %q", doc.FileName, doc.UserID)
		}
	}
}

func TestStageRejectsEmptyBatch(t *testing.T) {
	svc, _ := newTestService(t, &fakeStarter{analysisID: "a"})
	if _, err := svc.Stage(context.Background(), "guest:u1", "", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStageRejectsTooManyFiles(t *testing.T) {
	svc, _ := newTestService(t, &fakeStarter{analysisID: "a"})
	uploads := make([]Upload, 4)
	for i := range uploads {
		uploads[i] = Upload{Name: fmt.Sprintf("f%d.pdf", i), Data: testPDF(t, 1)}
	}
	if _, err := svc.Stage(context.Background(), "guest:u1", "", uploads); !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
}

func TestStageRejectsNonPDF(t *testing.T) {
	svc, repo := newTestService(t, &fakeStarter{analysisID: "a"})
	_, err := svc.Stage(context.Background(), "guest:u1", "", []Upload{
		{Name: "good.pdf", Data: testPDF(t, 1)},
		{Name: "notes.txt", Data: []byte("plain text file")},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// Rejection happens before any row is written.
	docs, listErr := repo.ListByAnalysis(context.Background(), "a")
	if listErr != nil {
		t.Fatalf("ListByAnalysis: %v", listErr)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents staged, got %d", len(docs))
	}
}

func TestStageRejectsOversizeFile(t *testing.T) {
	svc, _ := newTestService(t, &fakeStarter{analysisID: "a"})
	svc.MaxBytes = 16
	if _, err := svc.Stage(context.Background(), "guest:u1", "", []Upload{
		{Name: "big.pdf", Data: testPDF(t, 1)},
	}); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

// testPDF builds a structurally valid PDF with the given page count.
func testPDF(t *testing.T, pages int) []byte {
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
