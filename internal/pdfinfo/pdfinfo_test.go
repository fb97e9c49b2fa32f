package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestInspectValidPDF(t *testing.T) {
	data := minimalPDF(t, 2)

	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.PageCount != 2 {
		t.Fatalf("expected 2 pages, got %d", info.PageCount)
	}
	if info.SizeBytes != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), info.SizeBytes)
	}
}

func TestInspectRejectsEmptyPayload(t *testing.T) {
	if _, err := Inspect(nil); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestInspectRejectsNonPDF(t *testing.T) {
	if _, err := Inspect([]byte("hello world, definitely not a pdf")); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestInspectRejectsTruncatedPDF(t *testing.T) {
	data := minimalPDF(t, 1)
	if _, err := Inspect(data[:len(data)/2]); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestAcceptableMimeType(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{mime: "application/pdf", want: true},
		{mime: "application/pdf; charset=binary", want: true},
		{mime: "APPLICATION/PDF", want: true},
		{mime: "application/octet-stream", want: true},
		{mime: "", want: true},
		{mime: "text/plain", want: false},
		{mime: "image/png", want: false},
	}
	for _, tt := range tests {
		if got := AcceptableMimeType(tt.mime); got != tt.want {
			t.Fatalf("AcceptableMimeType(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}

// minimalPDF builds a small but structurally valid PDF with the given
// number of pages, computing the cross-reference offsets as it goes.
func minimalPDF(t *testing.T, pages int) []byte {
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
