// Package pdfinfo validates uploaded PDF payloads before they are staged.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

// ErrNotPDF indicates the payload is not a parseable PDF document.
var ErrNotPDF = errors.New("not a valid PDF document")

// Info holds the metadata gathered from a validated PDF.
type Info struct {
	PageCount int
	SizeBytes int64
}

// Inspect parses the payload and returns its page count. It fails if the
// payload cannot be opened as a PDF or contains no pages.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("%w: empty payload", ErrNotPDF)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return Info{}, fmt.Errorf("%w: missing header", ErrNotPDF)
	}

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	pages := pdfReader.NumPage()
	if pages <= 0 {
		return Info{}, fmt.Errorf("%w: no pages", ErrNotPDF)
	}

	return Info{PageCount: pages, SizeBytes: int64(len(data))}, nil
}

// AcceptableMimeType reports whether a declared content type can be a PDF.
// Browsers occasionally send application/octet-stream for drag-and-drop
// uploads, so the final check is always Inspect on the payload itself.
func AcceptableMimeType(mimeType string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case mimePDF, "application/octet-stream", "":
		return true
	default:
		return false
	}
}
