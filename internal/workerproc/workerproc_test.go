package workerproc

import (
	"errors"
	"testing"

	"clarify-backend/internal/queue"
)

func TestParseMessage(t *testing.T) {
	msg, meta, err := ParseMessage(`{"analysisId": "a-1", "phase": "start", "requestId": "r-1"}`)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.AnalysisID != "a-1" || msg.Phase != queue.PhaseStart {
		t.Fatalf("msg = %+v", msg)
	}
	if meta.BodyLen == 0 || meta.BodySHA == "" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestParseMessageRejectsEmptyBody(t *testing.T) {
	_, _, err := ParseMessage("   ")
	var empty ErrEmptyBody
	if !errors.As(err, &empty) {
		t.Fatalf("err = %v, want ErrEmptyBody", err)
	}
}

func TestParseMessageRejectsBadJSON(t *testing.T) {
	_, meta, err := ParseMessage("{not json")
	var decode ErrDecode
	if !errors.As(err, &decode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if meta.BodyLen != len("{not json") {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestParseMessageRequiresAnalysisID(t *testing.T) {
	_, _, err := ParseMessage(`{"phase": "start", "requestId": "r-9"}`)
	var missing ErrMissingAnalysisID
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want ErrMissingAnalysisID", err)
	}
	if missing.RequestID != "r-9" {
		t.Fatalf("request id = %q", missing.RequestID)
	}
}

func TestParseMessageRejectsUnknownPhase(t *testing.T) {
	_, _, err := ParseMessage(`{"analysisId": "a-1", "phase": "rewind"}`)
	var unknown ErrUnknownPhase
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want ErrUnknownPhase", err)
	}
	if unknown.Phase != "rewind" {
		t.Fatalf("phase = %q", unknown.Phase)
	}
}
