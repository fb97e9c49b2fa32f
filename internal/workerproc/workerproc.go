package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"clarify-backend/internal/analyses"
	"clarify-backend/internal/bootstrap"
	"clarify-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingAnalysisID indicates a message missing the analysis id.
type ErrMissingAnalysisID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingAnalysisID) Error() string { return "missing analysis id" }

// ErrUnknownPhase indicates a message with a phase the worker cannot run.
type ErrUnknownPhase struct {
	AnalysisID string
	Phase      string
}

func (e ErrUnknownPhase) Error() string { return "unknown workflow phase: " + e.Phase }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.AnalysisID) == "" {
		return msg, meta, ErrMissingAnalysisID{Meta: meta, RequestID: msg.RequestID}
	}
	if msg.Phase != queue.PhaseStart && msg.Phase != queue.PhaseContinue {
		return msg, meta, ErrUnknownPhase{AnalysisID: msg.AnalysisID, Phase: msg.Phase}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and runs the workflow phase a queue
// message names. Phase failures are recorded on the analysis row by the
// service, so a nil return means the message can be deleted.
func HandleMessage(ctx context.Context, app *bootstrap.App, body string) error {
	if app == nil || app.AnalysesService == nil {
		return errors.New("workflow service not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	ctxWithRequest := analyses.WithRequestID(ctx, msg.RequestID)
	switch msg.Phase {
	case queue.PhaseStart:
		app.AnalysesService.RunStart(ctxWithRequest, msg.AnalysisID)
	case queue.PhaseContinue:
		app.AnalysesService.RunContinue(ctxWithRequest, msg.AnalysisID, msg.Notes)
	default:
		return ErrUnknownPhase{AnalysisID: msg.AnalysisID, Phase: msg.Phase}
	}
	return nil
}
