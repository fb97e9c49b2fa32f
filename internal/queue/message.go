package queue

import "encoding/json"

// Workflow phases carried by queue messages.
const (
	PhaseStart    = "start"
	PhaseContinue = "continue"
)

// Message is the payload sent to downstream queue consumers. PhaseStart
// runs upload and domain detection; PhaseContinue runs the analysis
// after the user picked an intent.
type Message struct {
	AnalysisID string `json:"analysisId"`
	Phase      string `json:"phase"`
	Notes      string `json:"notes,omitempty"`
	Language   string `json:"language,omitempty"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
