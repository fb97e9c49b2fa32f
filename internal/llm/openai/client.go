// Package openai implements the llm interfaces against the OpenAI
// Files and Responses APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"clarify-backend/internal/llm"
	"clarify-backend/internal/shared/metrics"
	"clarify-backend/internal/shared/telemetry"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client talks to the OpenAI Files and Responses APIs. One client serves
// file upload, domain classification, and full document analysis.
type Client struct {
	apiKey        string
	classifyModel string
	analyzeModel  string
	baseURL       string
	httpClient    *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, classifyModel, analyzeModel string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(classifyModel) == "" {
		return nil, fmt.Errorf("CLASSIFY_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(analyzeModel) == "" {
		return nil, fmt.Errorf("ANALYZE_MODEL is required for OpenAI")
	}

	timeout := 180 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}

	baseURL := defaultBaseURL
	if raw := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); raw != "" {
		baseURL = strings.TrimRight(raw, "/")
	}

	return &Client{
		apiKey:        apiKey,
		classifyModel: classifyModel,
		analyzeModel:  analyzeModel,
		baseURL:       baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type contentBlock struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	FileID string `json:"file_id,omitempty"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type textFormat struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type textOptions struct {
	Format textFormat `json:"format"`
}

type responsesRequest struct {
	Model        string         `json:"model"`
	Instructions string         `json:"instructions"`
	Input        []inputMessage `json:"input"`
	Text         textOptions    `json:"text"`
}

type responsesResponse struct {
	ID     string `json:"id"`
	Model  string `json:"model"`
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// ClassifyDomain asks the fast model which supported domain the uploaded
// documents belong to.
func (c *Client) ClassifyDomain(ctx context.Context, refs []string) (llm.DomainResult, error) {
	if len(refs) == 0 {
		return llm.DomainResult{}, fmt.Errorf("no file refs provided")
	}

	raw, err := c.createResponse(ctx, c.classifyModel, classificationInstructions, classificationQuery, refs, domainDetectionFormat())
	if err != nil {
		return llm.DomainResult{}, err
	}

	var result llm.DomainResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return llm.DomainResult{}, fmt.Errorf("parse domain result: %w", err)
	}
	return result, nil
}

// AnalyzeDocuments runs the full structured analysis with the powerful model.
func (c *Client) AnalyzeDocuments(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	if len(input.Refs) == 0 {
		return nil, fmt.Errorf("no file refs provided")
	}

	instructions := buildAnalysisInstructions(input.Domain, input.Intent, input.Language)
	query := buildAnalysisQuery(input.Domain, input.Intent, input.Notes, input.Language)

	return c.createResponse(ctx, c.analyzeModel, instructions, query, input.Refs, analysisFormat())
}

func (c *Client) createResponse(ctx context.Context, model, instructions, query string, refs []string, format textFormat) (json.RawMessage, error) {
	content := []contentBlock{{Type: "input_text", Text: query}}
	for _, ref := range refs {
		content = append(content, contentBlock{Type: "input_file", FileID: ref})
	}

	reqBody := responsesRequest{
		Model:        model,
		Instructions: instructions,
		Input:        []inputMessage{{Role: "user", Content: content}},
		Text:         textOptions{Format: format},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	metrics.ObserveLLMDurationMs(float64(time.Since(start).Milliseconds()))

	var parsed responsesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	raw := extractJSONPayload(parsed)
	if raw == nil {
		return nil, fmt.Errorf("openai response missing output text")
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON from OpenAI")
	}

	logResponse(model, parsed)
	return raw, nil
}

func extractJSONPayload(parsed responsesResponse) json.RawMessage {
	for _, item := range parsed.Output {
		for _, block := range item.Content {
			if block.Type != "output_text" {
				continue
			}
			text := strings.TrimSpace(block.Text)
			if text != "" {
				return json.RawMessage(text)
			}
		}
	}
	return nil
}

func logResponse(model string, parsed responsesResponse) {
	fields := map[string]any{
		"model":       model,
		"response_id": parsed.ID,
	}
	if parsed.Usage != nil {
		fields["input_tokens"] = parsed.Usage.InputTokens
		fields["output_tokens"] = parsed.Usage.OutputTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

var (
	_ llm.Classifier = (*Client)(nil)
	_ llm.Analyzer   = (*Client)(nil)
)
