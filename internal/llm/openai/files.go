package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"clarify-backend/internal/llm"
	"clarify-backend/internal/shared/telemetry"
)

// filePurpose is required for files referenced by Responses API inputs.
const filePurpose = "assistants"

type fileResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
	Error    *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type deleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Upload sends each file to OpenAI file storage and collects the refs.
// Per-file failures are recorded in the result rather than aborting the batch.
func (c *Client) Upload(ctx context.Context, files []llm.FileInput) (llm.UploadResult, error) {
	result := llm.UploadResult{}

	for _, file := range files {
		meta, err := c.uploadOne(ctx, file)
		if err != nil {
			telemetry.Error("llm.file_upload_failed", map[string]any{
				"file_name": file.Name,
				"error":     err.Error(),
			})
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to upload %s: %v", file.Name, err))
			continue
		}
		result.Refs = append(result.Refs, meta.Ref)
		result.Files = append(result.Files, meta)
	}

	telemetry.Info("llm.file_upload_complete", map[string]any{
		"uploaded": len(result.Refs),
		"total":    len(files),
	})
	return result, nil
}

func (c *Client) uploadOne(ctx context.Context, file llm.FileInput) (llm.FileMeta, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("purpose", filePurpose); err != nil {
		return llm.FileMeta{}, err
	}
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return llm.FileMeta{}, err
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return llm.FileMeta{}, fmt.Errorf("read file body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return llm.FileMeta{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", body)
	if err != nil {
		return llm.FileMeta{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llm.FileMeta{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.FileMeta{}, err
	}

	var parsed fileResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.FileMeta{}, fmt.Errorf("openai file response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.FileMeta{}, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if parsed.ID == "" {
		return llm.FileMeta{}, fmt.Errorf("openai file response missing id")
	}

	return llm.FileMeta{Name: file.Name, Size: parsed.Bytes, Ref: parsed.ID}, nil
}

// Delete removes a file from OpenAI storage. Best effort; failures are
// logged and reported as false.
func (c *Client) Delete(ctx context.Context, ref string) bool {
	if strings.TrimSpace(ref) == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/files/"+ref, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.Error("llm.file_delete_failed", map[string]any{"ref": ref, "error": err.Error()})
		return false
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false
	}

	var parsed deleteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return false
	}
	if !parsed.Deleted {
		telemetry.Error("llm.file_delete_failed", map[string]any{"ref": ref, "status": resp.StatusCode})
	}
	return parsed.Deleted
}

var _ llm.FileService = (*Client)(nil)
