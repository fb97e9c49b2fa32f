package analyses

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("analysis is not in the expected step")
	ErrIntentRequired = errors.New("custom intent required")
	ErrNotReady       = errors.New("analysis is not complete")
)

const (
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeLLMTimeout        = "LLM_TIMEOUT"
	ErrorCodeLLMSchemaMismatch = "LLM_SCHEMA_MISMATCH"
	ErrorCodeStorage           = "STORAGE_ERROR"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)
