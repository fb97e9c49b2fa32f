package documents

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTooManyFiles = errors.New("too many files")
	ErrFileTooLarge = errors.New("file too large")
)
