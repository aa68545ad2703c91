package domain

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotConfigured indicates a required API key or secret is absent.
	ErrNotConfigured = errors.New("not configured")

	// ErrExtraction indicates uploaded file content could not be read.
	ErrExtraction = errors.New("text extraction failed")
)
