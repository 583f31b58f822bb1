package models

import "errors"

var (
	// ErrDocumentNotFound is returned when a document ID has no row.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrSessionNotFound is returned when a chat session ID has no row.
	ErrSessionNotFound = errors.New("chat session not found")

	// ErrInvalidDocumentStatus is returned for status transitions the
	// pipeline does not allow.
	ErrInvalidDocumentStatus = errors.New("invalid document status")
)
