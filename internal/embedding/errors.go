package embedding

import (
	"errors"
	"fmt"
)

// Sentinel errors callers can match with errors.Is.
var (
	ErrEmptyText     = errors.New("input text cannot be empty")
	ErrBatchTooLarge = errors.New("batch exceeds the provider's input limit")
	ErrRateLimited   = errors.New("embedding provider rate limit exceeded")
)

// EmbeddingError is a coded provider error. Any embedding failure is
// fatal to the request that triggered it: the caller retries the whole
// operation, never individual chunks.
type EmbeddingError struct {
	Code    int
	Message string
}

func (e EmbeddingError) Error() string {
	return fmt.Sprintf("embedding error (code=%d): %s", e.Code, e.Message)
}

const (
	ErrCodeInvalidAPIKey  = 1001
	ErrCodeInvalidRequest = 1002
	ErrCodeNetworkError   = 1003
	ErrCodeRateLimited    = 1004
	ErrCodeServerError    = 1005
	ErrCodeTimeout        = 1006
	ErrCodeEmptyInput     = 1007
)

// NewEmbeddingError creates a coded embedding error.
func NewEmbeddingError(code int, message string) EmbeddingError {
	return EmbeddingError{Code: code, Message: message}
}
