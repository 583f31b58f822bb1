package llm

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPrompt   = errors.New("prompt cannot be empty")
	ErrEmptyMessages = errors.New("messages cannot be empty")
)

// LLMError is a coded provider error.
type LLMError struct {
	Code    int
	Message string
}

func (e LLMError) Error() string {
	return fmt.Sprintf("llm error (code=%d): %s", e.Code, e.Message)
}

const (
	ErrCodeInvalidAPIKey  = 2001
	ErrCodeInvalidRequest = 2002
	ErrCodeNetworkError   = 2003
	ErrCodeRateLimited    = 2004
	ErrCodeServerError    = 2005
	ErrCodeTimeout        = 2006
	ErrCodeEmptyPrompt    = 2007
)

// NewLLMError creates a coded llm error.
func NewLLMError(code int, message string) LLMError {
	return LLMError{Code: code, Message: message}
}
