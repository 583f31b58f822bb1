package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultRAGTemplate is the grounded-answer prompt. Template variables:
// {{.Question}} - the user's question
// {{.Context}} - the formatted, page-tagged passages
//
// The model is told to cite with inline markers of the form
// [cite:<page>:<preview>] so answers stay attributable to specific
// pages of the source document.
const DefaultRAGTemplate = `You are a reading assistant. Answer the question using only the passages below.
If the passages do not contain enough information, say "I could not find that in the document" instead of guessing.

Each passage is labelled with the page it came from. When a sentence in your answer relies on a passage, append a citation marker immediately after that sentence in exactly this form:
[cite:<page>:<short quote from the passage>]
Use the page number from the passage label. Keep the quote under ten words. Do not cite pages that are not listed below.

Passages:
{{.Context}}

Question: {{.Question}}

Answer directly. Do not restate the question or mention the passages themselves.`

// formatPassages renders passages with their page labels.
func formatPassages(passages []Passage) string {
	var b strings.Builder
	for i, p := range passages {
		b.WriteString(fmt.Sprintf("[%d] (page %d) %s\n\n", i+1, p.PageNumber, p.Text))
	}
	return b.String()
}

// RAGConfig holds grounded-answer settings.
type RAGConfig struct {
	Template       string
	MaxTokens      int
	Temperature    float32
	Timeout        time.Duration
	IncludeSources bool
}

// DefaultRAGConfig returns the default grounded-answer settings.
func DefaultRAGConfig() *RAGConfig {
	return &RAGConfig{
		Template:       DefaultRAGTemplate,
		MaxTokens:      2048,
		Temperature:    0.3,
		Timeout:        30 * time.Second,
		IncludeSources: true,
	}
}

// RAGService answers questions grounded in retrieved passages.
type RAGService struct {
	Client Client
	config *RAGConfig
	mu     sync.RWMutex
}

// NewRAG creates a grounded-answer service on top of a chat client.
func NewRAG(client Client, opts ...RAGOption) *RAGService {
	cfg := DefaultRAGConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &RAGService{
		Client: client,
		config: cfg,
	}
}

// RAGOption mutates a RAGConfig.
type RAGOption func(*RAGConfig)

func WithTemplate(template string) RAGOption {
	return func(c *RAGConfig) { c.Template = template }
}

func WithRAGMaxTokens(tokens int) RAGOption {
	return func(c *RAGConfig) { c.MaxTokens = tokens }
}

func WithRAGTemperature(temp float32) RAGOption {
	return func(c *RAGConfig) { c.Temperature = temp }
}

func WithRAGTimeout(timeout time.Duration) RAGOption {
	return func(c *RAGConfig) { c.Timeout = timeout }
}

func WithSources(include bool) RAGOption {
	return func(c *RAGConfig) { c.IncludeSources = include }
}

// Answer generates a grounded answer for the question. The returned
// text may contain inline citation markers.
func (r *RAGService) Answer(ctx context.Context, question string, passages []Passage) (*RAGResponse, error) {
	if question == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, "question cannot be empty")
	}

	r.mu.RLock()
	cfg := r.config
	r.mu.RUnlock()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	prompt := r.buildPrompt(question, passages)

	response, err := r.Client.Generate(
		ctxWithTimeout,
		prompt,
		WithGenerateMaxTokens(cfg.MaxTokens),
		WithGenerateTemperature(cfg.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	ragResponse := &RAGResponse{
		Answer: response.Text,
	}
	if cfg.IncludeSources && len(passages) > 0 {
		ragResponse.Sources = append(ragResponse.Sources, passages...)
	}

	return ragResponse, nil
}

// buildPrompt fills the template with the question and the page-tagged
// passages.
func (r *RAGService) buildPrompt(question string, passages []Passage) string {
	r.mu.RLock()
	template := r.config.Template
	r.mu.RUnlock()

	prompt := template
	prompt = strings.ReplaceAll(prompt, "{{.Question}}", question)
	prompt = strings.ReplaceAll(prompt, "{{.Context}}", formatPassages(passages))
	return prompt
}

// SetTemplate replaces the prompt template.
func (r *RAGService) SetTemplate(template string) *RAGService {
	r.mu.Lock()
	r.config.Template = template
	r.mu.Unlock()
	return r
}
