package llm

import (
	"context"
	"time"
)

// Client talks to a hosted chat model.
type Client interface {
	// Generate produces a completion for a single prompt.
	Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error)

	// Chat produces a completion for a multi-turn conversation.
	Chat(ctx context.Context, messages []Message, options ...GenerateOption) (*Response, error)

	// Name returns the model name.
	Name() string
}

// Config holds chat client settings.
type Config struct {
	APIKey      string        // provider API key
	BaseURL     string        // override for the provider endpoint
	Model       string        // chat model name
	Timeout     time.Duration // per-request timeout
	MaxRetries  int           // retries on rate-limit responses
	MaxTokens   int           // completion token ceiling
	Temperature float32       // sampling temperature (0.0-2.0)
	TopP        float32       // nucleus sampling threshold (0.0-1.0)
}

// DefaultConfig returns settings for the default OpenAI chat model.
func DefaultConfig() *Config {
	return &Config{
		Model:       ModelGPT4oMini,
		Timeout:     60 * time.Second,
		MaxRetries:  3,
		MaxTokens:   1024,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

// Option mutates a Config.
type Option func(*Config)

func WithAPIKey(apiKey string) Option {
	return func(c *Config) { c.APIKey = apiKey }
}

func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

func WithMaxRetries(retries int) Option {
	return func(c *Config) { c.MaxRetries = retries }
}

func WithMaxTokens(tokens int) Option {
	return func(c *Config) { c.MaxTokens = tokens }
}

func WithTemperature(temp float32) Option {
	return func(c *Config) { c.Temperature = temp }
}

func WithTopP(topP float32) Option {
	return func(c *Config) { c.TopP = topP }
}

// NewConfig applies options on top of the defaults.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// GenerateOption tunes a single request without touching the client
// config.
type GenerateOption func(*GenerateOptions)

// GenerateOptions are per-request overrides. Nil fields fall back to
// the client config.
type GenerateOptions struct {
	MaxTokens   *int
	Temperature *float32
	TopP        *float32
}

func WithGenerateMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) { o.MaxTokens = &tokens }
}

func WithGenerateTemperature(temp float32) GenerateOption {
	return func(o *GenerateOptions) { o.Temperature = &temp }
}

func WithGenerateTopP(topP float32) GenerateOption {
	return func(o *GenerateOptions) { o.TopP = &topP }
}

// Factory builds a client from options.
type Factory func(opts ...Option) (Client, error)

var clientFactories = make(map[string]Factory)

// RegisterClient makes a chat client implementation available by name.
func RegisterClient(name string, factory Factory) {
	clientFactories[name] = factory
}

// NewClient creates the chat client registered under name.
func NewClient(name string, opts ...Option) (Client, error) {
	factory, exists := clientFactories[name]
	if !exists {
		return nil, NewLLMError(
			ErrCodeInvalidRequest,
			"llm client type not registered: "+name)
	}
	return factory(opts...)
}
