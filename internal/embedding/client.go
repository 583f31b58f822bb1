package embedding

import (
	"context"
	"time"
)

// Client turns text into fixed-length embedding vectors by calling a
// hosted model. Implementations never compute vectors locally.
type Client interface {
	// Embed generates the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates one vector per input text, in input order.
	// len(texts) must not exceed the configured batch size.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the model name.
	Name() string
}

// Config holds embedding client settings.
type Config struct {
	APIKey     string        // provider API key
	BaseURL    string        // override for the provider endpoint
	Model      string        // embedding model name
	Timeout    time.Duration // per-request timeout
	MaxRetries int           // retries on rate-limit responses
	Dimensions int           // vector length the model produces
	BatchSize  int           // provider's input-count ceiling per request
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

func WithDimensions(dimensions int) Option {
	return func(c *Config) { c.Dimensions = dimensions }
}

func WithBatchSize(size int) Option {
	return func(c *Config) { c.BatchSize = size }
}

// DefaultConfig returns settings for the default OpenAI embedding model.
func DefaultConfig() *Config {
	return &Config{
		Model:      "text-embedding-3-small",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		Dimensions: 1536,
		BatchSize:  100,
	}
}

// NewConfig applies options on top of the defaults.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Factory builds a client from options.
type Factory func(opts ...Option) (Client, error)

var clientFactories = make(map[string]Factory)

// RegisterClient makes a client implementation available by name.
func RegisterClient(name string, factory Factory) {
	clientFactories[name] = factory
}

// NewClient creates the embedding client registered under name.
func NewClient(name string, opts ...Option) (Client, error) {
	factory, exists := clientFactories[name]
	if !exists {
		return nil, NewEmbeddingError(
			ErrCodeInvalidRequest,
			"embedding client type not registered: "+name)
	}
	return factory(opts...)
}
