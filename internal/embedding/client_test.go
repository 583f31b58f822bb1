package embedding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, "text-embedding-3-small", cfg.Model)
		assert.Equal(t, 1536, cfg.Dimensions)
		assert.Equal(t, 100, cfg.BatchSize)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
	})

	t.Run("options override defaults", func(t *testing.T) {
		cfg := NewConfig(
			WithAPIKey("sk-test"),
			WithModel("text-embedding-3-large"),
			WithDimensions(3072),
			WithBatchSize(50),
			WithMaxRetries(1),
		)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, "text-embedding-3-large", cfg.Model)
		assert.Equal(t, 3072, cfg.Dimensions)
		assert.Equal(t, 50, cfg.BatchSize)
		assert.Equal(t, 1, cfg.MaxRetries)
	})
}

func TestClientRegistry(t *testing.T) {
	t.Run("openai registered", func(t *testing.T) {
		client, err := NewClient("openai", WithAPIKey("sk-test"))
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-small", client.Name())
	})

	t.Run("missing api key", func(t *testing.T) {
		_, err := NewClient("openai")
		require.Error(t, err)

		var embErr EmbeddingError
		require.ErrorAs(t, err, &embErr)
		assert.Equal(t, ErrCodeInvalidAPIKey, embErr.Code)
	})

	t.Run("unknown client type", func(t *testing.T) {
		_, err := NewClient("no-such-provider")
		require.Error(t, err)

		var embErr EmbeddingError
		require.ErrorAs(t, err, &embErr)
		assert.Equal(t, ErrCodeInvalidRequest, embErr.Code)
	})
}
