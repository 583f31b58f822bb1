package embedding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is an embedding client whose vectors encode the numeric
// suffix of each input text, so tests can verify ordering after the
// fork-join merge. It also tracks how many requests run concurrently.
type mockClient struct {
	mu          sync.Mutex
	calls       int
	inFlight    int32
	maxInFlight int32
	failOnCall  int // 1-based call ordinal that fails; 0 disables
	delay       time.Duration
}

func (m *mockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()

	cur := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		max := atomic.LoadInt32(&m.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&m.maxInFlight, max, cur) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	if m.failOnCall != 0 && call == m.failOnCall {
		return nil, NewEmbeddingError(ErrCodeServerError, "provider unavailable")
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		n, err := strconv.Atoi(strings.TrimPrefix(text, "text-"))
		if err != nil {
			return nil, fmt.Errorf("unexpected input %q", text)
		}
		vectors[i] = []float32{float32(n)}
	}
	return vectors, nil
}

func (m *mockClient) Name() string { return "mock" }

func makeTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}
	return texts
}

// TestProcessOrderPreserved embeds 250 texts with batchSize=100 and
// maxConcurrent=3: three batches are dispatched and the merged output
// preserves input order even though batches complete out of order.
func TestProcessOrderPreserved(t *testing.T) {
	client := &mockClient{delay: 10 * time.Millisecond}
	p := NewBatchProcessor(client, 100, 3).WithGroupDelay(0)

	vectors, err := p.Process(context.Background(), makeTexts(250))
	require.NoError(t, err)
	require.Len(t, vectors, 250)

	for i, v := range vectors {
		require.Len(t, v, 1)
		assert.Equal(t, float32(i), v[0], "vector %d must match input %d", i, i)
	}

	assert.Equal(t, 3, client.calls, "250 texts at batch size 100 should dispatch 3 batches")
	assert.LessOrEqual(t, client.maxInFlight, int32(3))
}

// TestProcessConcurrencyBound verifies no more than maxConcurrent
// requests run at once.
func TestProcessConcurrencyBound(t *testing.T) {
	client := &mockClient{delay: 20 * time.Millisecond}
	p := NewBatchProcessor(client, 10, 2).WithGroupDelay(0)

	_, err := p.Process(context.Background(), makeTexts(80))
	require.NoError(t, err)

	assert.Equal(t, 8, client.calls)
	assert.LessOrEqual(t, client.maxInFlight, int32(2))
	assert.Greater(t, client.maxInFlight, int32(1), "batches should actually overlap")
}

// TestProcessFailureAborts verifies any batch failure fails the whole
// operation with no partial results.
func TestProcessFailureAborts(t *testing.T) {
	client := &mockClient{failOnCall: 2, delay: 5 * time.Millisecond}
	p := NewBatchProcessor(client, 50, 2).WithGroupDelay(0)

	vectors, err := p.Process(context.Background(), makeTexts(200))
	require.Error(t, err)
	assert.Nil(t, vectors, "failed runs must not return partial results")

	var embErr EmbeddingError
	assert.True(t, errors.As(err, &embErr))
}

// TestProcessCancellation verifies an expired context aborts the run.
func TestProcessCancellation(t *testing.T) {
	client := &mockClient{delay: 200 * time.Millisecond}
	p := NewBatchProcessor(client, 10, 2).WithGroupDelay(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := p.Process(ctx, makeTexts(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProcessEmptyInput(t *testing.T) {
	p := NewBatchProcessor(&mockClient{}, 10, 2)

	vectors, err := p.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

// TestProcessSingleBatch verifies inputs below the batch size go out in
// one request.
func TestProcessSingleBatch(t *testing.T) {
	client := &mockClient{}
	p := NewBatchProcessor(client, 100, 3).WithGroupDelay(0)

	vectors, err := p.Process(context.Background(), makeTexts(7))
	require.NoError(t, err)
	assert.Len(t, vectors, 7)
	assert.Equal(t, 1, client.calls)
}

func TestSplitIntoBatches(t *testing.T) {
	t.Run("even split", func(t *testing.T) {
		batches := splitIntoBatches(makeTexts(100), 50)
		require.Len(t, batches, 2)
		assert.Len(t, batches[0], 50)
		assert.Len(t, batches[1], 50)
	})

	t.Run("remainder batch", func(t *testing.T) {
		batches := splitIntoBatches(makeTexts(250), 100)
		require.Len(t, batches, 3)
		assert.Len(t, batches[2], 50)
	})

	t.Run("single batch", func(t *testing.T) {
		batches := splitIntoBatches(makeTexts(3), 100)
		require.Len(t, batches, 1)
	})
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("429 Too Many Requests")))
	assert.True(t, isRateLimitError(errors.New("rate_limit_exceeded")))
	assert.False(t, isRateLimitError(errors.New("invalid api key")))
	assert.False(t, isRateLimitError(nil))
}
