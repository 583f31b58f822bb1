package embedding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BatchProcessor fans a large text list out across multiple provider
// requests. Inputs are split into sub-batches bounded by the provider's
// input-count ceiling, up to maxConcurrent requests run at once, and a
// rate limiter paces request starts to stay under the provider's rate
// limit. Results are merged by batch index, so output order always
// matches input order no matter how the requests complete.
//
// Failure is all-or-nothing: the first failed batch cancels the group
// and the whole operation returns an error. Callers retry the entire
// request; there is no per-chunk recovery.
type BatchProcessor struct {
	client        Client
	batchSize     int
	maxConcurrent int
	groupDelay    time.Duration
}

// NewBatchProcessor creates a batch processor on top of an embedding
// client.
func NewBatchProcessor(client Client, batchSize, maxConcurrent int) *BatchProcessor {
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &BatchProcessor{
		client:        client,
		batchSize:     batchSize,
		maxConcurrent: maxConcurrent,
		groupDelay:    200 * time.Millisecond,
	}
}

// WithGroupDelay sets the pacing interval between request starts once
// the initial burst of maxConcurrent requests is in flight.
func (p *BatchProcessor) WithGroupDelay(d time.Duration) *BatchProcessor {
	if d >= 0 {
		p.groupDelay = d
	}
	return p
}

// Process embeds all texts and returns one vector per input, in input
// order.
func (p *BatchProcessor) Process(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	batches := splitIntoBatches(texts, p.batchSize)
	batchVectors := make([][][]float32, len(batches))

	// First burst goes out immediately; later requests are paced.
	var limiter *rate.Limiter
	if p.groupDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(p.groupDelay), p.maxConcurrent)
	} else {
		limiter = rate.NewLimiter(rate.Inf, p.maxConcurrent)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}

			vectors, err := p.client.EmbedBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("batch %d failed: %w", i, err)
			}
			if len(vectors) != len(batch) {
				return NewEmbeddingError(ErrCodeServerError,
					fmt.Sprintf("batch %d returned %d vectors for %d inputs", i, len(vectors), len(batch)))
			}
			batchVectors[i] = vectors
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([][]float32, 0, len(texts))
	for _, vectors := range batchVectors {
		merged = append(merged, vectors...)
	}
	return merged, nil
}

// splitIntoBatches cuts texts into slices of at most batchSize entries.
func splitIntoBatches(texts []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = 1
	}

	batches := make([][]string, 0, (len(texts)+batchSize-1)/batchSize)
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[i:end])
	}
	return batches
}
