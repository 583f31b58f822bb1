package retrieval

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrEmptyVector      = errors.New("empty vector")
	ErrInvalidDimension = errors.New("vector dimension mismatch")
)

// Record is one indexed chunk: its text, where it came from and its
// embedding vector. Records are immutable once stored; re-uploading a
// document replaces all of its records.
type Record struct {
	ID         string    // unique record ID
	DocumentID string    // owning document
	ChunkIndex int       // position of the chunk within the document
	PageNumber int       // 1-based page the chunk starts on
	StartIndex int       // chunk offset into the document text
	EndIndex   int       // end offset into the document text
	Text       string    // chunk content
	Vector     []float32 // embedding vector
	CreatedAt  time.Time
}

// SearchResult pairs a record with its relevance score for one query.
// Results are ephemeral; nothing about them is persisted.
type SearchResult struct {
	Record Record
	Score  float32
}

// SearchFilter narrows a similarity search.
type SearchFilter struct {
	DocumentIDs []string // restrict to these documents; empty means all
	MinScore    float32  // drop results scoring below this
	MaxResults  int      // top-K cap; 0 means no cap
}

// DefaultSearchFilter returns the filter used by the QA service when the
// caller does not override it.
func DefaultSearchFilter() SearchFilter {
	return SearchFilter{
		MinScore:   0.0,
		MaxResults: 5,
	}
}

// Store is a vector index over chunk records.
type Store interface {
	// Add indexes a single record.
	Add(ctx context.Context, rec Record) error

	// AddBatch indexes multiple records in one call.
	AddBatch(ctx context.Context, recs []Record) error

	// Get returns a record by ID.
	Get(ctx context.Context, id string) (Record, error)

	// DeleteByDocumentID removes every record of a document.
	DeleteByDocumentID(ctx context.Context, documentID string) error

	// Search returns records relevant to the query vector, best first.
	Search(ctx context.Context, vector []float32, filter SearchFilter) ([]SearchResult, error)

	// Count returns the number of indexed records.
	Count(ctx context.Context) (int, error)

	// Dimension returns the vector dimension the store was created with.
	Dimension() int

	// Close releases the store's resources.
	Close() error
}

// Config selects and parameterizes a store implementation.
type Config struct {
	Type      string // "memory" or "chromem"
	Path      string // data directory for persistent stores
	Dimension int    // embedding dimension, e.g. 1536
}

// Factory builds a store from its configuration.
type Factory func(config Config) (Store, error)

var storeRegistry = map[string]Factory{}

// RegisterStore makes a store implementation available by name.
func RegisterStore(name string, factory Factory) {
	storeRegistry[name] = factory
}

// NewStore creates the store named by config.Type, defaulting to the
// in-memory implementation for unknown names.
func NewStore(config Config) (Store, error) {
	factory, ok := storeRegistry[config.Type]
	if !ok {
		factory = NewMemoryStore
	}
	return factory(config)
}

// ValidateVector checks a vector is non-empty and of the expected size.
func ValidateVector(vector []float32, expectedDim int) error {
	if len(vector) == 0 {
		return ErrEmptyVector
	}
	if expectedDim > 0 && len(vector) != expectedDim {
		return ErrInvalidDimension
	}
	return nil
}
