package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is a map-backed vector store for development and tests.
// Search is a linear scan; fine for the corpus sizes a single-process
// deployment handles.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]Record
	docToIDs  map[string][]string
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(config Config) (Store, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}
	return &MemoryStore{
		dimension: config.Dimension,
		records:   make(map[string]Record),
		docToIDs:  make(map[string][]string),
	}, nil
}

func (s *MemoryStore) Add(ctx context.Context, rec Record) error {
	if err := ValidateVector(rec.Vector, s.dimension); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; !exists {
		s.docToIDs[rec.DocumentID] = append(s.docToIDs[rec.DocumentID], rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) AddBatch(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range recs {
		rec := recs[i]
		if err := ValidateVector(rec.Vector, s.dimension); err != nil {
			return fmt.Errorf("invalid vector for record %s: %w", rec.ID, err)
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now()
		}
		if _, exists := s.records[rec.ID]; !exists {
			s.docToIDs[rec.DocumentID] = append(s.docToIDs[rec.DocumentID], rec.ID)
		}
		s.records[rec.ID] = rec
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *MemoryStore) DeleteByDocumentID(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, exists := s.docToIDs[documentID]
	if !exists {
		return nil
	}
	for _, id := range ids {
		delete(s.records, id)
	}
	delete(s.docToIDs, documentID)
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, vector []float32, filter SearchFilter) ([]SearchResult, error) {
	if err := ValidateVector(vector, s.dimension); err != nil {
		return nil, err
	}

	s.mu.RLock()
	candidates := s.collectCandidates(filter)
	s.mu.RUnlock()

	if len(candidates) == 0 {
		return []SearchResult{}, nil
	}

	k := filter.MaxResults
	if k <= 0 {
		k = len(candidates)
	}
	results := SelectTopK(vector, candidates, k)

	if filter.MinScore > 0 {
		filtered := results[:0]
		for _, r := range results {
			if r.Score >= filter.MinScore {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	return results, nil
}

// collectCandidates gathers the records a search should score. Caller
// holds at least a read lock.
func (s *MemoryStore) collectCandidates(filter SearchFilter) []Record {
	if len(filter.DocumentIDs) > 0 {
		var candidates []Record
		for _, docID := range filter.DocumentIDs {
			for _, id := range s.docToIDs[docID] {
				if rec, ok := s.records[id]; ok {
					candidates = append(candidates, rec)
				}
			}
		}
		return candidates
	}

	candidates := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		candidates = append(candidates, rec)
	}
	return candidates
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Dimension() int {
	return s.dimension
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func init() {
	RegisterStore("memory", NewMemoryStore)
}
