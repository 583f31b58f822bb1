package retrieval

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	chromem "github.com/philippgille/chromem-go"
)

const chromemCollection = "readly-chunks"

// ChromemStore persists vectors with chromem-go, an embedded pure-Go
// vector database. Used in production deployments so the index survives
// restarts without an external service.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimension  int
}

// NewChromemStore opens (or creates) a persistent store under
// config.Path. An empty path yields an in-memory chromem database, which
// is handy in tests.
func NewChromemStore(config Config) (Store, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	var db *chromem.DB
	var err error
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(config.Path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database: %w", err)
		}
	}

	// Embeddings are always supplied by the caller, so no embedding
	// function is registered with the collection.
	collection, err := db.GetOrCreateCollection(chromemCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: collection,
		dimension:  config.Dimension,
	}, nil
}

func (s *ChromemStore) Add(ctx context.Context, rec Record) error {
	if err := ValidateVector(rec.Vector, s.dimension); err != nil {
		return err
	}
	return s.collection.AddDocument(ctx, toChromemDocument(rec))
}

func (s *ChromemStore) AddBatch(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(recs))
	for i := range recs {
		if err := ValidateVector(recs[i].Vector, s.dimension); err != nil {
			return fmt.Errorf("invalid vector for record %s: %w", recs[i].ID, err)
		}
		docs = append(docs, toChromemDocument(recs[i]))
	}
	return s.collection.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (s *ChromemStore) Get(ctx context.Context, id string) (Record, error) {
	doc, err := s.collection.GetByID(ctx, id)
	if err != nil {
		return Record{}, ErrRecordNotFound
	}
	return fromChromemDocument(doc), nil
}

func (s *ChromemStore) DeleteByDocumentID(ctx context.Context, documentID string) error {
	return s.collection.Delete(ctx, map[string]string{"document_id": documentID}, nil)
}

func (s *ChromemStore) Search(ctx context.Context, vector []float32, filter SearchFilter) ([]SearchResult, error) {
	if err := ValidateVector(vector, s.dimension); err != nil {
		return nil, err
	}

	total := s.collection.Count()
	if total == 0 {
		return []SearchResult{}, nil
	}

	n := filter.MaxResults
	if n <= 0 || n > total {
		n = total
	}

	// chromem filters by exact metadata match, one value per key, so a
	// multi-document search runs one query per document and re-ranks the
	// union.
	var results []SearchResult
	if len(filter.DocumentIDs) > 0 {
		for _, docID := range filter.DocumentIDs {
			where := map[string]string{"document_id": docID}
			partial, err := s.query(ctx, vector, n, where)
			if err != nil {
				return nil, err
			}
			results = append(results, partial...)
		}
		SortResults(results)
		if len(results) > n {
			results = results[:n]
		}
	} else {
		var err error
		results, err = s.query(ctx, vector, n, nil)
		if err != nil {
			return nil, err
		}
	}

	if filter.MinScore > 0 {
		filtered := results[:0]
		for _, r := range results {
			if r.Score >= filter.MinScore {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

func (s *ChromemStore) query(ctx context.Context, vector []float32, n int, where map[string]string) ([]SearchResult, error) {
	// chromem rejects nResults larger than the number of matching
	// documents, so probe the filtered count first via an unbounded cap.
	count := s.collection.Count()
	if n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	docs, err := s.collection.QueryEmbedding(ctx, vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query failed: %w", err)
	}

	results := make([]SearchResult, 0, len(docs))
	for _, d := range docs {
		rec := fromChromemResult(d)
		results = append(results, SearchResult{Record: rec, Score: d.Similarity})
	}
	return results, nil
}

func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

func (s *ChromemStore) Dimension() int {
	return s.dimension
}

// Close is a no-op; chromem persists on every write.
func (s *ChromemStore) Close() error {
	return nil
}

func toChromemDocument(rec Record) chromem.Document {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return chromem.Document{
		ID:        rec.ID,
		Content:   rec.Text,
		Embedding: rec.Vector,
		Metadata: map[string]string{
			"document_id": rec.DocumentID,
			"chunk_index": strconv.Itoa(rec.ChunkIndex),
			"page_number": strconv.Itoa(rec.PageNumber),
			"start_index": strconv.Itoa(rec.StartIndex),
			"end_index":   strconv.Itoa(rec.EndIndex),
			"created_at":  createdAt.UTC().Format(time.RFC3339),
		},
	}
}

func fromChromemDocument(doc chromem.Document) Record {
	rec := Record{
		ID:         doc.ID,
		Text:       doc.Content,
		Vector:     doc.Embedding,
		DocumentID: doc.Metadata["document_id"],
	}
	rec.ChunkIndex, _ = strconv.Atoi(doc.Metadata["chunk_index"])
	rec.PageNumber, _ = strconv.Atoi(doc.Metadata["page_number"])
	rec.StartIndex, _ = strconv.Atoi(doc.Metadata["start_index"])
	rec.EndIndex, _ = strconv.Atoi(doc.Metadata["end_index"])
	if ts, err := time.Parse(time.RFC3339, doc.Metadata["created_at"]); err == nil {
		rec.CreatedAt = ts
	}
	return rec
}

func fromChromemResult(res chromem.Result) Record {
	rec := Record{
		ID:         res.ID,
		Text:       res.Content,
		Vector:     res.Embedding,
		DocumentID: res.Metadata["document_id"],
	}
	rec.ChunkIndex, _ = strconv.Atoi(res.Metadata["chunk_index"])
	rec.PageNumber, _ = strconv.Atoi(res.Metadata["page_number"])
	rec.StartIndex, _ = strconv.Atoi(res.Metadata["start_index"])
	rec.EndIndex, _ = strconv.Atoi(res.Metadata["end_index"])
	if ts, err := time.Parse(time.RFC3339, res.Metadata["created_at"]); err == nil {
		rec.CreatedAt = ts
	}
	return rec
}

func init() {
	RegisterStore("chromem", NewChromemStore)
}
