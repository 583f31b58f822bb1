package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/readly-ai/readly/internal/cache"
	"github.com/readly-ai/readly/internal/citation"
	"github.com/readly-ai/readly/internal/embedding"
	"github.com/readly-ai/readly/internal/llm"
	"github.com/readly-ai/readly/internal/retrieval"
)

// NoAnswerFallback is returned when retrieval finds nothing relevant
// enough to ground an answer on.
const NoAnswerFallback = "I could not find that in the document."

// Answer is a grounded, citation-annotated response.
type Answer struct {
	Text      string                   `json:"text"`      // cleaned answer, markers removed
	Citations []citation.Citation      `json:"citations"` // extracted citations
	Sources   []retrieval.SearchResult `json:"sources"`   // chunks the answer drew on
	Cached    bool                     `json:"cached"`    // served from cache
}

// QAService answers questions about a document: embed the question,
// retrieve the most relevant chunks, generate a grounded answer, and
// extract its citations.
type QAService struct {
	embedder    embedding.Client
	store       retrieval.Store
	rag         *llm.RAGService
	cache       cache.Cache
	cacheTTL    time.Duration
	searchLimit int
	minScore    float32
}

// QAOption mutates a QAService.
type QAOption func(*QAService)

// WithCacheTTL sets how long answers stay cached.
func WithCacheTTL(ttl time.Duration) QAOption {
	return func(s *QAService) { s.cacheTTL = ttl }
}

// WithSearchLimit sets how many chunks retrieval returns.
func WithSearchLimit(limit int) QAOption {
	return func(s *QAService) {
		if limit > 0 {
			s.searchLimit = limit
		}
	}
}

// WithMinScore sets the similarity floor for retrieved chunks.
func WithMinScore(score float32) QAOption {
	return func(s *QAService) { s.minScore = score }
}

// NewQAService creates the question-answering service.
func NewQAService(
	embedder embedding.Client,
	store retrieval.Store,
	rag *llm.RAGService,
	answerCache cache.Cache,
	opts ...QAOption,
) *QAService {
	s := &QAService{
		embedder:    embedder,
		store:       store,
		rag:         rag,
		cache:       answerCache,
		cacheTTL:    24 * time.Hour,
		searchLimit: 5,
		minScore:    0.25,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer answers a question scoped to one document.
func (s *QAService) Answer(ctx context.Context, documentID, question string) (*Answer, error) {
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}
	if documentID == "" {
		return nil, fmt.Errorf("document ID cannot be empty")
	}

	cacheKey := cache.HashKey("qa:"+documentID, question)
	if cached, found, err := s.cache.Get(cacheKey); err == nil && found {
		var answer Answer
		if err := json.Unmarshal([]byte(cached), &answer); err == nil {
			answer.Cached = true
			return &answer, nil
		}
	}

	queryVector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := s.store.Search(ctx, queryVector, retrieval.SearchFilter{
		DocumentIDs: []string{documentID},
		MinScore:    s.minScore,
		MaxResults:  s.searchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	if len(results) == 0 {
		answer := &Answer{Text: NoAnswerFallback}
		s.cacheAnswer(cacheKey, answer)
		return answer, nil
	}

	passages := make([]llm.Passage, len(results))
	for i, r := range results {
		passages[i] = llm.Passage{
			DocumentID: r.Record.DocumentID,
			PageNumber: r.Record.PageNumber,
			ChunkIndex: r.Record.ChunkIndex,
			Text:       r.Record.Text,
		}
	}

	ragResponse, err := s.rag.Answer(ctx, question, passages)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	extracted := citation.Extract(ragResponse.Answer)
	answer := &Answer{
		Text:      extracted.CleanedText,
		Citations: extracted.Citations,
		Sources:   results,
	}
	s.cacheAnswer(cacheKey, answer)

	return answer, nil
}

// ClearCache drops all cached answers.
func (s *QAService) ClearCache() error {
	return s.cache.Clear()
}

func (s *QAService) cacheAnswer(key string, answer *Answer) {
	// Source vectors are never served back to clients; dropping them
	// keeps cached answers small.
	cached := *answer
	if len(answer.Sources) > 0 {
		cached.Sources = make([]retrieval.SearchResult, len(answer.Sources))
		for i, src := range answer.Sources {
			cached.Sources[i] = src
			cached.Sources[i].Record.Vector = nil
		}
	}

	data, err := json.Marshal(&cached)
	if err != nil {
		return
	}
	// Cache failures only cost a recomputation.
	_ = s.cache.Set(key, string(data), s.cacheTTL)
}
