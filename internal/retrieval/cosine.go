package retrieval

import (
	"math"
	"sort"
)

// CosineSimilarity scores the angle between two vectors, independent of
// magnitude: dot(a, b) / (‖a‖·‖b‖). A zero-magnitude vector (which a
// healthy embedding model never produces) scores 0 rather than NaN, and
// so does a dimension mismatch.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp accumulated floating-point drift.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return float32(sim)
}

// SelectTopK scores every candidate against the query vector and returns
// the k best, ordered by descending score. Ties break by ascending
// ChunkIndex so results are deterministic. Fewer than k results come back
// only when fewer candidates exist.
func SelectTopK(query []float32, candidates []Record, k int) []SearchResult {
	if k <= 0 || len(candidates) == 0 {
		return []SearchResult{}
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, rec := range candidates {
		results = append(results, SearchResult{
			Record: rec,
			Score:  CosineSimilarity(query, rec.Vector),
		})
	}
	SortResults(results)

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// SortResults orders results by descending score, ties by ascending
// ChunkIndex (the earlier chunk wins).
func SortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.ChunkIndex < results[j].Record.ChunkIndex
	})
}
