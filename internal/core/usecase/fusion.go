package usecase

import (
	"sort"

	"github.com/aleksworks/docintel/internal/core/domain"
)

const (
	fusionRRF      = "rrf"
	fusionWeighted = "weighted"
)

// rankedList is one retrieval signal's output together with its fusion
// weight. Results must already be sorted by score descending.
type rankedList struct {
	results []domain.SearchResult
	weight  float64
}

type fusedCandidate struct {
	result domain.SearchResult
	score  float64
}

// fuseRRF combines ranked lists with reciprocal rank fusion:
// score(id) = sum over lists of weight/(k + rank), rank 1-based. Rank-based
// fusion is scale-invariant, so cosine similarities and unbounded BM25
// scores combine without normalization. An id appearing in several lists
// accumulates once per list but is emitted once, carrying the first-seen
// content and metadata.
func fuseRRF(lists []rankedList, k int) []domain.SearchResult {
	if k <= 0 {
		k = 60
	}

	acc := make(map[string]fusedCandidate)
	order := make([]string, 0)
	for _, list := range lists {
		for rank, result := range list.results {
			candidate, seen := acc[result.ID]
			if !seen {
				candidate.result = result
				order = append(order, result.ID)
			}
			candidate.score += list.weight / float64(k+rank+1)
			acc[result.ID] = candidate
		}
	}

	return sortFused(acc, order)
}

// fuseWeighted min-max normalizes each list's scores to [0,1] independently
// and combines them as sum of weight*normalized. A degenerate list whose
// scores are all equal normalizes to 1.0 for every member.
func fuseWeighted(lists []rankedList) []domain.SearchResult {
	acc := make(map[string]fusedCandidate)
	order := make([]string, 0)
	for _, list := range lists {
		normalized := minMaxNormalize(list.results)
		for i, result := range list.results {
			candidate, seen := acc[result.ID]
			if !seen {
				candidate.result = result
				order = append(order, result.ID)
			}
			candidate.score += list.weight * normalized[i]
			acc[result.ID] = candidate
		}
	}

	return sortFused(acc, order)
}

func minMaxNormalize(results []domain.SearchResult) []float64 {
	out := make([]float64, len(results))
	if len(results) == 0 {
		return out
	}

	minScore, maxScore := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}

	scoreRange := maxScore - minScore
	for i, r := range results {
		if scoreRange <= 0 {
			out[i] = 1.0
			continue
		}
		out[i] = (r.Score - minScore) / scoreRange
	}
	return out
}

// sortFused emits the accumulated candidates by fused score descending with
// a deterministic first-seen tie-break. Candidates whose fused score is
// zero are never emitted.
func sortFused(acc map[string]fusedCandidate, order []string) []domain.SearchResult {
	firstSeen := make(map[string]int, len(order))
	for i, id := range order {
		firstSeen[id] = i
	}

	out := make([]domain.SearchResult, 0, len(acc))
	for _, id := range order {
		candidate := acc[id]
		if candidate.score <= 0 {
			continue
		}
		result := candidate.result
		result.Score = candidate.score
		out = append(out, result)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return firstSeen[out[i].ID] < firstSeen[out[j].ID]
	})
	return out
}

// dedupeByID keeps the first occurrence of every id, preserving order.
func dedupeByID(results []domain.SearchResult) []domain.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// sortByScore orders results by raw score descending, keeping the incoming
// order for ties so merged multi-run output stays deterministic.
func sortByScore(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
