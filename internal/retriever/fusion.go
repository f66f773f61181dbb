package retriever

import (
	"sort"

	"github.com/redlinehq/redline/internal/keyword"
	"github.com/redlinehq/redline/internal/vector"
)

// fusedResult holds a passage ID with its fused keyword/semantic scores.
type fusedResult struct {
	PassageID     string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// normalizeKeywordScores normalizes BM25 scores to [0,1] by the max score so
// they are comparable with cosine similarities.
func normalizeKeywordScores(results []keyword.Result) map[string]float64 {
	normalized := make(map[string]float64)
	if len(results) == 0 {
		return normalized
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.PassageID] = r.Score / maxScore
		} else {
			normalized[r.PassageID] = 0
		}
	}
	return normalized
}

// semanticScoreMap keys inner-product scores by passage ID. The embedder
// returns unit vectors so scores are already in [0,1].
func semanticScoreMap(results []vector.Result) map[string]float64 {
	m := make(map[string]float64, len(results))
	for _, r := range results {
		m[r.ID] = r.Score
	}
	return m
}

// fuse merges the score maps with weights and sorts score descending, ties
// broken by ascending passage ID so repeated queries order identically.
func fuse(keywordScores, semanticScores map[string]float64, keywordWeight, semanticWeight float64) []fusedResult {
	scoreMap := make(map[string]*fusedResult)
	for id, score := range keywordScores {
		scoreMap[id] = &fusedResult{PassageID: id, KeywordScore: score}
	}
	for id, score := range semanticScores {
		if r, exists := scoreMap[id]; exists {
			r.SemanticScore = score
		} else {
			scoreMap[id] = &fusedResult{PassageID: id, SemanticScore: score}
		}
	}
	results := make([]fusedResult, 0, len(scoreMap))
	for _, r := range scoreMap {
		r.Score = (keywordWeight * r.KeywordScore) + (semanticWeight * r.SemanticScore)
		results = append(results, *r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PassageID < results[j].PassageID
	})
	return results
}
