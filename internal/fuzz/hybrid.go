package fuzz

import (
	"math"
	"strings"
)

// Hybrid scorer tuning. Changing any of these silently changes result ranking.
const (
	RatioWeight    = 0.1
	PartialWeight  = 0.4
	TokenSetWeight = 0.1
	WRatioWeight   = 0.2

	// the leading-characters similarity is scaled to 0..FirstLetterScale and only counts above the threshold
	FirstLetterScale     = 120.0
	FirstLetterThreshold = 66.0
	FirstLetterWeight    = 0.2

	MaxScore = 100.0
)

// Scorer rates how well candidate matches query on a 0..100 scale.
type Scorer func(query, candidate string) float64

// HybridScore: place-name similarity of candidate to query, 0..100
// Partial matching dominates the weighted base since names are usually typed as fragments. A bonus
// for similar leading characters pulls candidates that start like the query above long names that
// merely contain it somewhere.
// HybridScore(s, s) == 100 for any non-empty s; HybridScore("", "") == 80 since the bonus needs two
// non-empty strings; HybridScore("", s) == 0.
func HybridScore(query, candidate string) float64 {
	score := RatioWeight*float64(Ratio(query, candidate)) +
		PartialWeight*float64(PartialRatio(query, candidate)) +
		TokenSetWeight*float64(TokenSetRatio(query, candidate)) +
		WRatioWeight*float64(WRatio(query, candidate))
	if bonus := FirstLetterSimilarity(query, candidate); bonus > FirstLetterThreshold {
		score += bonus * FirstLetterWeight
	}
	return math.Min(score, MaxScore)
}

// FirstLetterSimilarity compares the first min(len) characters of both strings, case-insensitively,
// scaled to 0..FirstLetterScale. Either string empty gives 0.
func FirstLetterSimilarity(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0
	}
	q, c := []rune(query), []rune(candidate)
	n := min(len(q), len(c))
	return sequenceRatio(strings.ToLower(string(q[:n])), strings.ToLower(string(c[:n]))) * FirstLetterScale
}
