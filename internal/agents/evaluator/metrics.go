package evaluator

import (
	"math"
	"strings"
	"unicode"
)

// bleuSmoothingEpsilon replaces a zero n-gram precision numerator so the
// geometric mean never collapses to zero on short candidates.
const bleuSmoothingEpsilon = 0.1

// maxNGramOrder caps BLEU at 4-grams.
const maxNGramOrder = 4

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

// bleuScore computes a smoothed sentence-level BLEU of the candidate against
// a single reference: geometric mean of 1..4-gram modified precisions with a
// brevity penalty. A zero precision numerator is smoothed with a small
// epsilon instead of zeroing the whole score.
func bleuScore(reference, candidate []string) float64 {
	if len(candidate) == 0 || len(reference) == 0 {
		return 0
	}

	logSum := 0.0
	orders := 0
	for n := 1; n <= maxNGramOrder; n++ {
		if len(candidate) < n {
			break
		}
		orders++

		refCounts := ngramCounts(reference, n)
		candCounts := ngramCounts(candidate, n)

		matches := 0.0
		total := 0.0
		for gram, count := range candCounts {
			total += float64(count)
			if refCount, ok := refCounts[gram]; ok {
				matches += math.Min(float64(count), float64(refCount))
			}
		}
		if matches == 0 {
			matches = bleuSmoothingEpsilon
		}
		logSum += math.Log(matches / total)
	}
	if orders == 0 {
		return 0
	}

	precision := math.Exp(logSum / float64(orders))

	brevity := 1.0
	if len(candidate) < len(reference) {
		brevity = math.Exp(1 - float64(len(reference))/float64(len(candidate)))
	}

	return brevity * precision
}

func fMeasure(matches, candidateTotal, referenceTotal int) float64 {
	if matches == 0 || candidateTotal == 0 || referenceTotal == 0 {
		return 0
	}
	precision := float64(matches) / float64(candidateTotal)
	recall := float64(matches) / float64(referenceTotal)
	return 2 * precision * recall / (precision + recall)
}

// rouge1Score is the unigram-overlap f-measure.
func rouge1Score(reference, candidate []string) float64 {
	refCounts := ngramCounts(reference, 1)
	candCounts := ngramCounts(candidate, 1)

	matches := 0
	for gram, count := range candCounts {
		if refCount, ok := refCounts[gram]; ok {
			if refCount < count {
				matches += refCount
			} else {
				matches += count
			}
		}
	}
	return fMeasure(matches, len(candidate), len(reference))
}

// rougeLScore is the longest-common-subsequence f-measure.
func rougeLScore(reference, candidate []string) float64 {
	lcs := lcsLength(reference, candidate)
	return fMeasure(lcs, len(candidate), len(reference))
}

func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// cosineSimilarity returns exactly 0 for zero vectors, mismatched lengths,
// and numeric degenerate cases.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(similarity) {
		return 0
	}
	return similarity
}
