// Package similarity scores textual relatedness between item names.
package similarity

import "strings"

// DefaultThreshold is the minimum score BestMatch accepts unless told otherwise.
const DefaultThreshold = 0.3

// Similarity is the Jaccard coefficient of the lowercase whitespace-token sets of a and b.
// Two empty token sets score 0.
func Similarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}

	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Candidate is a named payload offered to BestMatch.
type Candidate[T any] struct {
	Name    string
	Payload T
}

// Match is the winning candidate's payload and its score.
type Match[T any] struct {
	Payload T
	Score   float64
}

// BestMatch returns the candidate most similar to query. The first candidate wins ties.
// ok is false when candidates is empty or the best score is below threshold.
func BestMatch[T any](query string, candidates []Candidate[T], threshold float64) (Match[T], bool) {
	var best Match[T]
	found := false
	for _, c := range candidates {
		score := Similarity(query, c.Name)
		if !found || score > best.Score {
			best = Match[T]{Payload: c.Payload, Score: score}
			found = true
		}
	}
	if !found || best.Score < threshold {
		return Match[T]{}, false
	}
	return best, true
}
