package keywords

import (
	"math"
	"sort"
)

// Scorer ranks the terms of one tokenized document.
// Tokens arrive lowercased with stopwords already removed.
type Scorer interface {
	Name() string
	Score(tokens []string, maxTerms int) []Keyword
}

// tfidfScorer weights unigrams and bigrams with sublinear term frequency and
// L2 normalisation. With a single-document corpus the smoothed idf is 1 for
// every term, so only the tf part varies.
type tfidfScorer struct {
	minScore float64
}

func (s *tfidfScorer) Name() string { return ScorerTFIDF }

func (s *tfidfScorer) Score(tokens []string, maxTerms int) []Keyword {
	counts := make(map[string]int)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	weights := make(map[string]float64, len(counts))
	var norm float64
	for term, tf := range counts {
		w := 1 + math.Log(float64(tf))
		weights[term] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)

	ranked := make([]Keyword, 0, len(weights))
	for term, w := range weights {
		ranked = append(ranked, Keyword{Term: term, Score: w / norm})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Term < ranked[j].Term
	})

	return keepAbove(ranked, maxTerms, s.minScore)
}

// frequencyScorer counts unigrams and normalises by the most frequent one.
// Ties keep first-occurrence order.
type frequencyScorer struct {
	minScore float64
}

func (s *frequencyScorer) Name() string { return ScorerFrequency }

func (s *frequencyScorer) Score(tokens []string, maxTerms int) []Keyword {
	counts := make(map[string]int)
	var order []string
	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	if len(order) == 0 {
		return nil
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	top := float64(counts[order[0]])

	ranked := make([]Keyword, len(order))
	for i, term := range order {
		ranked[i] = Keyword{Term: term, Score: float64(counts[term]) / top}
	}
	return keepAbove(ranked, maxTerms, s.minScore)
}

// keepAbove truncates ranked to maxTerms and drops scores not above min.
func keepAbove(ranked []Keyword, maxTerms int, min float64) []Keyword {
	if maxTerms > 0 && len(ranked) > maxTerms {
		ranked = ranked[:maxTerms]
	}
	out := make([]Keyword, 0, len(ranked))
	for _, kw := range ranked {
		if kw.Score > min {
			out = append(out, kw)
		}
	}
	return out
}
