// Package keywords derives weighted terms from page text.
package keywords

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/timmy/trendharvest/internal/logger"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Scorer names accepted by Config.Scorer.
const (
	ScorerTFIDF     = "tfidf"
	ScorerFrequency = "frequency"
)

// Keyword is a term and its weight in [0, 1].
type Keyword struct {
	Term  string
	Score float64
}

// Config selects the scorer and its thresholds.
type Config struct {
	Scorer            string
	MinTextLength     int
	TFIDFMinScore     float64
	FrequencyMinScore float64
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Scorer:            ScorerTFIDF,
		MinTextLength:     50,
		TFIDFMinScore:     0.01,
		FrequencyMinScore: 0.05,
	}
}

// tokenPattern is matched against whole words. A word is a maximal run of
// Unicode letters, digits and underscores, so "café" is one word and is
// dropped rather than cut down to "caf".
var tokenPattern = regexp.MustCompile(`^[a-z][a-z0-9]{2,}$`)

// Extractor tokenizes text and ranks terms with the configured Scorer. The
// frequency scorer backs up the primary one when it yields nothing or panics.
type Extractor struct {
	primary       Scorer
	fallback      Scorer
	stopwords     map[string]struct{}
	minTextLength int
}

// New builds an Extractor from cfg.
func New(cfg Config) (*Extractor, error) {
	freq := &frequencyScorer{minScore: cfg.FrequencyMinScore}

	var primary Scorer
	switch cfg.Scorer {
	case ScorerTFIDF, "":
		primary = &tfidfScorer{minScore: cfg.TFIDFMinScore}
	case ScorerFrequency:
		primary = freq
	default:
		return nil, fmt.Errorf("unknown keyword scorer %q", cfg.Scorer)
	}

	return &Extractor{
		primary:       primary,
		fallback:      freq,
		stopwords:     defaultStopwords(),
		minTextLength: cfg.MinTextLength,
	}, nil
}

// ScorerName reports the primary scorer in use.
func (e *Extractor) ScorerName() string {
	return e.primary.Name()
}

// Extract returns at most maxTerms keywords ordered by descending score.
// Text shorter than the minimum length yields nil.
func (e *Extractor) Extract(text string, maxTerms int) []Keyword {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < e.minTextLength {
		return nil
	}

	tokens := e.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	if kws := e.safeScore(e.primary, tokens, maxTerms); len(kws) > 0 || e.primary == e.fallback {
		return kws
	}
	return e.safeScore(e.fallback, tokens, maxTerms)
}

// Tokenize lowercases text and returns its tokens in order, minus stopwords.
func (e *Extractor) Tokenize(text string) []string {
	// Casers carry state, so each call gets its own.
	words := strings.FieldsFunc(cases.Lower(language.Und).String(text), isWordBreak)
	tokens := words[:0]
	for _, w := range words {
		if !tokenPattern.MatchString(w) {
			continue
		}
		if _, stop := e.stopwords[w]; !stop {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

func isWordBreak(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

func (e *Extractor) safeScore(s Scorer, tokens []string, maxTerms int) (kws []Keyword) {
	defer func() {
		if r := recover(); r != nil {
			logger.With(logger.Fields{logger.FieldComponent: "keywords"}).
				Error(context.Background(), "Scorer %s panicked: %v", s.Name(), r)
			kws = nil
		}
	}()
	return s.Score(tokens, maxTerms)
}
