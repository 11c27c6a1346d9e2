package taxonomy

import (
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Confidence values assigned outside the overlap path.
const (
	HeuristicConfidence = 0.6
	DefaultConfidence   = 0.4
)

// DefaultOverlapThreshold is the overlap score below which keyword families apply.
const DefaultOverlapThreshold = 0.3

const (
	defaultCategoryName = "News"
	defaultCategoryID   = 16
	defaultExternalID   = "24"
)

// Resolution methods.
const (
	MethodOverlap   = "overlap"
	MethodHeuristic = "heuristic"
	MethodDefault   = "default"
	MethodEmpty     = "empty"
)

// Resolution is the outcome of topic classification.
type Resolution struct {
	Name       string
	InternalID int
	Confidence float64
	Method     string
}

// family maps a set of substrings to a result. Families are tried in order.
type family struct {
	words      []string
	name       string
	internalID int
	externalID string
}

var topicFamilies = []family{
	{words: []string{"tech", "software", "ai", "computer", "digital"}, name: "Computers & Electronics", internalID: 5},
	{words: []string{"business", "marketing", "finance", "investment"}, name: "Business & Industrial", internalID: 12},
	{words: []string{"health", "medical", "fitness", "wellness"}, name: "Health", internalID: 45},
	{words: []string{"food", "recipe", "restaurant", "cooking"}, name: "Food & Drink", internalID: 71},
}

var externalFamilies = []family{
	{words: []string{"tech", "computer", "science"}, externalID: "28"},
	{words: []string{"game", "gaming"}, externalID: "20"},
	{words: []string{"music", "entertainment"}, externalID: "24"},
	{words: []string{"news", "politics"}, externalID: "25"},
	{words: []string{"sport", "fitness"}, externalID: "17"},
}

// familyMatcher finds the first family with any substring present.
// The underlying matcher keeps per-scan state, so scans are serialised.
type familyMatcher struct {
	mu       sync.Mutex
	matcher  *ahocorasick.Matcher
	families []family
	owner    []int // dictionary index -> family index
}

func newFamilyMatcher(families []family) *familyMatcher {
	var dict []string
	var owner []int
	for i, f := range families {
		for _, w := range f.words {
			dict = append(dict, w)
			owner = append(owner, i)
		}
	}
	return &familyMatcher{
		matcher:  ahocorasick.NewStringMatcher(dict),
		families: families,
		owner:    owner,
	}
}

func (m *familyMatcher) first(text string) (family, bool) {
	m.mu.Lock()
	hits := m.matcher.Match([]byte(text))
	m.mu.Unlock()

	best := -1
	for _, h := range hits {
		if f := m.owner[h]; best == -1 || f < best {
			best = f
		}
	}
	if best == -1 {
		return family{}, false
	}
	return m.families[best], true
}

// Resolver maps text to a topic category and category names to external ids.
// It is safe for concurrent use.
type Resolver struct {
	taxonomy  *Taxonomy
	threshold float64
	topics    *familyMatcher
	externals *familyMatcher
}

// NewResolver builds a Resolver over tax. A nil tax uses the static table.
func NewResolver(tax *Taxonomy, threshold float64) *Resolver {
	if tax == nil {
		tax = Static()
	}
	return &Resolver{
		taxonomy:  tax,
		threshold: threshold,
		topics:    newFamilyMatcher(topicFamilies),
		externals: newFamilyMatcher(externalFamilies),
	}
}

// Taxonomy returns the category list the resolver matches against.
func (r *Resolver) Taxonomy() *Taxonomy {
	return r.taxonomy
}

// ResolveTopicCategory always returns a category.
// Word-set overlap against category names wins when it reaches the
// threshold; otherwise keyword families apply, and News is the default.
func (r *Resolver) ResolveTopicCategory(text string) Resolution {
	if strings.TrimSpace(text) == "" || r.taxonomy.Len() == 0 {
		return Resolution{Name: defaultCategoryName, InternalID: defaultCategoryID, Method: MethodEmpty}
	}

	lower := strings.ToLower(text)
	textWords := wordSet(lower)

	var best Resolution
	for _, c := range r.taxonomy.categories {
		catWords := wordSet(strings.ToLower(c.Name))
		overlap := 0
		for w := range catWords {
			if _, ok := textWords[w]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		score := float64(overlap) / float64(max(len(textWords), len(catWords)))
		if score > best.Confidence {
			best = Resolution{Name: c.Name, InternalID: c.InternalID, Confidence: score, Method: MethodOverlap}
		}
	}
	if best.Confidence >= r.threshold && best.Name != "" {
		return best
	}

	if f, ok := r.topics.first(lower); ok {
		return Resolution{Name: f.name, InternalID: f.internalID, Confidence: HeuristicConfidence, Method: MethodHeuristic}
	}
	return Resolution{Name: defaultCategoryName, InternalID: defaultCategoryID, Confidence: DefaultConfidence, Method: MethodDefault}
}

// ResolveExternalCategory returns the video platform category id for a
// category name, defaulting to entertainment.
func (r *Resolver) ResolveExternalCategory(name string) string {
	for _, c := range staticCategories {
		if c.Name == name {
			return c.ExternalID
		}
	}
	if c, ok := r.taxonomy.Lookup(name); ok && c.ExternalID != "" {
		return c.ExternalID
	}
	if f, ok := r.externals.first(strings.ToLower(name)); ok {
		return f.externalID
	}
	return defaultExternalID
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
