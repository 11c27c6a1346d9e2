package taxonomy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/timmy/trendharvest/internal/domain"
)

func TestResolveTopicCategory(t *testing.T) {
	r := NewResolver(Static(), DefaultOverlapThreshold)

	tests := []struct {
		name       string
		text       string
		wantName   string
		wantID     int
		wantConf   float64
		wantMethod string
	}{
		{"keyword family for tech terms", "ai software technology", "Computers & Electronics", 5, 0.6, MethodHeuristic},
		{"default when nothing matches", "quiet river stones", "News", 16, 0.4, MethodDefault},
		{"exact category name", "finance", "Finance", 7, 1.0, MethodOverlap},
		{"first best category wins ties", "sports news", "News", 16, 0.5, MethodOverlap},
		{"weak overlap falls through to families", "health tips for busy parents and kids", "Health", 45, 0.6, MethodHeuristic},
		{"business family", "seo marketing agency", "Business & Industrial", 12, 0.6, MethodHeuristic},
		{"food family", "best pizza restaurant downtown", "Food & Drink", 71, 0.6, MethodHeuristic},
		{"empty text", "   ", "News", 16, 0.0, MethodEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolveTopicCategory(tt.text)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantID, got.InternalID)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			assert.Equal(t, tt.wantMethod, got.Method)
		})
	}
}

func TestResolveTopicCategoryFamilyOrder(t *testing.T) {
	r := NewResolver(Static(), DefaultOverlapThreshold)

	// both the tech and the health families match; tech is tried first
	got := r.ResolveTopicCategory("digital wellness coaching")
	assert.Equal(t, "Computers & Electronics", got.Name)
}

func TestResolveTopicCategoryThresholdIsConfigurable(t *testing.T) {
	text := "health tips for busy parents and kids"

	strict := NewResolver(Static(), DefaultOverlapThreshold)
	assert.Equal(t, MethodHeuristic, strict.ResolveTopicCategory(text).Method)

	lenient := NewResolver(Static(), 0.1)
	got := lenient.ResolveTopicCategory(text)
	assert.Equal(t, MethodOverlap, got.Method)
	assert.Equal(t, "Health", got.Name)
	assert.InDelta(t, 1.0/7.0, got.Confidence, 1e-9)
}

func TestResolveTopicCategoryWithFixtureTaxonomy(t *testing.T) {
	tax := New([]domain.Category{
		{Name: "Solar Energy", InternalID: 900},
		{Name: "Roofing", InternalID: 901},
	}, "fixture")
	r := NewResolver(tax, DefaultOverlapThreshold)

	got := r.ResolveTopicCategory("roofing")
	assert.Equal(t, "Roofing", got.Name)
	assert.Equal(t, 901, got.InternalID)
	assert.Equal(t, "fixture", r.Taxonomy().Source())
}

func TestResolveExternalCategory(t *testing.T) {
	r := NewResolver(Static(), DefaultOverlapThreshold)

	tests := []struct {
		name string
		want string
	}{
		{"Games", "20"},
		{"Computers & Electronics", "28"},
		{"Pets & Animals", "15"},
		{"Travel", "19"},
		{"Video Gaming Culture", "20"},
		{"Science & Tech Stuff", "28"},
		{"Live Music", "24"},
		{"World Politics", "25"},
		{"Sport Clubs", "17"},
		{"Gardening Tips", "24"},
		{"", "24"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveExternalCategory(tt.name))
		})
	}
}

func TestResolverConcurrentUse(t *testing.T) {
	r := NewResolver(Static(), DefaultOverlapThreshold)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Equal(t, "Computers & Electronics", r.ResolveTopicCategory("ai software technology").Name)
				assert.Equal(t, "20", r.ResolveExternalCategory("gaming news"))
			}
		}()
	}
	wg.Wait()
}
