package gnews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/trendharvest/internal/config"
)

func TestArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, `"coffee" OR "cold brew"`, q.Get("q"))
		assert.Equal(t, "en", q.Get("lang"))
		assert.Equal(t, "us", q.Get("country"))
		assert.Equal(t, "10", q.Get("max"))
		assert.Equal(t, "g", q.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalArticles": 1, "articles": [
			{"title": "Cold brew boom", "description": "Sales up", "url": "https://n.example/1",
			 "publishedAt": "2024-05-02T10:30:00Z", "source": {"name": "Daily Grind"}}
		]}`))
	}))
	defer srv.Close()

	c := New(config.NewsConfig{GNewsAPIKey: "g", GNewsBaseURL: srv.URL, Country: "us", Language: "en", MaxResults: 10}, time.Second)
	articles, err := c.Articles(context.Background(), "Food & Drink", []string{"coffee", "cold brew"})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "Cold brew boom", a.Title)
	assert.Equal(t, "Daily Grind", a.Source)
	assert.Equal(t, "Sales up", a.Snippet)
	require.NotNil(t, a.PublishedAt)
	assert.Equal(t, time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC), *a.PublishedAt)
}

func TestArticlesNoTermsSkipsRequest(t *testing.T) {
	c := New(config.NewsConfig{GNewsAPIKey: "g", GNewsBaseURL: "http://127.0.0.1:1"}, time.Second)
	articles, err := c.Articles(context.Background(), "News", []string{" ", ""})
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestQuery(t *testing.T) {
	assert.Equal(t, `"a" OR "b c"`, Query([]string{"a", `"b c"`, ""}))

	long := strings.Repeat("x", 120)
	q := Query([]string{long, long})
	assert.Equal(t, `"`+long+`"`, q)
}
