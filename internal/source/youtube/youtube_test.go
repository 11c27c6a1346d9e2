package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/trendharvest/internal/config"
)

func TestVideos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "28", q.Get("videoCategoryId"))
		assert.Equal(t, "solar|battery", q.Get("q"))
		assert.Equal(t, "US", q.Get("regionCode"))
		assert.Equal(t, "k", q.Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [
			{"id": {"videoId": "v1"}}, {"id": {"videoId": "v2"}}, {"id": {"videoId": "v1"}}, {"id": {}}
		]}`))
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v1,v2", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [
			{"id": "v1", "snippet": {"title": "Solar 101", "channelTitle": "Sunny", "publishedAt": "2024-03-01T12:00:00Z", "categoryId": "28"},
			 "statistics": {"viewCount": "1500", "likeCount": "20", "commentCount": "3"}},
			{"id": "v2", "snippet": {"title": "Batteries", "channelTitle": "Volt", "categoryId": "28"},
			 "statistics": {"viewCount": "99"}}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(config.YouTubeConfig{APIKey: "k", BaseURL: srv.URL, Region: "US", MaxResults: 15}, time.Second)
	videos, err := c.Videos(context.Background(), "28", []string{"solar", "battery"})
	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Equal(t, "v1", videos[0].VideoID)
	assert.Equal(t, "Sunny", videos[0].ChannelTitle)
	assert.Equal(t, int64(1500), videos[0].ViewCount)
	assert.Equal(t, int64(20), videos[0].LikeCount)
	require.NotNil(t, videos[0].PublishedAt)
	assert.Equal(t, 2024, videos[0].PublishedAt.Year())

	assert.Equal(t, int64(0), videos[1].LikeCount)
	assert.Nil(t, videos[1].PublishedAt)
}

func TestVideosNoSearchResults(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	c := New(config.YouTubeConfig{APIKey: "k", BaseURL: srv.URL}, time.Second)
	videos, err := c.Videos(context.Background(), "24", []string{"anything"})
	require.NoError(t, err)
	assert.Empty(t, videos)
	assert.Equal(t, 1, calls)
}

func TestVideosSearchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(config.YouTubeConfig{APIKey: "k", BaseURL: srv.URL}, time.Second)
	_, err := c.Videos(context.Background(), "24", []string{"anything"})
	assert.Error(t, err)
}
