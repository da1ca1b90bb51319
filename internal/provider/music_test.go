package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestMusicWithoutKeyBuildsSearchLink(t *testing.T) {
	m, err := NewMusicClient(context.Background(), http.DefaultClient, "")
	require.NoError(t, err)

	track, err := m.Search(context.Background(), "bohemian rhapsody")
	require.NoError(t, err)
	assert.False(t, track.Direct)
	assert.Equal(t, "https://www.youtube.com/results?search_query=bohemian+rhapsody", track.URL)
}

func TestMusicSearchFirstVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/search"), r.URL.Path)
		assert.Equal(t, "yt-key", r.URL.Query().Get("key"))
		assert.Equal(t, "bohemian rhapsody", r.URL.Query().Get("q"))
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":{"kind":"youtube#video","videoId":"fJ9rUzIMcZQ"},"snippet":{"title":"Queen – Bohemian Rhapsody"}}]}`))
	}))
	defer srv.Close()

	m, err := NewMusicClient(context.Background(), srv.Client(), "yt-key", option.WithEndpoint(srv.URL+"/youtube/v3/"))
	require.NoError(t, err)

	track, err := m.Search(context.Background(), "bohemian rhapsody")
	require.NoError(t, err)
	assert.True(t, track.Direct)
	assert.Equal(t, "https://www.youtube.com/watch?v=fJ9rUzIMcZQ", track.URL)
	assert.Equal(t, "Queen – Bohemian Rhapsody", track.Title)
}

func TestMusicSearchNoResultsFallsBackToLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	m, err := NewMusicClient(context.Background(), srv.Client(), "yt-key", option.WithEndpoint(srv.URL+"/youtube/v3/"))
	require.NoError(t, err)

	track, err := m.Search(context.Background(), "nothing at all")
	require.NoError(t, err)
	assert.False(t, track.Direct)
	assert.Equal(t, SearchURL("nothing at all"), track.URL)
}
