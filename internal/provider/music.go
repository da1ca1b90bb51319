package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type Track struct {
	Title string
	URL   string
	// Direct is true when URL points at a single video rather than a
	// search results page.
	Direct bool
}

// MusicClient finds videos on YouTube. Without an API key it only builds a
// search results link and never touches the network.
type MusicClient struct {
	svc *youtube.Service
}

func NewMusicClient(ctx context.Context, hc *http.Client, apiKey string, opts ...option.ClientOption) (*MusicClient, error) {
	if apiKey == "" {
		return &MusicClient{}, nil
	}

	// option.WithHTTPClient disables option.WithAPIKey, so the key rides on
	// the transport instead.
	keyed := &http.Client{
		Transport: &transport.APIKey{Key: apiKey, Transport: hc.Transport},
		Timeout:   hc.Timeout,
	}
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(keyed)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &MusicClient{svc: svc}, nil
}

func (m *MusicClient) Search(ctx context.Context, query string) (Track, error) {
	query = strings.TrimSpace(query)
	if m.svc == nil {
		return Track{Title: query, URL: SearchURL(query)}, nil
	}

	resp, err := m.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return Track{}, fmt.Errorf("youtube search: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.VideoId == "" {
		return Track{Title: query, URL: SearchURL(query)}, nil
	}

	item := resp.Items[0]
	t := Track{
		Title:  query,
		URL:    "https://www.youtube.com/watch?v=" + url.QueryEscape(item.Id.VideoId),
		Direct: true,
	}
	if item.Snippet != nil && item.Snippet.Title != "" {
		t.Title = item.Snippet.Title
	}
	return t, nil
}

func SearchURL(query string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
}
