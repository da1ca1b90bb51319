package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const userAgent = "voxgate"

type JokeClient struct {
	http    *http.Client
	baseURL string
}

func NewJokeClient(hc *http.Client, baseURL string) *JokeClient {
	return &JokeClient{http: hc, baseURL: baseURL}
}

func (j *JokeClient) Random(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.baseURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := j.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("joke request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var data struct {
		Joke string `json:"joke"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	joke := strings.TrimSpace(data.Joke)
	if joke == "" {
		return "", fmt.Errorf("%w: missing joke field", ErrMalformed)
	}
	return joke, nil
}
