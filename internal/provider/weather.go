package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
)

type Report struct {
	City        string
	Condition   string
	Description string
	Temp        float64
	FeelsLike   *float64
	Humidity    *int
	WindSpeed   *float64
}

// WeatherClient talks to the OpenWeatherMap current weather endpoint.
type WeatherClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	cache   *cache.Cache
}

// NewWeatherClient caches successful reports per city for ttl; a zero ttl
// disables caching.
func NewWeatherClient(hc *http.Client, baseURL, apiKey string, ttl time.Duration) *WeatherClient {
	w := &WeatherClient{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
	if ttl > 0 {
		w.cache = cache.New(ttl, 2*ttl)
	}
	return w
}

type owmResponse struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
	Name    string          `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

func (w *WeatherClient) Current(ctx context.Context, city string) (Report, error) {
	if w.apiKey == "" {
		return Report{}, ErrNotConfigured
	}
	city = strings.TrimSpace(city)
	key := strings.ToLower(city)

	if w.cache != nil {
		if cached, ok := w.cache.Get(key); ok {
			return cached.(Report), nil
		}
	}

	q := url.Values{}
	q.Set("appid", w.apiKey)
	q.Set("q", city)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return Report{}, err
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return Report{}, ErrUnauthorized
	case http.StatusNotFound:
		return Report{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
	default:
		return Report{}, statusError(resp)
	}

	var data owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	// cod is a number on success and sometimes a string on errors.
	code := strings.Trim(string(data.Cod), `"`)
	if code != "" && code != "200" {
		if n, _ := strconv.Atoi(code); n == http.StatusNotFound {
			return Report{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
		}
		return Report{}, fmt.Errorf("weather api error %s: %s", code, data.Message)
	}
	if data.Main.Temp == nil {
		return Report{}, fmt.Errorf("%w: missing temperature for %s", ErrMalformed, city)
	}

	r := Report{
		City:      data.Name,
		Temp:      *data.Main.Temp,
		FeelsLike: data.Main.FeelsLike,
		Humidity:  data.Main.Humidity,
		WindSpeed: data.Wind.Speed,
	}
	if r.City == "" {
		r.City = city
	}
	if len(data.Weather) > 0 {
		r.Condition = data.Weather[0].Main
		r.Description = data.Weather[0].Description
	}

	if w.cache != nil {
		w.cache.Set(key, r, cache.DefaultExpiration)
	}
	return r, nil
}
