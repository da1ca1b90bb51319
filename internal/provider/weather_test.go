package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const londonJSON = `{
	"cod": 200,
	"name": "London",
	"weather": [{"main": "Clear", "description": "clear sky"}],
	"main": {"temp": 20.0, "feels_like": 19.2, "humidity": 40},
	"wind": {"speed": 3.5}
}`

func TestWeatherCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("appid"))
		assert.Equal(t, "london", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(londonJSON))
	}))
	defer srv.Close()

	c := NewWeatherClient(srv.Client(), srv.URL+"/", "key", 0)
	r, err := c.Current(context.Background(), "london")
	require.NoError(t, err)

	assert.Equal(t, "London", r.City)
	assert.Equal(t, "Clear", r.Condition)
	assert.Equal(t, "clear sky", r.Description)
	assert.Equal(t, 20.0, r.Temp)
	require.NotNil(t, r.FeelsLike)
	assert.Equal(t, 19.2, *r.FeelsLike)
	require.NotNil(t, r.Humidity)
	assert.Equal(t, 40, *r.Humidity)
	require.NotNil(t, r.WindSpeed)
	assert.Equal(t, 3.5, *r.WindSpeed)
}

func TestWeatherErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found status", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, ErrCityNotFound},
		{"not found cod", http.StatusOK, `{"cod":"404","message":"city not found"}`, ErrCityNotFound},
		{"unauthorized", http.StatusUnauthorized, `{"cod":401}`, ErrUnauthorized},
		{"bad json", http.StatusOK, `{"cod":`, ErrMalformed},
		{"no temperature", http.StatusOK, `{"cod":200,"main":{}}`, ErrMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewWeatherClient(srv.Client(), srv.URL, "key", 0).Current(context.Background(), "atlantis")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestWeatherServerErrorIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewWeatherClient(srv.Client(), srv.URL, "key", 0).Current(context.Background(), "paris")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func TestWeatherWithoutKey(t *testing.T) {
	_, err := NewWeatherClient(http.DefaultClient, "http://unused", "", 0).Current(context.Background(), "paris")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestWeatherCachesPerCity(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(londonJSON))
	}))
	defer srv.Close()

	c := NewWeatherClient(srv.Client(), srv.URL, "key", time.Minute)
	ctx := context.Background()

	_, err := c.Current(ctx, "London")
	require.NoError(t, err)
	_, err = c.Current(ctx, "london ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	_, err = c.Current(ctx, "paris")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
