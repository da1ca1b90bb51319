package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENWEATHERMAP_API_KEY", "WEATHER_API_URL", "WEATHER_CACHE_TTL", "DEFAULT_CITY",
		"YOUR_TIMEZONE", "JOKE_API_URL", "YOUTUBE_API_KEY", "GOOGLE_CREDENTIALS_FILE",
		"GOOGLE_TOKEN_FILE", "GOOGLE_CALENDAR_ID", "OAUTH_REDIRECT_URL", "REMINDER_BACKEND",
		"REMINDER_FILE", "REMINDER_DB", "PROVIDER_TIMEOUT", "SOCKS_PROXY",
		"RATE_LIMIT_RPM", "RATE_LIMIT_BURST",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, DefaultCity, cfg.DefaultCity)
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	assert.Equal(t, "json", cfg.ReminderBackend)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 10*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, 120, cfg.RateLimitRPM)
	assert.Empty(t, cfg.WeatherAPIKey)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range []string{"OPENWEATHERMAP_API_KEY", "DEFAULT_CITY", "PROVIDER_TIMEOUT"} {
		require.NoError(t, os.Unsetenv(k))
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "OPENWEATHERMAP_API_KEY=abc\nDEFAULT_CITY=London\nPROVIDER_TIMEOUT=2s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("OPENWEATHERMAP_API_KEY")
		os.Unsetenv("DEFAULT_CITY")
		os.Unsetenv("PROVIDER_TIMEOUT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.WeatherAPIKey)
	assert.Equal(t, "London", cfg.DefaultCity)
	assert.Equal(t, 2*time.Second, cfg.ProviderTimeout)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string][2]string{
		"bad duration": {"PROVIDER_TIMEOUT", "soon"},
		"zero timeout": {"PROVIDER_TIMEOUT", "0s"},
		"bad int":      {"RATE_LIMIT_RPM", "many"},
		"negative int": {"RATE_LIMIT_BURST", "-1"},
		"bad backend":  {"REMINDER_BACKEND", "redis"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Config{Timezone: "Mars/Olympus"}.Location())

	loc := Config{Timezone: "Europe/London"}.Location()
	assert.Equal(t, "Europe/London", loc.String())
}
