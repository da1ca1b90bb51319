package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultCity     = "Navi Mumbai"
	DefaultTimezone = "Asia/Kolkata"
)

type Config struct {
	WeatherAPIKey   string
	WeatherURL      string
	WeatherCacheTTL time.Duration
	DefaultCity     string
	Timezone        string

	JokeURL       string
	YouTubeAPIKey string

	GoogleCredentialsFile string
	GoogleTokenFile       string
	CalendarID            string
	OAuthRedirectURL      string

	ReminderBackend string
	ReminderFile    string
	ReminderDB      string

	ProviderTimeout time.Duration
	SocksProxy      string

	RateLimitRPM   int
	RateLimitBurst int
}

// Load reads envFile (if it exists) into the process environment and builds
// a Config from it. Variables already set in the environment win.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		WeatherAPIKey:         os.Getenv("OPENWEATHERMAP_API_KEY"),
		WeatherURL:            getenv("WEATHER_API_URL", "https://api.openweathermap.org"),
		DefaultCity:           getenv("DEFAULT_CITY", DefaultCity),
		Timezone:              getenv("YOUR_TIMEZONE", DefaultTimezone),
		JokeURL:               getenv("JOKE_API_URL", "https://icanhazdadjoke.com/"),
		YouTubeAPIKey:         os.Getenv("YOUTUBE_API_KEY"),
		GoogleCredentialsFile: getenv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		GoogleTokenFile:       getenv("GOOGLE_TOKEN_FILE", "token.json"),
		CalendarID:            getenv("GOOGLE_CALENDAR_ID", "primary"),
		OAuthRedirectURL:      getenv("OAUTH_REDIRECT_URL", "http://127.0.0.1:5000/oauth2/callback"),
		ReminderBackend:       strings.ToLower(getenv("REMINDER_BACKEND", "json")),
		ReminderFile:          getenv("REMINDER_FILE", "reminders.json"),
		ReminderDB:            getenv("REMINDER_DB", "reminders.db"),
		SocksProxy:            os.Getenv("SOCKS_PROXY"),
	}

	var err error
	if cfg.WeatherCacheTTL, err = durationEnv("WEATHER_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ProviderTimeout, err = durationEnv("PROVIDER_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ProviderTimeout <= 0 {
		return Config{}, fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", cfg.ProviderTimeout)
	}
	if cfg.RateLimitRPM, err = intEnv("RATE_LIMIT_RPM", 120); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 20); err != nil {
		return Config{}, err
	}

	switch cfg.ReminderBackend {
	case "json", "sqlite", "memory":
	default:
		return Config{}, fmt.Errorf("unknown REMINDER_BACKEND %q", cfg.ReminderBackend)
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Warn("Invalid timezone, using UTC", "timezone", c.Timezone, "err", err)
		return time.UTC
	}
	return loc
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", key, n)
	}
	return n, nil
}
