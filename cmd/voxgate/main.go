package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"voxgate/internal/calendar"
	"voxgate/internal/config"
	"voxgate/internal/ipc"
	"voxgate/internal/metrics"
	"voxgate/internal/nlu"
	"voxgate/internal/provider"
	"voxgate/internal/proxy"
	"voxgate/internal/reminder"
	"voxgate/internal/server"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	addr := cli.StringP("addr", "a", "127.0.0.1:5000", "HTTP listen address")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address, overrides SOCKS_PROXY")
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path, empty disables it")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if *proxyAddr != "" {
		cfg.SocksProxy = *proxyAddr
	}

	httpClient, err := proxy.NewHTTPClient(cfg.SocksProxy, cfg.ProviderTimeout)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.SocksProxy, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	if cfg.WeatherAPIKey == "" {
		log.Warn("OPENWEATHERMAP_API_KEY not set, weather is disabled")
	}
	weather := provider.NewWeatherClient(httpClient, cfg.WeatherURL, cfg.WeatherAPIKey, cfg.WeatherCacheTTL)

	if cfg.YouTubeAPIKey == "" {
		log.Warn("YOUTUBE_API_KEY not set, music replies carry a search link")
	}
	music, err := provider.NewMusicClient(ctx, httpClient, cfg.YouTubeAPIKey)
	if err != nil {
		log.Error("Failed to init music search", "err", err)
		os.Exit(1)
	}

	store, closeStore, err := openReminders(cfg)
	if err != nil {
		log.Error("Failed to open reminder store", "backend", cfg.ReminderBackend, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	deps := nlu.Deps{
		Weather:   weather,
		Jokes:     provider.NewJokeClient(httpClient, cfg.JokeURL),
		Music:     music,
		Reminders: store,
		Metrics:   m,
	}

	// Left as a nil interface when the calendar is unavailable.
	var consent server.ConsentExchanger
	cal, err := calendar.NewFromSecretsFile(
		cfg.GoogleCredentialsFile,
		cfg.OAuthRedirectURL,
		calendar.NewFileTokenStore(cfg.GoogleTokenFile),
		calendar.Options{CalendarID: cfg.CalendarID, Location: loc, HTTPClient: httpClient},
	)
	switch {
	case err == nil:
		deps.Calendar = cal
		consent = cal
		log.Debug("Loaded calendar", "calendar", cfg.CalendarID)
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("Google credentials file not found, calendar is disabled", "path", cfg.GoogleCredentialsFile)
	default:
		log.Warn("Failed to load Google credentials, calendar is disabled", "err", err)
	}

	dispatcher := nlu.New(deps, nlu.Options{
		DefaultCity: cfg.DefaultCity,
		Location:    loc,
		Timeout:     cfg.ProviderTimeout,
	})

	if *socket != "" {
		ctl, err := ipc.StartServer(*socket, dispatcher.Handle)
		if err != nil {
			log.Error("Failed ipc server", "err", err)
			os.Exit(1)
		}
		defer ctl.Close()
	}

	srv := server.New(dispatcher, consent, server.Config{
		Addr:           *addr,
		RateLimitRPM:   cfg.RateLimitRPM,
		RateLimitBurst: cfg.RateLimitBurst,
		Metrics:        m,
		Gatherer:       registry,
	})

	log.Info("Boot up - successful", "timezone", loc.String(), "reminders", cfg.ReminderBackend)

	if err := srv.Run(ctx); err != nil {
		log.Error("Server failed", "err", err)
		os.Exit(1)
	}
	log.Info("Bye")
}

func openReminders(cfg config.Config) (reminder.Store, func(), error) {
	switch cfg.ReminderBackend {
	case "sqlite":
		s, err := reminder.NewSQLiteStore(cfg.ReminderDB)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Warn("Failed to close reminder db", "err", err)
			}
		}, nil
	case "memory":
		return reminder.NewMemoryStore(), func() {}, nil
	default:
		return reminder.NewFileStore(cfg.ReminderFile), func() {}, nil
	}
}
