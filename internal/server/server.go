package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxgate/internal/metrics"
)

// Dispatcher turns one query into one reply.
type Dispatcher interface {
	Handle(ctx context.Context, text string) string
}

// ConsentExchanger completes the calendar OAuth consent flow.
type ConsentExchanger interface {
	Exchange(ctx context.Context, state, code string) error
}

type Config struct {
	Addr           string
	RateLimitRPM   int
	RateLimitBurst int
	Metrics        *metrics.Metrics
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type Server struct {
	dispatcher Dispatcher
	consent    ConsentExchanger
	cfg        Config

	engine   *gin.Engine
	upgrader websocket.Upgrader
	// limiter is nil when rate limiting is disabled.
	limiter *rateLimiter
	http    *http.Server
}

//go:embed static/index.html
var indexHTML []byte

//go:embed static/app.js
var appJS []byte

// New wires the HTTP routes. consent may be nil when the calendar is not
// configured.
func New(d Dispatcher, consent ConsentExchanger, cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(cfg.Metrics))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.AllowWebSockets = true
	engine.Use(cors.New(corsConfig))

	s := &Server{
		dispatcher: d,
		consent:    consent,
		cfg:        cfg,
		engine:     engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are already open through CORS.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	if cfg.RateLimitRPM > 0 {
		s.limiter = newRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	limited := s.engine.Group("/")
	if s.limiter != nil {
		limited.Use(rateLimit(s.limiter))
	}
	limited.POST("/process", s.handleProcess)
	limited.GET("/ws", s.handleWS)

	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/static/app.js", s.handleAppJS)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/oauth2/callback", s.handleOAuthCallback)

	if s.cfg.Gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", s.cfg.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("HTTP server shutting down")
	return s.http.Shutdown(shutdownCtx)
}
