// Package web pkg/web/server.go implements the control panel's HTTP
// dispatcher: exact-match REST routes on gorilla/mux, a static-file fallback
// with a fixed 404 page, a WebSocket spectrum stream, and the Prometheus
// exposition endpoint.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpx "github.com/cyberasio/core/pkg/http"
	"github.com/cyberasio/core/pkg/metrics"
)

// Config holds the server's own settings. MaxConcurrent and RateLimit are
// zero for unbounded.
type Config struct {
	ListenAddr    string
	StaticDir     string
	MaxConcurrent int
	RateLimit     float64
}

// Options wires the server's collaborators. Engine, Devices, Settings and
// History may each be nil; the affected routes then answer 503.
type Options struct {
	Config    Config
	Engine    AudioEngine
	Devices   DeviceService
	Settings  SettingsService
	History   HistoryService
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

// Server dispatches HTTP requests to route handlers or the static fallback.
// The route table is built once at construction and read-only afterwards.
type Server struct {
	cfg      Config
	router   *mux.Router
	srv      *http.Server
	listener net.Listener

	engine   AudioEngine
	devices  DeviceService
	settings SettingsService
	history  HistoryService

	collector *metrics.Collector
	gatherer  prometheus.Gatherer
	upgrader  websocket.Upgrader
	log       *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// NewServer builds the server and registers all routes.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		cfg:       opts.Config,
		router:    mux.NewRouter(),
		engine:    opts.Engine,
		devices:   opts.Devices,
		settings:  opts.Settings,
		history:   opts.History,
		collector: opts.Collector,
		gatherer:  opts.Gatherer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:  opts.Logger,
		done: make(chan struct{}),
	}

	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(
		httpx.RequestID,
		httpx.RequestLogger(s.log, s.collector),
		httpx.CORS,
		httpx.Limit(s.cfg.MaxConcurrent, s.cfg.RateLimit),
	)

	s.AddRoute(http.MethodGet, "/api/devices", s.getDevices)
	s.AddRoute(http.MethodGet, "/api/config", s.getConfig)
	s.AddRoute(http.MethodPost, "/api/config", s.postConfig)
	s.AddRoute(http.MethodGet, "/api/status", s.getStatus)
	s.AddRoute(http.MethodPost, "/api/audio/play", s.playAudio)
	s.AddRoute(http.MethodPost, "/api/audio/pause", s.pauseAudio)
	s.AddRoute(http.MethodPost, "/api/audio/stop", s.stopAudio)
	s.AddRoute(http.MethodGet, "/api/metrics", s.getMetrics)
	s.AddRoute(http.MethodGet, "/api/metrics/history", s.getHistory)
	s.AddRoute(http.MethodPost, "/api/devices/activate", s.activateDevice)
	s.AddRoute(http.MethodGet, "/api/spectrum/ws", s.streamSpectrum)

	if s.gatherer != nil {
		s.router.Handle("/metrics",
			promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Everything the route table misses falls through here, including
	// method mismatches on registered paths.
	s.router.PathPrefix("/").HandlerFunc(s.serveStatic)
}

// AddRoute registers handler for an exact method and path match. Matching
// considers the path portion only; query strings never participate.
func (s *Server) AddRoute(method, path string, handler http.HandlerFunc) {
	s.router.HandleFunc(path, handler).Methods(method)
}

// Handler exposes the routing tree, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listen address and begins serving. The bind result is
// returned synchronously so a taken port fails startup; serving continues in
// the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.cfg.ListenAddr, err)
	}

	s.listener = ln
	s.log.Info("web server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("static_dir", s.cfg.StaticDir))

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("web server stopped unexpectedly", zap.Error(err))
		}
	}()

	return nil
}

// Stop drains in-flight requests until ctx expires, then force-closes
// whatever remains. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })

	if err := s.srv.Shutdown(ctx); err != nil {
		_ = s.srv.Close()

		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

// Addr returns the bound address once Start has succeeded, which matters
// when listening on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.ListenAddr
	}

	return s.listener.Addr().String()
}
