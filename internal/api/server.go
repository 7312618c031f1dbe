package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/ozmo-core/internal/cleanlog"
	"github.com/nerrad567/ozmo-core/internal/events"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/config"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/logging"
	"github.com/nerrad567/ozmo-core/internal/metrics"
	"github.com/nerrad567/ozmo-core/internal/vacbot"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	Bot     *vacbot.Bot
	History *cleanlog.Repository // optional: clean-log and status history reads
	Metrics *metrics.Metrics     // optional: served on /metrics when set
	Version string
}

// Server is the HTTP API server for Ozmo Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	bot      *vacbot.Bot
	history  *cleanlog.Repository
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	version  string
	server   *http.Server
	hub      *Hub
	cancel   context.CancelFunc // cancels background goroutines on Close()
	unsubs   []func()           // detaches event subscriptions on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, bot)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Bot == nil {
		return nil, fmt.Errorf("bot is required")
	}

	s := &Server{
		cfg:     deps.Config,
		wsCfg:   deps.WS,
		logger:  deps.Logger,
		bot:     deps.Bot,
		history: deps.History,
		metrics: deps.Metrics,
		version: deps.Version,
	}

	if deps.Metrics != nil {
		s.registry = prometheus.NewRegistry()
		if err := deps.Metrics.Register(s.registry); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, subscribes to device
// events for real-time WebSocket broadcast, and launches the HTTP listener
// in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	s.subscribeEventUpdates()

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil

	// Cancel background goroutines (hub)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// subscribeEventUpdates relays every device event topic to WebSocket
// clients subscribed to the matching channel.
func (s *Server) subscribeEventUpdates() {
	bundle := s.bot.Events()

	s.unsubs = append(s.unsubs,
		relay(s, bundle.Battery, "battery"),
		relay(s, bundle.CleanLogs, "clean_logs"),
		relay(s, bundle.CustomCommand, "custom_command"),
		relay(s, bundle.Error, "error"),
		relay(s, bundle.FanSpeed, "fan_speed"),
		relay(s, bundle.LifeSpan.Emitter, "lifespan"),
		relay(s, bundle.Map, "map"),
		relay(s, bundle.Position, "position"),
		relay(s, bundle.Rooms, "rooms"),
		relay(s, bundle.Stats, "stats"),
		relay(s, bundle.Status, "status"),
		relay(s, bundle.WaterInfo, "water_info"),
	)
}

// relay subscribes one emitter to the hub under the given channel name.
// It returns the cancel function for the subscription.
func relay[T any](s *Server, emitter *events.Emitter[T], channel string) func() {
	sub := emitter.Subscribe(func(event T) error {
		s.hub.Broadcast(channel, event)
		if s.metrics != nil {
			s.metrics.EventPublished(channel)
		}
		return nil
	})
	return sub.Cancel
}
