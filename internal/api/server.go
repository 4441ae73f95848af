// Package api provides the operational HTTP API and WebSocket server
// for TwinBridge Core.
//
// It exposes health and status endpoints for monitoring the sync loop
// and the ingest pipeline, and a WebSocket tap that streams a summary
// of every processed telemetry event for live diagnostics.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/twinbridge/twinbridge-core/internal/infrastructure/config"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/logging"
	"github.com/twinbridge/twinbridge-core/internal/stream"
	syncpkg "github.com/twinbridge/twinbridge-core/internal/sync"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SyncStatusProvider reports the model sync loop's diagnostic snapshot.
type SyncStatusProvider interface {
	Status() syncpkg.Status
}

// SyncRunner triggers an immediate sync cycle. Implementations must
// serialise cycles internally.
type SyncRunner interface {
	RunCycle(ctx context.Context) syncpkg.Result
}

// StreamStatsProvider reports the stream receiver's counters.
type StreamStatsProvider interface {
	Stats() stream.Stats
}

// CheckpointLister reports the persisted per-partition cursors.
type CheckpointLister interface {
	Positions(ctx context.Context) (map[string]time.Time, error)
}

// ResolverStatsProvider reports the attribute resolver's cache size.
type ResolverStatsProvider interface {
	CacheSize() int
}

// HealthChecker is a named dependency the health endpoint probes.
type HealthChecker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Security    config.SecurityConfig
	Logger      *logging.Logger
	Sync        SyncStatusProvider
	SyncRunner  SyncRunner // optional; enables the admin sync trigger endpoint
	Stream      StreamStatsProvider
	Checkpoints CheckpointLister
	Resolver    ResolverStatsProvider
	Health      []HealthChecker
	ExternalHub *Hub // If set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the operational HTTP server for TwinBridge Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	secCfg      config.SecurityConfig
	logger      *logging.Logger
	sync        SyncStatusProvider
	syncRunner  SyncRunner
	stream      StreamStatsProvider
	checkpoints CheckpointLister
	resolver    ResolverStatsProvider
	health      []HealthChecker
	version     string
	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		secCfg:      deps.Security,
		logger:      deps.Logger.With("component", "api"),
		sync:        deps.Sync,
		syncRunner:  deps.SyncRunner,
		stream:      deps.Stream,
		checkpoints: deps.Checkpoints,
		resolver:    deps.Resolver,
		health:      deps.Health,
		version:     deps.Version,
	}

	// Use an externally-provided hub when the caller also wires it as
	// the pipeline's tap.
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Hub returns the server's WebSocket hub, creating it on first use.
// Wire the result as the pipeline's tap to stream processed events to
// connected clients.
func (s *Server) Hub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. Stop with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

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
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server. It waits up to 10
// seconds for in-flight requests, then closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

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

// HealthCheck verifies the API server is running.
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
