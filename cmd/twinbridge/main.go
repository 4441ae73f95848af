// TwinBridge Core - Device-Twin Catalog Bridge
//
// This is the main entry point for the TwinBridge Core application.
// TwinBridge mirrors an upstream device-twin catalog into a downstream
// typed asset store:
//   - Incremental model synchronisation (capability models and device twins)
//   - Telemetry demultiplexing from the partitioned event stream
//   - Durable per-partition checkpoints for at-least-once delivery
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/twinbridge/twinbridge-core/migrations"

	"github.com/twinbridge/twinbridge-core/internal/api"
	"github.com/twinbridge/twinbridge-core/internal/catalog"
	"github.com/twinbridge/twinbridge-core/internal/checkpoint"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/config"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/database"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/logging"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/metrics"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/mqtt"
	"github.com/twinbridge/twinbridge-core/internal/ingest"
	"github.com/twinbridge/twinbridge-core/internal/store"
	"github.com/twinbridge/twinbridge-core/internal/stream"
	syncpkg "github.com/twinbridge/twinbridge-core/internal/sync"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit,cyclop // linear start-up sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting TwinBridge Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to the downstream PostgreSQL store
	pg, err := store.NewPostgres(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("connecting to store: %w", err)
	}
	defer func() {
		log.Info("closing store connection")
		pg.Close()
	}()
	log.Info("store connected")

	// Open the local state database and apply migrations
	db, err := database.Open(database.Config{
		Path:        cfg.LocalDB.Path,
		WALMode:     cfg.LocalDB.WALMode,
		BusyTimeout: cfg.LocalDB.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening local database: %w", err)
	}
	defer func() {
		log.Info("closing local database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing local database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("local database ready", "path", cfg.LocalDB.Path)

	checkpoints := checkpoint.NewStore(db)

	// Connect to the metrics sink (optional)
	var sink *metrics.Client
	if cfg.Metrics.Enabled {
		sink, err = metrics.Connect(cfg.Metrics)
		if err != nil {
			return fmt.Errorf("connecting to metrics sink: %w", err)
		}
		defer func() {
			log.Info("closing metrics sink")
			if closeErr := sink.Close(); closeErr != nil {
				log.Error("error closing metrics sink", "error", closeErr)
			}
		}()
		sink.SetOnError(func(err error) {
			log.Error("metrics write error", "error", err)
		})
		log.Info("metrics sink connected", "url", cfg.Metrics.URL, "bucket", cfg.Metrics.Bucket)
	} else {
		log.Info("metrics sink disabled")
	}

	// A nil *metrics.Client must not end up inside a non-nil Recorder
	// interface, so the recorders are only assigned when the sink exists.
	var syncRecorder syncpkg.Recorder
	var ingestRecorder ingest.Recorder
	if sink != nil {
		syncRecorder = sink
		ingestRecorder = sink
	}

	// WebSocket hub doubles as the pipeline's tap, so it is created
	// before the API server and handed to it later.
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	// Telemetry ingest pipeline
	resolver := ingest.NewResolver(pg, log)
	pipeline := ingest.NewPipeline(resolver, pg, cfg.Catalog.ApplicationID, ingestRecorder, hub, log)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	receiver := stream.NewReceiver(mqttClient, pipeline, checkpoints, byte(cfg.MQTT.QoS), log)

	// Upstream catalog client and sync orchestrator
	catalogClient := catalog.NewClient(cfg.Catalog, log)
	orchestrator := syncpkg.New(
		catalogClient, pg, cfg.Sync,
		syncpkg.NewFingerprints(), syncpkg.NewFingerprints(),
		syncRecorder, log,
	)

	if err := orchestrator.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrapping store: %w", err)
	}

	// Operational API server, wired with the diagnostics providers
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log,
		Sync:        orchestrator,
		SyncRunner:  orchestrator,
		Stream:      receiver,
		Checkpoints: checkpoints,
		Resolver:    resolver,
		Health: []api.HealthChecker{
			{Name: "store", Check: pg.HealthCheck},
			{Name: "local_db", Check: db.HealthCheck},
			{Name: "mqtt", Check: mqttClient.HealthCheck},
		},
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy before entering steady state
	if err := healthCheck(ctx, pg, db, mqttClient, sink); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, entering steady state")

	// Run the sync loop and the stream receiver until a signal arrives.
	// Either loop failing cancels the group and unwinds the defers.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orchestrator.Run(gctx) })
	g.Go(func() error { return receiver.Run(gctx) })

	err = g.Wait()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("runtime failure: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")
	log.Info("TwinBridge Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TWINBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TWINBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// The metrics sink may be nil when disabled.
func healthCheck(ctx context.Context, pg *store.Postgres, db *database.DB, mqttClient *mqtt.Client, sink *metrics.Client) error {
	if err := pg.HealthCheck(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("local database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if sink != nil {
		if err := sink.HealthCheck(ctx); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}
