// Ozmo Core - Robot Vacuum Runtime
//
// This is the main entry point for the Ozmo Core application. It logs in
// to the vendor cloud portal, opens the push channel for device events,
// and exposes the vacuum over a local REST/WebSocket API with optional
// SQLite history and InfluxDB telemetry.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/ozmo-core/migrations"

	"github.com/nerrad567/ozmo-core/internal/api"
	"github.com/nerrad567/ozmo-core/internal/cleanlog"
	"github.com/nerrad567/ozmo-core/internal/events"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/config"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/database"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/logging"
	"github.com/nerrad567/ozmo-core/internal/metrics"
	"github.com/nerrad567/ozmo-core/internal/portal"
	"github.com/nerrad567/ozmo-core/internal/push"
	"github.com/nerrad567/ozmo-core/internal/telemetry"
	"github.com/nerrad567/ozmo-core/internal/vacbot"
	"github.com/nerrad567/ozmo-core/internal/vacmap"
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
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Ozmo Core",
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

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Log in to the cloud portal
	portalClient := portal.New(portal.Config{
		Account:   cfg.Portal.Account,
		Password:  cfg.Portal.Password,
		Country:   cfg.Portal.Country,
		Continent: cfg.Portal.Continent,
		BaseURL:   cfg.Portal.BaseURL,
		DeviceID:  cfg.Device.ID,
		Class:     cfg.Device.Class,
		Resource:  cfg.Device.Resource,
		Timeout:   time.Duration(cfg.Portal.Timeout) * time.Second,
		VerifySSL: cfg.Portal.VerifySSL,
	}, log)

	if err := portalClient.Login(ctx); err != nil {
		return fmt.Errorf("portal login: %w", err)
	}
	log.Info("portal login complete", "account", cfg.Portal.Account)

	devices, err := portalClient.Devices(ctx)
	if err != nil {
		log.Warn("device list fetch failed", "error", err)
	} else {
		for _, d := range devices {
			log.Info("portal device", "did", d.DID, "name", d.Name, "class", d.Class)
		}
	}

	// Build the bot and its collaborators
	appMetrics := metrics.New()

	bot, err := vacbot.NewBot(vacbot.Options{
		DeviceID:             cfg.Device.ID,
		Transport:            portalClient,
		MaxInFlight:          int64(cfg.Executor.MaxInFlight),
		LifeSpanPollInterval: time.Duration(cfg.Executor.LifeSpanPollInterval) * time.Second,
		Logger:               log,
		Observer:             appMetrics,
	})
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}

	vacuumMap := vacmap.New(bot, bot.Events(), log)
	bot.SetMapHandler(vacuumMap)

	subscribeMetrics(appMetrics, bot.Events())

	// Persist clean logs and status transitions
	historyRepo := cleanlog.NewRepository(db)
	historyRecorder := cleanlog.NewRecorder(historyRepo, bot.Events(), log)
	defer historyRecorder.Stop()

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		telemetryRecorder := telemetry.NewRecorder(cfg.Device.ID, influxClient, bot.Events())
		defer telemetryRecorder.Stop()
	} else {
		log.Info("InfluxDB disabled")
	}

	// Open the push channel for device events
	creds, ok := portalClient.Credentials()
	if !ok {
		return fmt.Errorf("portal session missing after login")
	}

	pushClient, err := push.Connect(cfg.Push, push.Identity{
		UserID:    creds.UserID,
		Token:     creds.Token,
		DeviceID:  cfg.Device.ID,
		Class:     cfg.Device.Class,
		Resource:  cfg.Device.Resource,
		Continent: cfg.Portal.Continent,
	}, &countingSink{bot: bot, metrics: appMetrics}, log)
	if err != nil {
		return fmt.Errorf("connecting push channel: %w", err)
	}
	defer func() {
		log.Info("closing push channel")
		if closeErr := pushClient.Close(); closeErr != nil {
			log.Error("error closing push channel", "error", closeErr)
		}
	}()
	log.Info("push channel connected", "device", cfg.Device.ID)

	// Start life-span polling
	bot.Start(ctx)

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log,
		Bot:     bot,
		History: historyRepo,
		Metrics: appMetrics,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, pushClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Push channel
	// 3. InfluxDB (if enabled)
	// 4. Recorders and database

	log.Info("Ozmo Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses OZMO_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("OZMO_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - pushClient: Push channel to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, pushClient *push.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := pushClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("push: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// countingSink counts push deliveries before handing them to the bot.
type countingSink struct {
	bot     *vacbot.Bot
	metrics *metrics.Metrics
}

func (s *countingSink) Handle(name string, payload map[string]any) error {
	s.metrics.PushReceived()
	return s.bot.Handle(name, payload)
}

func (s *countingSink) SetAvailable(available bool) {
	s.bot.SetAvailable(available)
}

// subscribeMetrics keeps the battery and availability gauges current.
func subscribeMetrics(m *metrics.Metrics, bundle *events.Bundle) {
	bundle.Battery.Subscribe(func(event events.BatteryEvent) error {
		m.SetBattery(event.Value)
		return nil
	})
	bundle.Status.Subscribe(func(event events.StatusEvent) error {
		m.SetAvailable(event.Available)
		return nil
	})
}
