// ih8homeassistant - MQTT to Matter device bridge
//
// This is the main entry point for the bridge daemon. It maps MQTT
// devices (Tasmota sockets, Zigbee lights, Sonoff TVs, wall buttons)
// onto a typed device graph with Matter-style clusters, keeping both
// sides in sync: inbound state reports mutate the graph, graph changes
// publish commands back out.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nm47/ih8homeassistant/internal/api"
	"github.com/nm47/ih8homeassistant/internal/bridge"
	"github.com/nm47/ih8homeassistant/internal/infrastructure/config"
	"github.com/nm47/ih8homeassistant/internal/infrastructure/database"
	"github.com/nm47/ih8homeassistant/internal/infrastructure/influxdb"
	"github.com/nm47/ih8homeassistant/internal/infrastructure/logging"
	"github.com/nm47/ih8homeassistant/internal/infrastructure/mqtt"
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
	log.Info("starting ih8homeassistant",
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
	log.Info("configuration loaded", "path", configPath, "devices", len(cfg.Devices))

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database for state persistence (optional)
	var store *bridge.StateStore
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.Open(database.Config{
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

		store, err = bridge.NewStateStore(db)
		if err != nil {
			return fmt.Errorf("initialising state store: %w", err)
		}
	} else {
		log.Info("state persistence disabled")
	}

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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB for telemetry (optional)
	var influxClient *influxdb.Client
	var telemetry bridge.Telemetry
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
		telemetry = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the device graph. Config validation happens here; a broken
	// device config fails startup with every violation listed.
	deviceBridge, err := bridge.New(bridge.Options{
		Config:    cfg,
		MQTT:      &mqttBridgeAdapter{client: mqttClient},
		Store:     store,
		Telemetry: telemetry,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("building device graph: %w", err)
	}

	// Start API server before the bridge so the WebSocket hub observes
	// the first attribute changes.
	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Bridge:  deviceBridge,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	// Start the bridge: subscribes device topics, begins syncing.
	if err := deviceBridge.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		deviceBridge.Stop()
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. Bridge (unsubscribe, cancel debounce timers)
	// 2. API server (if enabled)
	// 3. InfluxDB (if enabled)
	// 4. MQTT (publishes offline status)
	// 5. Database

	log.Info("ih8homeassistant stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses IH8HA_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("IH8HA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check (may be nil if disabled)
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the
// bridge's MQTTClient interface. The only mismatch is the Subscribe
// handler type: the infrastructure client takes its own named
// mqtt.MessageHandler, the bridge declares a plain func type.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, handler)
}

// Unsubscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Unsubscribe(topic string) error {
	return a.client.Unsubscribe(topic)
}

// PublishString implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) PublishString(topic string, payload string) error {
	return a.client.PublishString(topic, payload)
}
