package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Ozmo Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Portal    PortalConfig    `yaml:"portal"`
	Push      PushConfig      `yaml:"push"`
	Executor  ExecutorConfig  `yaml:"executor"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Database  DatabaseConfig  `yaml:"database"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig identifies the single appliance this instance manages.
type DeviceConfig struct {
	// ID is the vendor device id (DID) assigned by the cloud portal.
	ID string `yaml:"id"`

	// Class is the vendor hardware class string (e.g. "yna5xi").
	Class string `yaml:"class"`

	// Resource is the session resource suffix used on push topics.
	Resource string `yaml:"resource"`

	// Name is a human-readable label, used only in logs and the API.
	Name string `yaml:"name"`
}

// PortalConfig contains cloud portal connection and credential settings.
type PortalConfig struct {
	// Country and Continent select the regional portal endpoints.
	Country   string `yaml:"country"`
	Continent string `yaml:"continent"`

	// Account credentials. Password should be set via OZMO_PORTAL_PASSWORD.
	Account  string `yaml:"account"`
	Password string `yaml:"password"`

	// BaseURL overrides the derived portal URL (used in tests and for
	// self-hosted portals). Empty means derive from continent/country.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request HTTP timeout in seconds.
	Timeout int `yaml:"timeout"`

	// VerifySSL disables certificate verification when false. The vendor
	// CN portal historically served certificates that fail validation.
	VerifySSL bool `yaml:"verify_ssl"`
}

// PushConfig contains MQTT push-channel settings.
type PushConfig struct {
	Broker    PushBrokerConfig    `yaml:"broker"`
	QoS       int                 `yaml:"qos"`
	Reconnect PushReconnectConfig `yaml:"reconnect"`
}

// PushBrokerConfig contains push broker connection details.
// Host is normally derived from the continent ("mq-{continent}.ecouser.net")
// but can be overridden for tests.
type PushBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`
}

// PushReconnectConfig contains push-channel reconnection settings.
type PushReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// ExecutorConfig tunes the command executor and polling emitters.
type ExecutorConfig struct {
	// MaxInFlight bounds concurrent outbound command executions.
	MaxInFlight int `yaml:"max_in_flight"`

	// LifeSpanPollInterval is the life-span polling period in seconds.
	LifeSpanPollInterval int `yaml:"life_span_poll_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket event-stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: OZMO_SECTION_KEY
// For example: OZMO_PORTAL_PASSWORD, OZMO_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			Country:   "gb",
			Continent: "eu",
			Timeout:   60,
			VerifySSL: true,
		},
		Push: PushConfig{
			Broker: PushBrokerConfig{
				Port: 8883,
				TLS:  true,
			},
			QoS: 0,
			Reconnect: PushReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Executor: ExecutorConfig{
			MaxInFlight:          3,
			LifeSpanPollInterval: 60,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Database: DatabaseConfig{
			Path:        "./data/ozmocore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: OZMO_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("OZMO_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("OZMO_DEVICE_CLASS"); v != "" {
		cfg.Device.Class = v
	}

	// Portal credentials (prefer env over file for secrets)
	if v := os.Getenv("OZMO_PORTAL_ACCOUNT"); v != "" {
		cfg.Portal.Account = v
	}
	if v := os.Getenv("OZMO_PORTAL_PASSWORD"); v != "" {
		cfg.Portal.Password = v
	}
	if v := os.Getenv("OZMO_PORTAL_BASE_URL"); v != "" {
		cfg.Portal.BaseURL = v
	}

	// Push broker
	if v := os.Getenv("OZMO_PUSH_HOST"); v != "" {
		cfg.Push.Broker.Host = v
	}
	if v := os.Getenv("OZMO_PUSH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Push.Broker.Port = port
		}
	}

	// API
	if v := os.Getenv("OZMO_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Database
	if v := os.Getenv("OZMO_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("OZMO_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device validation
	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}
	if c.Device.Class == "" {
		errs = append(errs, "device.class is required")
	}

	// Portal validation
	if c.Portal.Account == "" {
		errs = append(errs, "portal.account is required (set OZMO_PORTAL_ACCOUNT environment variable)")
	}
	if c.Portal.Password == "" {
		errs = append(errs, "portal.password is required (set OZMO_PORTAL_PASSWORD environment variable)")
	}
	if c.Portal.Country == "" {
		errs = append(errs, "portal.country is required")
	}

	// Push validation
	if c.Push.QoS < 0 || c.Push.QoS > 2 {
		errs = append(errs, "push.qos must be 0, 1, or 2")
	}

	// Executor validation
	if c.Executor.MaxInFlight < 1 {
		errs = append(errs, "executor.max_in_flight must be at least 1")
	}
	if c.Executor.LifeSpanPollInterval < 1 {
		errs = append(errs, "executor.life_span_poll_interval must be at least 1 second")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetPortalTimeout returns the portal HTTP timeout as a Duration.
func (c *Config) GetPortalTimeout() time.Duration {
	return time.Duration(c.Portal.Timeout) * time.Second
}

// GetLifeSpanPollInterval returns the life-span polling period as a Duration.
func (c *Config) GetLifeSpanPollInterval() time.Duration {
	return time.Duration(c.Executor.LifeSpanPollInterval) * time.Second
}
