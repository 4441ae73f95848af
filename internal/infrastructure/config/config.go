package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for TwinBridge Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog"`
	Sync      SyncConfig      `yaml:"sync"`
	Store     StoreConfig     `yaml:"store"`
	LocalDB   LocalDBConfig   `yaml:"local_db"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// CatalogConfig contains upstream device-twin catalog API settings.
type CatalogConfig struct {
	// BaseURL is the catalog API root, e.g. "https://myapp.example.com/api".
	BaseURL string `yaml:"base_url"`

	// APIToken authenticates catalog requests. Always set via
	// TWINBRIDGE_CATALOG_API_TOKEN in production.
	APIToken string `yaml:"api_token"`

	// ApplicationID is the catalog application scope this instance serves.
	// Telemetry events carrying a different application id are ignored.
	ApplicationID string `yaml:"application_id"`

	TimeoutSeconds int `yaml:"timeout_seconds"`
	RetryCount     int `yaml:"retry_count"`
}

// SyncConfig contains model synchronisation settings.
type SyncConfig struct {
	// IntervalSeconds is the fixed poll interval between sync cycles.
	IntervalSeconds int `yaml:"interval_seconds"`

	// Library is the downstream type library that hosts imported types.
	Library string `yaml:"library"`

	// LibraryDisplayName labels the library when it is first created.
	LibraryDisplayName string `yaml:"library_display_name"`

	// ParentFqn is the downstream equipment node new instances hang under,
	// e.g. "enterprise.site.fleet".
	ParentFqn string `yaml:"parent_fqn"`
}

// StoreConfig contains downstream PostgreSQL store settings.
type StoreConfig struct {
	// DSN is the PostgreSQL connection string (pgx pool syntax).
	DSN string `yaml:"dsn"`

	MaxConns       int `yaml:"max_conns"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// LocalDBConfig contains local SQLite state database settings.
// The local database holds stream checkpoints and survives restarts.
type LocalDBConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the event stream.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains operational HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains live ingest tap settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MetricsConfig contains InfluxDB operational metrics settings.
type MetricsConfig struct {
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

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings for the operational API.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TWINBRIDGE_SECTION_KEY
// For example: TWINBRIDGE_STORE_DSN, TWINBRIDGE_CATALOG_API_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			TimeoutSeconds: 30,
			RetryCount:     3,
		},
		Sync: SyncConfig{
			IntervalSeconds:    60,
			Library:            "local_library",
			LibraryDisplayName: "Local Library",
		},
		Store: StoreConfig{
			MaxConns:       4,
			TimeoutSeconds: 30,
		},
		LocalDB: LocalDBConfig{
			Path:        "./data/twinbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "twinbridge-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
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
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TWINBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Catalog
	if v := os.Getenv("TWINBRIDGE_CATALOG_BASE_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := os.Getenv("TWINBRIDGE_CATALOG_API_TOKEN"); v != "" {
		cfg.Catalog.APIToken = v
	}
	if v := os.Getenv("TWINBRIDGE_CATALOG_APPLICATION_ID"); v != "" {
		cfg.Catalog.ApplicationID = v
	}

	// Sync
	if v := os.Getenv("TWINBRIDGE_SYNC_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sync.IntervalSeconds = n
		}
	}
	if v := os.Getenv("TWINBRIDGE_SYNC_PARENT_FQN"); v != "" {
		cfg.Sync.ParentFqn = v
	}

	// Store
	if v := os.Getenv("TWINBRIDGE_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}

	// Local database
	if v := os.Getenv("TWINBRIDGE_LOCAL_DB_PATH"); v != "" {
		cfg.LocalDB.Path = v
	}

	// MQTT
	if v := os.Getenv("TWINBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TWINBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TWINBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("TWINBRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Metrics
	if v := os.Getenv("TWINBRIDGE_METRICS_TOKEN"); v != "" {
		cfg.Metrics.Token = v
	}

	// Security - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("TWINBRIDGE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Catalog validation
	if c.Catalog.BaseURL == "" {
		errs = append(errs, "catalog.base_url is required")
	}
	if c.Catalog.APIToken == "" {
		errs = append(errs, "catalog.api_token is required (set TWINBRIDGE_CATALOG_API_TOKEN environment variable)")
	}
	if c.Catalog.ApplicationID == "" {
		errs = append(errs, "catalog.application_id is required")
	}

	// Sync validation
	if c.Sync.IntervalSeconds < 1 {
		errs = append(errs, "sync.interval_seconds must be at least 1")
	}
	if c.Sync.Library == "" {
		errs = append(errs, "sync.library is required")
	}
	if c.Sync.ParentFqn == "" {
		errs = append(errs, "sync.parent_fqn is required")
	}

	// Store validation
	if c.Store.DSN == "" {
		errs = append(errs, "store.dsn is required (set TWINBRIDGE_STORE_DSN environment variable)")
	}

	// Local database validation
	if c.LocalDB.Path == "" {
		errs = append(errs, "local_db.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Security validation - JWT secret is REQUIRED
	// The operational API exposes sync state and a live telemetry tap;
	// a forged token would leak plant data.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set TWINBRIDGE_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SyncInterval returns the sync poll interval as a Duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalSeconds) * time.Second
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
