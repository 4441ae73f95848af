package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
catalog:
  base_url: "https://myapp.example.com/api"
  api_token: "test-token"
  application_id: "52876b73-1776-488d-a4fe-9e51102e9f2d"
sync:
  interval_seconds: 30
  parent_fqn: "enterprise.site.fleet"
store:
  dsn: "postgres://twinbridge@localhost:5432/model"
local_db:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Catalog.BaseURL != "https://myapp.example.com/api" {
		t.Errorf("Catalog.BaseURL = %q, want %q", cfg.Catalog.BaseURL, "https://myapp.example.com/api")
	}

	if cfg.Sync.IntervalSeconds != 30 {
		t.Errorf("Sync.IntervalSeconds = %d, want 30", cfg.Sync.IntervalSeconds)
	}

	if cfg.LocalDB.Path != "/tmp/test.db" {
		t.Errorf("LocalDB.Path = %q, want %q", cfg.LocalDB.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
catalog:
  base_url: ""
local_db:
  path: "/tmp/test.db"
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty catalog.base_url, got nil")
	}
}

// validBaseConfig returns a config that passes Validate; tests mutate one
// field at a time.
func validBaseConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:       "https://myapp.example.com/api",
			APIToken:      "token",
			ApplicationID: "app-id",
		},
		Sync: SyncConfig{
			IntervalSeconds: 60,
			Library:         "local_library",
			ParentFqn:       "enterprise.site",
		},
		Store:   StoreConfig{DSN: "postgres://localhost/model"},
		LocalDB: LocalDBConfig{Path: "/data/twinbridge.db"},
		MQTT:    MQTTConfig{QoS: 1},
		API:     APIConfig{Port: 8080},
		Security: SecurityConfig{
			JWT: JWTConfig{Secret: "test-secret-key-at-least-32-chars!"},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing catalog base URL",
			mutate:  func(c *Config) { c.Catalog.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "missing catalog token",
			mutate:  func(c *Config) { c.Catalog.APIToken = "" },
			wantErr: true,
		},
		{
			name:    "missing application id",
			mutate:  func(c *Config) { c.Catalog.ApplicationID = "" },
			wantErr: true,
		},
		{
			name:    "zero sync interval",
			mutate:  func(c *Config) { c.Sync.IntervalSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "missing parent fqn",
			mutate:  func(c *Config) { c.Sync.ParentFqn = "" },
			wantErr: true,
		},
		{
			name:    "missing store DSN",
			mutate:  func(c *Config) { c.Store.DSN = "" },
			wantErr: true,
		},
		{
			name:    "missing local db path",
			mutate:  func(c *Config) { c.LocalDB.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing JWT secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: true,
		},
		{
			name:    "JWT secret too short",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("TWINBRIDGE_CATALOG_API_TOKEN", "env-token")
	t.Setenv("TWINBRIDGE_SYNC_INTERVAL_SECONDS", "120")
	t.Setenv("TWINBRIDGE_STORE_DSN", "postgres://env@localhost/model")
	t.Setenv("TWINBRIDGE_LOCAL_DB_PATH", "/custom/path.db")
	t.Setenv("TWINBRIDGE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("TWINBRIDGE_MQTT_USERNAME", "testuser")
	t.Setenv("TWINBRIDGE_MQTT_PASSWORD", "testpass")
	t.Setenv("TWINBRIDGE_API_HOST", "192.168.1.1")
	t.Setenv("TWINBRIDGE_METRICS_TOKEN", "secret-token")
	t.Setenv("TWINBRIDGE_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	if cfg.Catalog.APIToken != "env-token" {
		t.Errorf("Catalog.APIToken = %q, want %q", cfg.Catalog.APIToken, "env-token")
	}

	if cfg.Sync.IntervalSeconds != 120 {
		t.Errorf("Sync.IntervalSeconds = %d, want 120", cfg.Sync.IntervalSeconds)
	}

	if cfg.Store.DSN != "postgres://env@localhost/model" {
		t.Errorf("Store.DSN = %q, want %q", cfg.Store.DSN, "postgres://env@localhost/model")
	}

	if cfg.LocalDB.Path != "/custom/path.db" {
		t.Errorf("LocalDB.Path = %q, want %q", cfg.LocalDB.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.Metrics.Token != "secret-token" {
		t.Errorf("Metrics.Token = %q, want %q", cfg.Metrics.Token, "secret-token")
	}

	if cfg.Security.JWT.Secret != "jwt-secret" {
		t.Errorf("Security.JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "jwt-secret")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Sync.IntervalSeconds != 60 {
		t.Errorf("defaultConfig Sync.IntervalSeconds = %d, want 60", cfg.Sync.IntervalSeconds)
	}

	if cfg.LocalDB.Path == "" {
		t.Error("defaultConfig should have non-empty LocalDB.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
}
