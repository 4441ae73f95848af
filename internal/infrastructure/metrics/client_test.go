package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/twinbridge/twinbridge-core/internal/infrastructure/config"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/metrics"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "twinbridge-dev-token",
		Org:           "twinbridge",
		Bucket:        "ops",
		BatchSize:     100,
		FlushInterval: 1, // 1 second for faster test feedback
	}
}

// skipIfNoInfluxDB skips the test if InfluxDB is not running.
func skipIfNoInfluxDB(t *testing.T) {
	t.Helper()
	cfg := testConfig()
	client, err := metrics.Connect(cfg)
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	client.Close()
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := metrics.Connect(cfg)
	if !errors.Is(err, metrics.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999" // Non-existent port

	_, err := metrics.Connect(cfg)
	if err == nil {
		t.Fatal("Connect() should return error for unreachable server")
	}
	if !errors.Is(err, metrics.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestZeroValueClient(t *testing.T) {
	var c metrics.Client

	if c.IsConnected() {
		t.Error("IsConnected() = true for zero value client")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, metrics.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	// Record methods are no-ops when disconnected.
	c.RecordSyncCycle(time.Second, 1, 2, false)
	c.RecordEvent(5, 1, 0)
	c.WritePoint("custom", nil, map[string]interface{}{"v": 1})
	c.Flush()
}

func TestRecord(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := metrics.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	writeErrors := make(chan error, 10)
	client.SetOnError(func(err error) { writeErrors <- err })

	client.RecordSyncCycle(1500*time.Millisecond, 3, 12, false)
	client.RecordSyncCycle(200*time.Millisecond, 0, 0, true)
	client.RecordEvent(6, 1, 0)
	client.Flush()

	select {
	case err := <-writeErrors:
		t.Errorf("async write error = %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHealthCheck(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := metrics.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
