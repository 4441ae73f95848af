package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/twinbridge/twinbridge-core/internal/auth"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/config"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/logging"
	"github.com/twinbridge/twinbridge-core/internal/ingest"
	"github.com/twinbridge/twinbridge-core/internal/stream"
	syncpkg "github.com/twinbridge/twinbridge-core/internal/sync"
)

const testSecret = "test-secret-key-at-least-32-chars!"

type stubSync struct {
	status syncpkg.Status
	runs   int
	result syncpkg.Result
}

func (s *stubSync) Status() syncpkg.Status { return s.status }

func (s *stubSync) RunCycle(_ context.Context) syncpkg.Result {
	s.runs++
	return s.result
}

type stubStream struct {
	stats stream.Stats
}

func (s *stubStream) Stats() stream.Stats { return s.stats }

type stubCheckpoints struct {
	positions map[string]time.Time
	err       error
}

func (s *stubCheckpoints) Positions(_ context.Context) (map[string]time.Time, error) {
	return s.positions, s.err
}

type stubResolver struct {
	size int
}

func (s *stubResolver) CacheSize() int { return s.size }

// newTestServer builds a server with stub providers and returns it
// alongside its sync stub for assertions.
func newTestServer(t *testing.T, health []HealthChecker) (*Server, *stubSync) {
	t.Helper()

	sync := &stubSync{
		status: syncpkg.Status{Cycles: 3, TypeFingerprints: 5, InstanceFingerprints: 12},
	}

	s, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS: config.WebSocketConfig{
			Path:           "/api/v1/ws",
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    60,
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: testSecret, AccessTokenTTL: 15},
		},
		Logger:     logging.Default(),
		Sync:       sync,
		SyncRunner: sync,
		Stream:     &stubStream{stats: stream.Stats{Processed: 42, Skipped: 7}},
		Checkpoints: &stubCheckpoints{positions: map[string]time.Time{
			"partition-0": time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		}},
		Resolver: &stubResolver{size: 9},
		Health:   health,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, sync
}

// startTestServer wires the router into an httptest server with a
// running hub.
func startTestServer(t *testing.T, s *Server) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := s.Hub()
	go hub.Run(ctx)

	ts := httptest.NewServer(s.buildRouter())
	t.Cleanup(ts.Close)
	return ts
}

func readToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateServiceToken("test-client", auth.ScopeRead, testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateServiceToken() error = %v", err)
	}
	return token
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateServiceToken("test-admin", auth.ScopeAdmin, testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateServiceToken() error = %v", err)
	}
	return token
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request %s %s error = %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth_NoAuthRequired(t *testing.T) {
	s, _ := newTestServer(t, []HealthChecker{
		{Name: "store", Check: func(_ context.Context) error { return nil }},
	})
	ts := startTestServer(t, s)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Checks  []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}

	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
	if body.Version != "test" {
		t.Errorf("version = %q, want %q", body.Version, "test")
	}
	if len(body.Checks) != 1 || body.Checks[0].Name != "store" {
		t.Errorf("checks = %+v, want one passing store check", body.Checks)
	}
}

func TestHealth_FailingDependencyReturns503(t *testing.T) {
	s, _ := newTestServer(t, []HealthChecker{
		{Name: "store", Check: func(_ context.Context) error { return nil }},
		{Name: "mqtt", Check: func(_ context.Context) error { return errors.New("not connected") }},
	})
	ts := startTestServer(t, s)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/health", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("GET /health status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestStatus_RequiresAuth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ts := startTestServer(t, s)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/status", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /status without token status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/v1/status", "not-a-token")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /status with garbage token status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestStatus_ReturnsSnapshot(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ts := startTestServer(t, s)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/status", readToken(t))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /status status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Sync struct {
			Cycles           uint64 `json:"cycles"`
			TypeFingerprints int    `json:"type_fingerprints"`
		} `json:"sync"`
		Stream struct {
			Processed int64 `json:"processed"`
			Skipped   int64 `json:"skipped"`
		} `json:"stream"`
		Resolver struct {
			CacheSize int `json:"cache_size"`
		} `json:"resolver"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding status response: %v", err)
	}

	if body.Sync.Cycles != 3 {
		t.Errorf("sync.cycles = %d, want 3", body.Sync.Cycles)
	}
	if body.Stream.Processed != 42 {
		t.Errorf("stream.processed = %d, want 42", body.Stream.Processed)
	}
	if body.Resolver.CacheSize != 9 {
		t.Errorf("resolver.cache_size = %d, want 9", body.Resolver.CacheSize)
	}
}

func TestCheckpoints_ReturnsCursors(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ts := startTestServer(t, s)

	resp := doRequest(t, ts, http.MethodGet, "/api/v1/checkpoints", readToken(t))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /checkpoints status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Checkpoints map[string]string `json:"checkpoints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding checkpoints response: %v", err)
	}

	got, ok := body.Checkpoints["partition-0"]
	if !ok {
		t.Fatalf("checkpoints = %v, want partition-0 entry", body.Checkpoints)
	}
	if !strings.HasPrefix(got, "2025-06-01T12:00:00") {
		t.Errorf("partition-0 cursor = %q, want 2025-06-01T12:00:00 prefix", got)
	}
}

func TestSyncRun_RequiresAdminScope(t *testing.T) {
	s, sync := newTestServer(t, nil)
	ts := startTestServer(t, s)

	resp := doRequest(t, ts, http.MethodPost, "/api/v1/sync/run", readToken(t))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("POST /sync/run with read token status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
	if sync.runs != 0 {
		t.Errorf("sync runs = %d, want 0 after forbidden request", sync.runs)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/v1/sync/run", adminToken(t))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("POST /sync/run with admin token status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if sync.runs != 1 {
		t.Errorf("sync runs = %d, want 1", sync.runs)
	}
}

func TestWebSocket_StreamsTapEvents(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ts := startTestServer(t, s)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?token=" + readToken(t)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	// Subscribe to the telemetry channel
	sub := WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{ChannelTelemetryEvent}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("writing subscribe message: %v", err)
	}

	var ack WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("reading subscribe ack: %v", err)
	}
	if ack.Type != WSTypeResponse {
		t.Fatalf("ack type = %q, want %q", ack.Type, WSTypeResponse)
	}

	// Publish through the hub as the pipeline would
	s.Hub().PublishEvent(ingest.TapEvent{
		DeviceID:  "RefrigeratedTruck1",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Samples:   5,
		Dropped:   1,
	})

	//nolint:errcheck // deadline on a test connection
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var event WSMessage
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading broadcast event: %v", err)
	}
	if event.Type != WSTypeEvent {
		t.Errorf("event type = %q, want %q", event.Type, WSTypeEvent)
	}
	if event.EventType != ChannelTelemetryEvent {
		t.Errorf("event channel = %q, want %q", event.EventType, ChannelTelemetryEvent)
	}

	payload, ok := event.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T, want map", event.Payload)
	}
	if payload["device_id"] != "RefrigeratedTruck1" {
		t.Errorf("payload device_id = %v, want RefrigeratedTruck1", payload["device_id"])
	}
}

func TestWebSocket_RejectsMissingToken(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ts := startTestServer(t, s)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	//nolint:bodyclose // resp body is closed by the dialer on error
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial without token should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("dial response = %+v, want status %d", resp, http.StatusUnauthorized)
	}
}

func TestNew_RequiresLogger(t *testing.T) {
	_, err := New(Deps{})
	if err == nil {
		t.Error("New() without logger should fail")
	}
}
