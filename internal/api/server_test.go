package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fernhollow/dbsentinel/internal/infrastructure/config"
	"github.com/fernhollow/dbsentinel/internal/infrastructure/logging"
	"github.com/fernhollow/dbsentinel/internal/supervisor"
)

// createTargetDB creates a throwaway SQLite database and returns its path.
func createTargetDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "target.db")

	db, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		t.Fatalf("creating target database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE readings (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("seeding target database: %v", err)
	}
	return dbPath
}

// newTestServer builds a server over a supervisor with one attached target
// ("orders") and one detached target ("ghost"), and returns it with an
// httptest server wrapping its router.
func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")

	cfg := &config.Config{
		Service: config.ServiceConfig{ID: "dbsentinel-test"},
		Targets: []config.TargetConfig{
			{ID: "orders", Path: createTargetDB(t), BusyTimeout: 5},
			{ID: "ghost", Path: "/nonexistent/ghost.db", BusyTimeout: 5},
		},
		Monitor: config.MonitorConfig{PingInterval: 30, PingTimeout: 10},
		Checker: config.CheckerConfig{BaseInterval: 30, MaxInterval: 300, Multiplier: 1.5, CheckTimeout: 10},
	}

	sup, err := supervisor.New(cfg, logger)
	if err != nil {
		t.Fatalf("building supervisor: %v", err)
	}
	t.Cleanup(func() { sup.Close() })

	wsCfg := config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 60}
	srv, err := New(Deps{
		WS:         wsCfg,
		Logger:     logger,
		Supervisor: sup,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	srv.hub = NewHub(wsCfg, logger)
	srv.startedAt = time.Now().UTC()

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_MissingDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() should require a logger")
	}

	logger := logging.New(config.LoggingConfig{Level: "error", Output: "stderr"}, "test")
	if _, err := New(Deps{Logger: logger}); err == nil {
		t.Error("New() should require a supervisor")
	}
}

// =============================================================================
// Health and metrics
// =============================================================================

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)

	var body map[string]any
	if status := getJSON(t, ts.URL+"/api/v1/health", &body); status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version field = %v, want test", body["version"])
	}
}

func TestHandleMetrics(t *testing.T) {
	_, ts := newTestServer(t)

	var metrics SystemMetrics
	if status := getJSON(t, ts.URL+"/api/v1/metrics", &metrics); status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	if metrics.Targets.Total != 2 {
		t.Errorf("Targets.Total = %d, want 2", metrics.Targets.Total)
	}
	if metrics.Targets.Detached != 1 {
		t.Errorf("Targets.Detached = %d, want 1", metrics.Targets.Detached)
	}
	if metrics.Runtime.Goroutines <= 0 {
		t.Error("Runtime.Goroutines should be positive")
	}
	if _, ok := metrics.Databases["orders"]; !ok {
		t.Error("Databases missing attached target pool stats")
	}
}

// =============================================================================
// Target endpoints
// =============================================================================

func TestListTargets(t *testing.T) {
	_, ts := newTestServer(t)

	var body struct {
		Targets []supervisor.TargetInfo `json:"targets"`
		Count   int                     `json:"count"`
	}
	if status := getJSON(t, ts.URL+"/api/v1/targets", &body); status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body.Count != 2 || len(body.Targets) != 2 {
		t.Fatalf("count = %d, targets = %d, want 2", body.Count, len(body.Targets))
	}
	if body.Targets[0].ID != "orders" || body.Targets[1].ID != "ghost" {
		t.Errorf("target order = [%s %s], want [orders ghost]", body.Targets[0].ID, body.Targets[1].ID)
	}
}

func TestGetTarget(t *testing.T) {
	_, ts := newTestServer(t)

	t.Run("Known", func(t *testing.T) {
		var info supervisor.TargetInfo
		if status := getJSON(t, ts.URL+"/api/v1/targets/orders", &info); status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		if !info.Attached {
			t.Error("Attached = false for an opened target")
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		var apiErr Error
		if status := getJSON(t, ts.URL+"/api/v1/targets/missing", &apiErr); status != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", status)
		}
		if apiErr.Code != ErrCodeNotFound {
			t.Errorf("error code = %s, want %s", apiErr.Code, ErrCodeNotFound)
		}
	})
}

func TestGetTargetStatus(t *testing.T) {
	_, ts := newTestServer(t)

	var body struct {
		TargetID string `json:"target_id"`
		Status   struct {
			State string `json:"state"`
		} `json:"status"`
	}
	if status := getJSON(t, ts.URL+"/api/v1/targets/orders/status", &body); status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body.TargetID != "orders" {
		t.Errorf("target_id = %s, want orders", body.TargetID)
	}
	// No scheduled check has run yet.
	if body.Status.State != "disconnected" {
		t.Errorf("state = %s, want disconnected before first check", body.Status.State)
	}
}

func TestCheckTarget(t *testing.T) {
	_, ts := newTestServer(t)

	post := func(t *testing.T, url string, out any) int {
		t.Helper()
		resp, err := http.Post(url, "application/json", nil)
		if err != nil {
			t.Fatalf("POST %s: %v", url, err)
		}
		defer resp.Body.Close()
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
		}
		return resp.StatusCode
	}

	t.Run("AttachedTarget", func(t *testing.T) {
		var body struct {
			Healthy bool `json:"healthy"`
		}
		if status := post(t, ts.URL+"/api/v1/targets/orders/check", &body); status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		if !body.Healthy {
			t.Error("healthy = false for an attached target")
		}
	})

	t.Run("DetachedTarget", func(t *testing.T) {
		var body struct {
			Healthy bool `json:"healthy"`
			Metrics struct {
				LastError string `json:"last_error"`
			} `json:"metrics"`
		}
		if status := post(t, ts.URL+"/api/v1/targets/ghost/check", &body); status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		if body.Healthy {
			t.Error("healthy = true for a detached target")
		}
		if body.Metrics.LastError == "" {
			t.Error("last_error should describe the failure")
		}
	})

	t.Run("UnknownTarget", func(t *testing.T) {
		if status := post(t, ts.URL+"/api/v1/targets/missing/check", nil); status != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", status)
		}
	})
}

func TestResetTargetMetrics(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/targets/orders/metrics", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Metrics struct {
			TotalChecks int64 `json:"total_checks"`
		} `json:"metrics"`
	}
	getJSON(t, ts.URL+"/api/v1/targets/orders/metrics", &body)
	if body.Metrics.TotalChecks != 0 {
		t.Errorf("total_checks = %d after reset, want 0", body.Metrics.TotalChecks)
	}
}

// =============================================================================
// Middleware
// =============================================================================

func TestRequestIDHeader(t *testing.T) {
	_, ts := newTestServer(t)

	t.Run("Generated", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/health")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		if resp.Header.Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header missing")
		}
	})

	t.Run("EchoesClientID", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/health", nil)
		req.Header.Set("X-Request-ID", "client-supplied-id")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		if got := resp.Header.Get("X-Request-ID"); got != "client-supplied-id" {
			t.Errorf("X-Request-ID = %s, want client-supplied-id", got)
		}
	})
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/targets", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "http://dashboard.local" {
		t.Errorf("Access-Control-Allow-Origin = %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

// =============================================================================
// WebSocket
// =============================================================================

func TestWebSocketBroadcast(t *testing.T) {
	srv, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	// Subscribe to status events.
	sub := WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{supervisor.ChannelStatus}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("writing subscribe: %v", err)
	}

	var ack WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("reading subscribe ack: %v", err)
	}
	if ack.Type != WSTypeResponse {
		t.Fatalf("ack type = %s, want %s", ack.Type, WSTypeResponse)
	}

	// Broadcast an event the client is subscribed to.
	srv.hub.Broadcast(supervisor.ChannelStatus, map[string]string{"target_id": "orders"})

	var event WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if event.Type != WSTypeEvent || event.EventType != supervisor.ChannelStatus {
		t.Errorf("event = %+v, want %s on %s", event, WSTypeEvent, supervisor.ChannelStatus)
	}
}

func TestWebSocketIgnoresUnsubscribedChannels(t *testing.T) {
	srv, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	// No subscription: broadcasts must not reach this client.
	srv.hub.Broadcast(supervisor.ChannelHealth, map[string]string{"target_id": "orders"})

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Errorf("received %+v without a subscription", msg)
	}
}
