package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/ozmo-core/internal/infrastructure/config"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/logging"
	"github.com/nerrad567/ozmo-core/internal/metrics"
	"github.com/nerrad567/ozmo-core/internal/vacbot"
)

// fakeTransport records sent commands and answers with canned responses.
type fakeTransport struct {
	mu        sync.Mutex
	sent      []string
	err       error
	responses map[string]map[string]any
}

func (t *fakeTransport) SendCommand(_ context.Context, name string, _ any) (map[string]any, error) {
	t.mu.Lock()
	t.sent = append(t.sent, name)
	t.mu.Unlock()

	if t.err != nil {
		return nil, t.err
	}
	if resp, ok := t.responses[name]; ok {
		return resp, nil
	}
	return map[string]any{"ret": "ok", "resp": map[string]any{}}, nil
}

func (t *fakeTransport) FetchCleanLogs(context.Context) (map[string]any, error) {
	t.mu.Lock()
	t.sent = append(t.sent, "GetCleanLogs")
	t.mu.Unlock()

	if t.err != nil {
		return nil, t.err
	}
	return map[string]any{"ret": "ok", "logs": []any{}}, nil
}

func (t *fakeTransport) sentCommands() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent...)
}

func newTestServer(t *testing.T, transport *fakeTransport) (*Server, *httptest.Server) {
	t.Helper()

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")

	bot, err := vacbot.NewBot(vacbot.Options{
		DeviceID:  "E0001234567890",
		Transport: transport,
	})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}

	server, err := New(Deps{
		Config:  config.APIConfig{},
		WS:      config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 60},
		Logger:  logger,
		Bot:     bot,
		Metrics: metrics.New(),
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	server.hub = NewHub(server.wsCfg, logger)

	ts := httptest.NewServer(server.buildRouter())
	t.Cleanup(ts.Close)
	return server, ts
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec // test server URL
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return body
}

func postJSON(t *testing.T, url, payload string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(payload)) //nolint:gosec // test server URL
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t, &fakeTransport{})

	body := getJSON(t, ts.URL+"/api/v1/health", http.StatusOK)
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
	if body["device_id"] != "E0001234567890" {
		t.Errorf("device_id = %v", body["device_id"])
	}
}

func TestHandleStatusDefaults(t *testing.T) {
	_, ts := newTestServer(t, &fakeTransport{})

	body := getJSON(t, ts.URL+"/api/v1/status", http.StatusOK)
	if body["available"] != false {
		t.Errorf("available = %v, want false before any evidence", body["available"])
	}
	if body["state"] != "unknown" {
		t.Errorf("state = %v", body["state"])
	}
}

func TestStateEndpointsRequireEvidence(t *testing.T) {
	server, ts := newTestServer(t, &fakeTransport{})

	getJSON(t, ts.URL+"/api/v1/battery", http.StatusNotFound)

	payload := map[string]any{
		"header": map[string]any{"fwVer": "1.7.6"},
		"body": map[string]any{
			"code": 0,
			"msg":  "ok",
			"data": map[string]any{"value": 91, "isLow": 0},
		},
	}
	if err := server.bot.Handle("onBattery", payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	body := getJSON(t, ts.URL+"/api/v1/battery", http.StatusOK)
	if body["value"] != float64(91) {
		t.Errorf("battery value = %v", body["value"])
	}
}

func TestHandleClean(t *testing.T) {
	transport := &fakeTransport{}
	_, ts := newTestServer(t, transport)

	resp := postJSON(t, ts.URL+"/api/v1/commands/clean", `{"action":"start"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	sent := transport.sentCommands()
	if len(sent) != 1 || sent[0] != "clean" {
		t.Errorf("sent = %v", sent)
	}
}

func TestHandleCleanRejectsUnknownAction(t *testing.T) {
	transport := &fakeTransport{}
	_, ts := newTestServer(t, transport)

	resp := postJSON(t, ts.URL+"/api/v1/commands/clean", `{"action":"hover"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(transport.sentCommands()) != 0 {
		t.Error("invalid action should not reach the transport")
	}
}

func TestHandleCleanArea(t *testing.T) {
	transport := &fakeTransport{}
	_, ts := newTestServer(t, transport)

	resp := postJSON(t, ts.URL+"/api/v1/commands/clean-area",
		`{"mode":"spotArea","area":"7,8","cleanings":2}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/v1/commands/clean-area", `{"mode":"spotArea"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing area status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleSetFanSpeed(t *testing.T) {
	transport := &fakeTransport{}
	_, ts := newTestServer(t, transport)

	resp := postJSON(t, ts.URL+"/api/v1/commands/fan-speed", `{"speed":"max"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	sent := transport.sentCommands()
	if len(sent) != 1 || sent[0] != "setSpeed" {
		t.Errorf("sent = %v", sent)
	}

	resp = postJSON(t, ts.URL+"/api/v1/commands/fan-speed", `{"speed":"ludicrous"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown speed status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleCustomCommandRequiresName(t *testing.T) {
	_, ts := newTestServer(t, &fakeTransport{})

	resp := postJSON(t, ts.URL+"/api/v1/commands/custom", `{"args":{}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTransportFailureMapsToBadGateway(t *testing.T) {
	transport := &fakeTransport{err: errors.New("iot endpoint unreachable")}
	_, ts := newTestServer(t, transport)

	resp := postJSON(t, ts.URL+"/api/v1/commands/charge", ``)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, &fakeTransport{})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
