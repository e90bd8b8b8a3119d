package broadcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func startHub(t *testing.T, cfg Config) (*Hub, string) {
	t.Helper()
	hub := NewHub(cfg, zaptest.NewLogger(t))
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWelcomeAndProtocol(t *testing.T) {
	hub, url := startHub(t, DefaultConfig())
	conn := dial(t, url, http.Header{"User-Agent": []string{"hub-test"}})

	welcome := readJSON(t, conn)
	assert.Equal(t, "connection_established", welcome["type"])
	assert.NotEmpty(t, welcome["connection_id"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	assert.Equal(t, "pong", readJSON(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "subscribe", "subscription": "anomalies"}))
	sub := readJSON(t, conn)
	assert.Equal(t, "subscription_confirmed", sub["type"])
	assert.Equal(t, "anomalies", sub["subscription"])
	assert.Equal(t, "Subscribed to anomalies updates", sub["message"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "subscribe"}))
	assert.Equal(t, "all", readJSON(t, conn)["subscription"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "request_status"}))
	status := readJSON(t, conn)
	assert.Equal(t, "system_status", status["type"])
	assert.Equal(t, "online", status["status"])
	details := status["details"].(map[string]any)
	assert.Equal(t, float64(1), details["active_connections"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "request_connections"}))
	info := readJSON(t, conn)
	assert.Equal(t, "connection_info", info["type"])
	assert.Equal(t, float64(1), info["total_connections"])
	conns := info["connections"].([]any)
	client := conns[0].(map[string]any)["client_info"].(map[string]any)
	assert.Equal(t, "hub-test", client["user_agent"])
	assert.Equal(t, "unknown", client["origin"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "custom", "value": 7}))
	echo := readJSON(t, conn)
	assert.Equal(t, "message_received", echo["type"])
	assert.Equal(t, map[string]any{"type": "custom", "value": float64(7)}, echo["original_message"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	bad := readJSON(t, conn)
	assert.Equal(t, "error", bad["type"])
	assert.Equal(t, "Invalid JSON format", bad["message"])

	assert.Equal(t, 1, hub.Count())
}

func TestPublishReachesEveryClient(t *testing.T) {
	hub, url := startHub(t, DefaultConfig())

	first := dial(t, url, nil)
	second := dial(t, url, nil)
	readJSON(t, first)
	readJSON(t, second)

	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), map[string]any{"type": "superposition_anomaly"}))
	assert.Equal(t, "superposition_anomaly", readJSON(t, first)["type"])
	assert.Equal(t, "superposition_anomaly", readJSON(t, second)["type"])

	require.NoError(t, hub.BroadcastSystemStatus(context.Background(), "maintenance", nil))
	msg := readJSON(t, first)
	assert.Equal(t, "system_status", msg["type"])
	assert.Equal(t, "maintenance", msg["status"])
}

func TestPublishRejectsUnencodable(t *testing.T) {
	hub := NewHub(DefaultConfig(), zaptest.NewLogger(t))
	assert.Error(t, hub.Publish(context.Background(), map[string]any{"bad": make(chan int)}))
	assert.NoError(t, hub.Publish(context.Background(), map[string]any{"type": "nobody_listening"}))
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t, DefaultConfig())

	conn := dial(t, url, nil)
	readJSON(t, conn)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOnConnectHook(t *testing.T) {
	hub, url := startHub(t, DefaultConfig())
	fired := make(chan struct{}, 1)
	hub.OnConnect(func() { fired <- struct{}{} })

	conn := dial(t, url, nil)
	readJSON(t, conn)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnect hook did not run")
	}
}

func TestOriginAllowList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"http://localhost:3000"}
	_, url := startHub(t, cfg)

	conn := dial(t, url, http.Header{"Origin": []string{"http://localhost:3000"}})
	assert.Equal(t, "connection_established", readJSON(t, conn)["type"])

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
