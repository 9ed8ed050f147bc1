package ws

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
	"liyu1981.xyz/robot-fleet-service/pkg/hub"
	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
	_ "liyu1981.xyz/robot-fleet-service/pkg/testing"
)

type testEnv struct {
	hub     *hub.Hub
	server  *Server
	metrics *metrics.Metrics
	url     string
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	common.SetTestLoggerNop()

	m := metrics.New()
	registry := hub.NewRegistry(m)
	server := NewServer(registry, append([]Option{WithMetrics(m)}, opts...)...)
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		server.Close()
		ts.Close()
	})

	return &testEnv{
		hub:     hub.New(registry, m),
		server:  server,
		metrics: m,
		url:     "ws" + strings.TrimPrefix(ts.URL, "http"),
	}
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	client, _, err := websocket.DefaultDialer.Dial(e.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func emit(t *testing.T, client *websocket.Conn, event string, robotID string) {
	payload, err := EncodeFrame(event, robotID)
	require.NoError(t, err)
	require.NoError(t, client.WriteMessage(websocket.TextMessage, payload))
}

func readStatus(t *testing.T, client *websocket.Conn) models.StatusUpdate {
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := client.ReadMessage()
	require.NoError(t, err)

	frame, err := DecodeFrame(message)
	require.NoError(t, err)
	require.Equal(t, EventRobotStatus, frame.Event)

	var update models.StatusUpdate
	require.NoError(t, json.Unmarshal(frame.Data, &update))
	return update
}

func TestSubscribeReceivesStatus(t *testing.T) {
	env := newTestEnv(t)
	client := env.dial(t)

	emit(t, client, EventSubscribe, "r-1")
	require.Eventually(t, func() bool { return env.hub.Registry.Count() == 1 }, time.Second, 5*time.Millisecond)

	// a second subscribe for the same robot must not double deliveries
	emit(t, client, EventSubscribe, "r-1")

	update := models.StatusUpdate{RobotID: "r-1", BatteryLevel: 19, Status: models.RobotStatusError, HealthStatus: models.HealthStatusCritical}
	env.hub.Publish(models.StatusUpdate{RobotID: "r-2", BatteryLevel: 50})
	env.hub.Publish(update)

	assert.Equal(t, update, readStatus(t, client))
	assert.Equal(t, 1, env.hub.Registry.Count())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Connections.WithLabelValues(metrics.TransportWebsocket)))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	env := newTestEnv(t)
	client := env.dial(t)

	emit(t, client, EventSubscribe, "r-1")
	emit(t, client, EventSubscribe, "r-2")
	require.Eventually(t, func() bool { return env.hub.Registry.Count() == 2 }, time.Second, 5*time.Millisecond)

	emit(t, client, EventUnsubscribe, "r-1")
	emit(t, client, EventUnsubscribe, "never-joined")
	require.Eventually(t, func() bool { return env.hub.Registry.Count() == 1 }, time.Second, 5*time.Millisecond)

	env.hub.Publish(models.StatusUpdate{RobotID: "r-1", BatteryLevel: 10})
	env.hub.Publish(models.StatusUpdate{RobotID: "r-2", BatteryLevel: 20})

	assert.Equal(t, "r-2", readStatus(t, client).RobotID)
}

func TestDisconnectDropsSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	client := env.dial(t)
	other := env.dial(t)

	emit(t, client, EventSubscribe, "r-1")
	emit(t, client, EventSubscribe, "r-2")
	emit(t, other, EventSubscribe, "r-1")
	require.Eventually(t, func() bool { return env.hub.Registry.Count() == 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Close())

	require.Eventually(t, func() bool { return env.hub.Registry.Count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, env.server.Len())
	assert.Len(t, env.hub.Registry.MembersOf("r-1"), 1)
	assert.Empty(t, env.hub.Registry.MembersOf("r-2"))

	env.hub.Publish(models.StatusUpdate{RobotID: "r-1", BatteryLevel: 42})
	assert.Equal(t, 42, readStatus(t, other).BatteryLevel)
}

func TestMalformedFramesAreIgnored(t *testing.T) {
	env := newTestEnv(t)
	client := env.dial(t)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"event":"subscribe","data":42}`)))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"event":"subscribe","data":""}`)))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"event":"dance","data":"r-1"}`)))
	emit(t, client, EventSubscribe, "r-1")

	require.Eventually(t, func() bool { return env.hub.Registry.Count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, env.server.Len())
}

func TestManySubscribesOnOneConnectionAllApply(t *testing.T) {
	env := newTestEnv(t, WithLimiter(fleet.NewRateLimiterStore(10, 20)))
	client := env.dial(t)

	for i := range 25 {
		emit(t, client, EventSubscribe, fmt.Sprintf("r-%d", i))
	}
	require.Eventually(t, func() bool { return env.hub.Registry.Count() == 25 }, time.Second, 5*time.Millisecond)

	for i := range 25 {
		emit(t, client, EventUnsubscribe, fmt.Sprintf("r-%d", i))
	}
	require.Eventually(t, func() bool { return env.hub.Registry.Count() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, env.server.Len())
}

func TestInvalidFrameFloodClosesConnection(t *testing.T) {
	env := newTestEnv(t, WithLimiter(fleet.NewRateLimiterStore(0, 2)))
	client := env.dial(t)

	emit(t, client, EventSubscribe, "r-1")
	require.Eventually(t, func() bool { return env.hub.Registry.Count() == 1 }, time.Second, 5*time.Millisecond)

	for range 3 {
		require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("not json")))
	}

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	require.Eventually(t, func() bool { return env.server.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, env.hub.Registry.Count())
}

func TestServerCloseDisconnectsClients(t *testing.T) {
	env := newTestEnv(t)
	client := env.dial(t)

	emit(t, client, EventSubscribe, "r-1")
	require.Eventually(t, func() bool { return env.hub.Registry.Count() == 1 }, time.Second, 5*time.Millisecond)

	env.server.Close()

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Equal(t, 0, env.hub.Registry.Count())
	assert.Equal(t, 0, env.server.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(env.metrics.Connections.WithLabelValues(metrics.TransportWebsocket)))
}

func TestSendBufferFullClosesConnection(t *testing.T) {
	var buf bytes.Buffer
	common.SetTestCaptureLogger(&buf, zap.WarnLevel)

	registry := hub.NewRegistry(nil)
	server := NewServer(registry, WithSendBuffer(1))
	c := &conn{
		id:     "slow",
		server: server,
		send:   make(chan []byte, 1),
		done:   make(chan struct{}),
		logger: server.logger,
	}
	registry.Join(c, "r-1")

	update := models.StatusUpdate{RobotID: "r-1", BatteryLevel: 80}
	require.NoError(t, c.Send(update))
	assert.ErrorIs(t, c.Send(update), ErrSendBufferFull)
	assert.ErrorIs(t, c.Send(update), ErrConnClosed)

	assert.Equal(t, 0, registry.Count())
	assert.Contains(t, buf.String(), "Send buffer full, closing connection")
}

func TestFrameCodec(t *testing.T) {
	payload, err := EncodeFrame(EventSubscribe, "r-9")
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"subscribe","data":"r-9"}`, string(payload))

	frame, err := DecodeFrame(payload)
	require.NoError(t, err)
	robotID, err := frame.RobotID()
	require.NoError(t, err)
	assert.Equal(t, "r-9", robotID)

	_, err = DecodeFrame([]byte(`{"data":"r-9"}`))
	assert.Error(t, err)

	payload, err = EncodeFrame(EventRobotStatus, models.StatusUpdate{RobotID: "r-9", BatteryLevel: 3, Status: models.RobotStatusError, HealthStatus: models.HealthStatusCritical})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"robot:status","data":{"robotId":"r-9","batteryLevel":3,"status":"ERROR","healthStatus":"CRITICAL"}}`, string(payload))
}
