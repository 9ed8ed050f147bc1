package relay

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/hub"
	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
	_ "liyu1981.xyz/robot-fleet-service/pkg/testing"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// fakeBroker delivers every publish synchronously to every client
// subscribed to the relay topic, including the publisher itself.
type fakeBroker struct {
	mu         sync.Mutex
	handlers   map[*fakeClient]mqtt.MessageHandler
	publishErr error
	published  int
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[*fakeClient]mqtt.MessageHandler)}
}

func (b *fakeBroker) client() *fakeClient {
	return &fakeClient{broker: b, connected: true}
}

func (b *fakeBroker) publishedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published
}

func (b *fakeBroker) inject(topic string, payload string) {
	b.mu.Lock()
	handlers := make([]mqtt.MessageHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(nil, &fakeMessage{topic: topic, payload: []byte(payload)})
	}
}

type fakeClient struct {
	broker    *fakeBroker
	connected bool
}

func (c *fakeClient) IsConnected() bool      { return c.connected }
func (c *fakeClient) IsConnectionOpen() bool { return c.connected }
func (c *fakeClient) Connect() mqtt.Token    { c.connected = true; return &fakeToken{} }
func (c *fakeClient) Disconnect(uint)        { c.connected = false }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	b := c.broker
	b.mu.Lock()
	b.published++
	err := b.publishErr
	b.mu.Unlock()
	if err != nil {
		return &fakeToken{err: err}
	}

	b.inject(topic, string(payload.([]byte)))
	return &fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	c.broker.handlers[c] = callback
	return &fakeToken{}
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return c.Subscribe("", 0, callback)
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	delete(c.broker.handlers, c)
	return &fakeToken{}
}

func (c *fakeClient) AddRoute(topic string, callback mqtt.MessageHandler) {}

func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

type recordingConn struct {
	id       string
	mu       sync.Mutex
	received []models.StatusUpdate
}

func (c *recordingConn) ID() string { return c.id }

func (c *recordingConn) Send(update models.StatusUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, update)
	return nil
}

func (c *recordingConn) all() []models.StatusUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.StatusUpdate(nil), c.received...)
}

type instance struct {
	hub     *hub.Hub
	relay   *Relay
	metrics *metrics.Metrics
}

func newInstance(t *testing.T, broker *fakeBroker, opts ...Option) *instance {
	m := metrics.New()
	h := hub.New(hub.NewRegistry(m), m)
	r := New(broker.client(), h, append([]Option{WithMetrics(m)}, opts...)...)
	require.NoError(t, r.Start())
	t.Cleanup(r.Close)
	h.AddForwarder(r)
	return &instance{hub: h, relay: r, metrics: m}
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "fleet/robots/r-1/status", Topic("r-1"))

	id, ok := robotIDFromTopic("fleet/robots/r-1/status")
	assert.True(t, ok)
	assert.Equal(t, "r-1", id)

	for _, topic := range []string{"fleet/robots//status", "fleet/robots/a/b/status", "other/r-1/status", "fleet/robots/r-1"} {
		_, ok := robotIDFromTopic(topic)
		assert.False(t, ok, topic)
	}
}

func TestRelayAcrossInstances(t *testing.T) {
	common.SetTestLoggerNop()

	broker := newFakeBroker()
	a := newInstance(t, broker)
	b := newInstance(t, broker)
	assert.NotEqual(t, a.relay.Origin(), b.relay.Origin())

	onA := &recordingConn{id: "on-a"}
	onB := &recordingConn{id: "on-b"}
	a.hub.Registry.Join(onA, "r-1")
	b.hub.Registry.Join(onB, "r-1")

	update := models.StatusUpdate{RobotID: "r-1", BatteryLevel: 33, Status: models.RobotStatusOnline, HealthStatus: models.HealthStatusWarning}
	a.hub.Publish(update)

	// local delivery happens before the relay sees the update
	assert.Equal(t, []models.StatusUpdate{update}, onA.all())

	require.Eventually(t, func() bool { return len(onB.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []models.StatusUpdate{update}, onB.all())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(a.metrics.RelayMessages.WithLabelValues(metrics.DirectionOut)) == 1
	}, time.Second, 5*time.Millisecond)

	// the publisher ignores its own echo
	assert.Equal(t, []models.StatusUpdate{update}, onA.all())
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.RelayMessages.WithLabelValues(metrics.DirectionIn)))
	assert.Equal(t, 0.0, testutil.ToFloat64(a.metrics.RelayMessages.WithLabelValues(metrics.DirectionIn)))

	// remote updates are not relayed a second time
	assert.Never(t, func() bool { return broker.publishedCount() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 1, broker.publishedCount())
}

func TestRelayIgnoresBadMessages(t *testing.T) {
	common.SetTestLoggerNop()

	broker := newFakeBroker()
	a := newInstance(t, broker)
	conn := &recordingConn{id: "c"}
	a.hub.Registry.Join(conn, "r-1")

	broker.inject("fleet/robots/r-1/status", "not json")
	broker.inject("fleet/robots/r-1/status", `{"origin":"other","update":{"robotId":"r-2","batteryLevel":1}}`)
	broker.inject("elsewhere", `{"origin":"other","update":{"robotId":"r-1","batteryLevel":1}}`)
	assert.Empty(t, conn.all())

	broker.inject("fleet/robots/r-1/status", `{"origin":"other","update":{"robotId":"r-1","batteryLevel":12,"status":"ERROR","healthStatus":"CRITICAL"}}`)
	assert.Equal(t, []models.StatusUpdate{{RobotID: "r-1", BatteryLevel: 12, Status: models.RobotStatusError, HealthStatus: models.HealthStatusCritical}}, conn.all())
}

func TestRelayBreakerOpensOnPublishFailures(t *testing.T) {
	common.SetTestLoggerNop()

	broker := newFakeBroker()
	broker.publishErr = errors.New("broker unavailable")

	settings := DefaultBreakerSettings()
	settings.Timeout = time.Hour
	a := newInstance(t, broker, WithBreakerSettings(settings))

	conn := &recordingConn{id: "c"}
	a.hub.Registry.Join(conn, "r-1")

	for i := range 8 {
		a.hub.Publish(models.StatusUpdate{RobotID: "r-1", BatteryLevel: 90 - i})
	}

	// local delivery never depends on the broker
	assert.Len(t, conn.all(), 8)

	require.Eventually(t, func() bool {
		return len(a.relay.outbox) == 0 && a.relay.breaker.State() == gobreaker.StateOpen
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, broker.publishedCount())
	assert.Equal(t, 0.0, testutil.ToFloat64(a.metrics.RelayMessages.WithLabelValues(metrics.DirectionOut)))
}

func TestRelayClose(t *testing.T) {
	common.SetTestLoggerNop()

	broker := newFakeBroker()
	client := broker.client()
	r := New(client, hub.New(hub.NewRegistry(nil), nil))
	require.NoError(t, r.Start())
	assert.Len(t, broker.handlers, 1)

	r.Close()
	r.Close()
	assert.Empty(t, broker.handlers)
	assert.False(t, client.IsConnected())
}

// stallingClient never completes a publish until release is closed.
type stallingClient struct {
	*fakeClient
	release chan struct{}
}

type stallingToken struct {
	fakeToken
	release chan struct{}
}

func (t *stallingToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.release:
		return true
	case <-time.After(d):
		return false
	}
}

func (c *stallingClient) Publish(string, byte, bool, interface{}) mqtt.Token {
	return &stallingToken{release: c.release}
}

func TestPublishDoesNotWaitForSlowBroker(t *testing.T) {
	common.SetTestLoggerNop()

	client := &stallingClient{fakeClient: newFakeBroker().client(), release: make(chan struct{})}
	h := hub.New(hub.NewRegistry(nil), nil)
	r := New(client, h, WithPublishTimeout(time.Hour), WithOutboxSize(2))
	require.NoError(t, r.Start())
	h.AddForwarder(r)

	conn := &recordingConn{id: "c"}
	h.Registry.Join(conn, "r-1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 10 {
			h.Publish(models.StatusUpdate{RobotID: "r-1", BatteryLevel: 90 - i})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on the broker")
	}
	assert.Len(t, conn.all(), 10)

	close(client.release)
	r.Close()
}

func TestRelayStartFailure(t *testing.T) {
	common.SetTestLoggerNop()

	r := New(&failingSubscribeClient{fakeClient: newFakeBroker().client()}, hub.New(hub.NewRegistry(nil), nil))
	err := r.Start()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), SubscribeTopic))
}

type failingSubscribeClient struct {
	*fakeClient
}

func (c *failingSubscribeClient) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token {
	return &fakeToken{err: errors.New("not authorized")}
}
