package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

const (
	topicPrefix    = "fleet/robots/"
	topicSuffix    = "/status"
	SubscribeTopic = topicPrefix + "+" + topicSuffix

	defaultQos            byte = 0
	defaultPublishTimeout      = 2 * time.Second
	defaultOutboxSize          = 256
	connectRetries             = 4
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Topic is the MQTT topic a robot's status updates are relayed on.
func Topic(robotID string) string {
	return topicPrefix + robotID + topicSuffix
}

func robotIDFromTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, topicPrefix) || !strings.HasSuffix(topic, topicSuffix) {
		return "", false
	}
	id := topic[len(topicPrefix) : len(topic)-len(topicSuffix)]
	return id, id != "" && !strings.Contains(id, "/")
}

type envelope struct {
	Origin string              `json:"origin"`
	Update models.StatusUpdate `json:"update"`
}

// Deliverer hands a remote update to local subscribers without relaying it
// again. *hub.Hub satisfies it.
type Deliverer interface {
	Deliver(update models.StatusUpdate) int
}

type Config struct {
	Broker   string
	ClientID string
	User     string
	Password string
}

// Dial connects to the broker, retrying with exponential backoff.
func Dial(ctx context.Context, cfg Config) (mqtt.Client, error) {
	logger := common.GetLoggerWith(common.LoggerNameRelay)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "fleet-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Warn("Failed to connect to MQTT broker", zap.String("broker", cfg.Broker), zap.Error(token.Error()))
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, connectRetries), ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}

	logger.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker), zap.String("client_id", clientID))
	return client, nil
}

// Relay mirrors status updates between service instances over MQTT. Local
// updates go out through Forward and are published by a single goroutine
// started by Start; updates from other instances come back through the
// subscription and are delivered to local subscribers only.
type Relay struct {
	client         mqtt.Client
	local          Deliverer
	origin         string
	qos            byte
	publishTimeout time.Duration
	outboxSize     int
	breaker        *gobreaker.CircuitBreaker
	metrics        *metrics.Metrics
	logger         *zap.Logger

	outbox    chan models.StatusUpdate
	stop      chan struct{}
	drained   chan struct{}
	closeOnce sync.Once
}

type Option func(*Relay)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithBreakerSettings(settings gobreaker.Settings) Option {
	return func(r *Relay) {
		r.breaker = gobreaker.NewCircuitBreaker(settings)
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(r *Relay) {
		r.publishTimeout = d
	}
}

// WithOutboxSize bounds how many updates may wait for the broker. Updates
// forwarded while the outbox is full are dropped.
func WithOutboxSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.outboxSize = n
		}
	}
}

func DefaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:     "mqtt-relay",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	}
}

func New(client mqtt.Client, local Deliverer, opts ...Option) *Relay {
	origin := uuid.NewString()
	r := &Relay{
		client:         client,
		local:          local,
		origin:         origin,
		qos:            defaultQos,
		publishTimeout: defaultPublishTimeout,
		outboxSize:     defaultOutboxSize,
		stop:           make(chan struct{}),
		logger:         common.GetLoggerWith(common.LoggerNameRelay, zap.String("origin", origin)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.outbox = make(chan models.StatusUpdate, r.outboxSize)
	if r.breaker == nil {
		settings := DefaultBreakerSettings()
		settings.OnStateChange = func(name string, from gobreaker.State, to gobreaker.State) {
			r.logger.Warn("Relay circuit breaker changed state",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		}
		r.breaker = gobreaker.NewCircuitBreaker(settings)
	}
	return r
}

func (r *Relay) Origin() string {
	return r.origin
}

// Start subscribes to every robot status topic and starts publishing
// forwarded updates. It must be called once.
func (r *Relay) Start() error {
	token := r.client.Subscribe(SubscribeTopic, r.qos, r.handle)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", SubscribeTopic, token.Error())
	}
	r.logger.Info("Relay subscribed", zap.String("topic", SubscribeTopic))

	r.drained = make(chan struct{})
	go r.drain()
	return nil
}

// Close stops publishing and leaves the broker. Updates still in the outbox
// are discarded.
func (r *Relay) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		if r.drained != nil {
			<-r.drained
		}

		if token := r.client.Unsubscribe(SubscribeTopic); !token.WaitTimeout(r.publishTimeout) {
			r.logger.Warn("Timed out unsubscribing relay topic")
		}
		r.client.Disconnect(250)
		r.logger.Info("Relay closed")
	})
}

// Forward queues a local update for the other instances without waiting on
// the broker.
func (r *Relay) Forward(update models.StatusUpdate) {
	select {
	case r.outbox <- update:
	default:
		r.logger.Warn("Relay outbox full, update not forwarded", zap.String("robot_id", update.RobotID))
	}
}

func (r *Relay) drain() {
	defer close(r.drained)
	for {
		select {
		case <-r.stop:
			return
		case update := <-r.outbox:
			r.send(update)
		}
	}
}

// send publishes one update. Failures are logged and counted by the circuit
// breaker; while it is open updates are dropped without touching the broker.
func (r *Relay) send(update models.StatusUpdate) {
	_, err := r.breaker.Execute(func() (any, error) {
		return nil, r.publish(update)
	})
	if err == nil {
		r.metrics.Relayed(metrics.DirectionOut)
		return
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		r.logger.Debug("Relay breaker open, update not forwarded", zap.String("robot_id", update.RobotID))
		return
	}
	r.logger.Warn("Failed to forward status update", zap.String("robot_id", update.RobotID), zap.Error(err))
}

func (r *Relay) publish(update models.StatusUpdate) error {
	payload, err := json.Marshal(envelope{Origin: r.origin, Update: update})
	if err != nil {
		return err
	}

	token := r.client.Publish(Topic(update.RobotID), r.qos, false, payload)
	if !token.WaitTimeout(r.publishTimeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

func (r *Relay) handle(_ mqtt.Client, msg mqtt.Message) {
	robotID, ok := robotIDFromTopic(msg.Topic())
	if !ok {
		r.logger.Warn("Ignoring message on unexpected topic", zap.String("topic", msg.Topic()))
		return
	}

	var env envelope
	if err := json.Unmarshal(msg.Payload(), &env); err != nil {
		r.logger.Warn("Ignoring malformed relay message", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}
	if env.Origin == r.origin {
		return
	}
	if env.Update.RobotID != robotID {
		r.logger.Warn("Ignoring relay message for mismatched robot",
			zap.String("topic", msg.Topic()),
			zap.String("robot_id", env.Update.RobotID))
		return
	}

	r.metrics.Relayed(metrics.DirectionIn)
	r.local.Deliver(env.Update)
}
