package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fleet"

const (
	TransportWebsocket = "websocket"
	TransportGrpc      = "grpc"

	DirectionIn  = "in"
	DirectionOut = "out"
)

// Metrics owns its registry so tests can build as many as they like. Every
// method is safe on a nil receiver, which disables collection.
type Metrics struct {
	Registry *prometheus.Registry

	TicksTotal          prometheus.Counter
	TicksSkipped        prometheus.Counter
	RobotUpdateFailures prometheus.Counter
	UpdatesPublished    prometheus.Counter
	MessagesDelivered   prometheus.Counter
	DeliveryFailures    prometheus.Counter
	Subscriptions       prometheus.Gauge
	Connections         *prometheus.GaugeVec
	RelayMessages       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mutator", Name: "ticks_total",
			Help: "Status mutator ticks that ran.",
		}),
		TicksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mutator", Name: "ticks_skipped_total",
			Help: "Ticks skipped because the previous tick was still running.",
		}),
		RobotUpdateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mutator", Name: "robot_update_failures_total",
			Help: "Per-robot status updates that failed to persist.",
		}),
		UpdatesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hub", Name: "updates_published_total",
			Help: "Status updates handed to the broadcaster.",
		}),
		MessagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hub", Name: "messages_delivered_total",
			Help: "Status messages handed to subscriber connections.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "hub", Name: "delivery_failures_total",
			Help: "Status messages a subscriber connection refused.",
		}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "hub", Name: "subscriptions",
			Help: "Active (connection, robot) subscriptions.",
		}),
		Connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "hub", Name: "connections",
			Help: "Open subscriber connections by transport.",
		}, []string{"transport"}),
		RelayMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "relay", Name: "messages_total",
			Help: "Status updates exchanged with the MQTT relay.",
		}, []string{"direction"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TicksTotal,
		m.TicksSkipped,
		m.RobotUpdateFailures,
		m.UpdatesPublished,
		m.MessagesDelivered,
		m.DeliveryFailures,
		m.Subscriptions,
		m.Connections,
		m.RelayMessages,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) Tick() {
	if m != nil {
		m.TicksTotal.Inc()
	}
}

func (m *Metrics) TickSkipped() {
	if m != nil {
		m.TicksSkipped.Inc()
	}
}

func (m *Metrics) RobotUpdateFailed() {
	if m != nil {
		m.RobotUpdateFailures.Inc()
	}
}

func (m *Metrics) Published() {
	if m != nil {
		m.UpdatesPublished.Inc()
	}
}

func (m *Metrics) Delivered(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.MessagesDelivered.Inc()
	} else {
		m.DeliveryFailures.Inc()
	}
}

func (m *Metrics) SetSubscriptions(n int) {
	if m != nil {
		m.Subscriptions.Set(float64(n))
	}
}

func (m *Metrics) ConnectionOpened(transport string) {
	if m != nil {
		m.Connections.WithLabelValues(transport).Inc()
	}
}

func (m *Metrics) ConnectionClosed(transport string) {
	if m != nil {
		m.Connections.WithLabelValues(transport).Dec()
	}
}

func (m *Metrics) Relayed(direction string) {
	if m != nil {
		m.RelayMessages.WithLabelValues(direction).Inc()
	}
}
