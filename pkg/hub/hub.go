package hub

import (
	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

// Forwarder sees every update published on this instance, e.g. to relay it
// to other instances. Forward is called on the publishing goroutine and must
// not block.
type Forwarder interface {
	Forward(update models.StatusUpdate)
}

// Hub is the broadcaster: it fans a robot's status update out to every
// connection subscribed to that robot at the moment of the call.
type Hub struct {
	Registry *Registry

	metrics    *metrics.Metrics
	forwarders []Forwarder
	logger     *zap.Logger
}

func New(registry *Registry, m *metrics.Metrics) *Hub {
	return &Hub{
		Registry: registry,
		metrics:  m,
		logger:   common.GetLoggerWith(common.LoggerNameHub),
	}
}

// AddForwarder must be called before the hub starts publishing.
func (h *Hub) AddForwarder(f Forwarder) {
	h.forwarders = append(h.forwarders, f)
}

// Publish delivers update locally and hands it to every forwarder.
func (h *Hub) Publish(update models.StatusUpdate) {
	h.metrics.Published()
	h.Deliver(update)
	for _, f := range h.forwarders {
		f.Forward(update)
	}
}

// Deliver fans update out to local subscribers only. Delivery is
// fire-and-forget: a connection that refuses the message is logged and
// skipped, the rest still receive it. It returns the number of connections
// that accepted the update.
func (h *Hub) Deliver(update models.StatusUpdate) int {
	members := h.Registry.MembersOf(update.RobotID)

	delivered := 0
	for _, conn := range members {
		if err := conn.Send(update); err != nil {
			h.metrics.Delivered(false)
			h.logger.Warn("Failed to deliver status update",
				zap.String("conn_id", conn.ID()),
				zap.String("channel", Channel(update.RobotID)),
				zap.Error(err))
			continue
		}
		h.metrics.Delivered(true)
		delivered++
	}

	if delivered > 0 {
		h.logger.Debug("Delivered status update",
			zap.String("channel", Channel(update.RobotID)),
			zap.Int("members", delivered))
	}

	return delivered
}
