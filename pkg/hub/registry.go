package hub

import (
	"sort"
	"sync"

	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

const channelPrefix = "robot:"

// Channel is the delivery channel name a robot's updates are published on.
func Channel(robotID string) string {
	return channelPrefix + robotID
}

// Conn is one subscriber connection. ID must be unique among live
// connections; Send must not block on a slow peer.
type Conn interface {
	ID() string
	Send(update models.StatusUpdate) error
}

// Registry maps connections to the robot channels they joined. All reads
// observe every Join/Leave/Drop that returned before them.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]map[string]Conn     // channel -> conn id -> conn
	conns    map[string]map[string]struct{} // conn id -> channels
	count    int
	metrics  *metrics.Metrics
}

func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		channels: make(map[string]map[string]Conn),
		conns:    make(map[string]map[string]struct{}),
		metrics:  m,
	}
}

// Join subscribes conn to robotID. Joining twice is a no-op; the return
// value reports whether a new subscription was created.
func (r *Registry) Join(conn Conn, robotID string) bool {
	channel := Channel(robotID)

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[channel]
	if !ok {
		members = make(map[string]Conn)
		r.channels[channel] = members
	}
	if _, exists := members[conn.ID()]; exists {
		return false
	}
	members[conn.ID()] = conn

	joined, ok := r.conns[conn.ID()]
	if !ok {
		joined = make(map[string]struct{})
		r.conns[conn.ID()] = joined
	}
	joined[channel] = struct{}{}

	r.count++
	r.metrics.SetSubscriptions(r.count)
	return true
}

// Leave removes the subscription if present; leaving a channel that was
// never joined is a no-op.
func (r *Registry) Leave(conn Conn, robotID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removeLocked(conn.ID(), Channel(robotID)) {
		return false
	}
	r.metrics.SetSubscriptions(r.count)
	return true
}

// Drop removes every subscription held by conn, for use when its transport
// closes. It returns how many were removed.
func (r *Registry) Drop(conn Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined := r.conns[conn.ID()]
	removed := 0
	for channel := range joined {
		if r.removeLocked(conn.ID(), channel) {
			removed++
		}
	}
	r.metrics.SetSubscriptions(r.count)
	return removed
}

func (r *Registry) removeLocked(connID string, channel string) bool {
	members, ok := r.channels[channel]
	if !ok {
		return false
	}
	if _, exists := members[connID]; !exists {
		return false
	}

	delete(members, connID)
	if len(members) == 0 {
		delete(r.channels, channel)
	}

	if joined, ok := r.conns[connID]; ok {
		delete(joined, channel)
		if len(joined) == 0 {
			delete(r.conns, connID)
		}
	}

	r.count--
	return true
}

// MembersOf returns a snapshot of the connections subscribed to robotID.
func (r *Registry) MembersOf(robotID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.channels[Channel(robotID)]
	out := make([]Conn, 0, len(members))
	for _, conn := range members {
		out = append(out, conn)
	}
	return out
}

// SubscriptionsOf lists the robot ids conn is subscribed to, sorted.
func (r *Registry) SubscriptionsOf(conn Conn) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	joined := r.conns[conn.ID()]
	out := make([]string, 0, len(joined))
	for channel := range joined {
		out = append(out, channel[len(channelPrefix):])
	}
	sort.Strings(out)
	return out
}

// Count is the number of live (connection, robot) subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
