package client

import (
	"sync"

	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
	"liyu1981.xyz/robot-fleet-service/pkg/ws"
)

type ConnectionState string

const (
	Disconnected ConnectionState = "disconnected"
	Connecting   ConnectionState = "connecting"
	Connected    ConnectionState = "connected"
)

type State struct {
	Connection   ConnectionState     `json:"connection"`
	BatteryLevel int                 `json:"batteryLevel"`
	Status       models.RobotStatus  `json:"status"`
	HealthStatus models.HealthStatus `json:"healthStatus"`
}

func initialState() State {
	return State{
		Connection:   Disconnected,
		BatteryLevel: 0,
		Status:       models.RobotStatusOffline,
		HealthStatus: models.HealthStatusGood,
	}
}

// Watcher tracks the live status of one robot over a shared connection. It
// subscribes every time the connection comes up and unsubscribes on Unmount.
type Watcher struct {
	robotID  string
	shared   *Shared
	onChange func(State)
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	mounted bool
	stop    func()
}

type WatcherOption func(*Watcher)

// WithOnChange is called with a copy of the state after every change, on
// the connection's read goroutine.
func WithOnChange(fn func(State)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

func NewWatcher(shared *Shared, robotID string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		robotID: robotID,
		shared:  shared,
		state:   initialState(),
		logger:  common.GetLoggerWith(common.LoggerNameStatusClient, zap.String("robot_id", robotID)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) RobotID() string {
	return w.robotID
}

func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Mount starts tracking. Mounting an already mounted watcher is a no-op.
func (w *Watcher) Mount() {
	w.mu.Lock()
	if w.mounted {
		w.mu.Unlock()
		return
	}
	w.mounted = true
	w.mu.Unlock()

	w.update(func(s *State) { s.Connection = Connecting })

	// listen before acquiring so no event of a fresh connection is missed
	stop, connected := w.shared.Listen(Listener{
		OnConnect:      w.handleConnect,
		OnDisconnect:   w.handleDisconnect,
		OnReconnecting: w.handleReconnecting,
		OnStatus:       w.handleStatus,
	})

	w.mu.Lock()
	w.stop = stop
	w.mu.Unlock()

	w.shared.retain(w.robotID)
	w.shared.Acquire()

	if connected {
		w.handleConnect()
	}
}

// Unmount unsubscribes and releases the shared connection. The connection
// itself stays open while other watchers hold it, and the unsubscribe is
// only sent once no mounted watcher on it still wants this robot.
func (w *Watcher) Unmount() {
	w.mu.Lock()
	if !w.mounted {
		w.mu.Unlock()
		return
	}
	w.mounted = false
	stop := w.stop
	w.stop = nil
	w.mu.Unlock()

	if stop != nil {
		stop()
	}

	if w.shared.forget(w.robotID) == 0 {
		_ = w.shared.Emit(ws.EventUnsubscribe, w.robotID)
	}
	w.shared.Release()
}

func (w *Watcher) handleConnect() {
	if !w.isMounted() {
		return
	}
	w.update(func(s *State) { s.Connection = Connected })
	if err := w.shared.Emit(ws.EventSubscribe, w.robotID); err != nil {
		w.logger.Debug("Subscribe not sent", zap.Error(err))
	}
}

func (w *Watcher) handleDisconnect() {
	w.update(func(s *State) { s.Connection = Disconnected })
}

func (w *Watcher) handleReconnecting() {
	if !w.isMounted() {
		return
	}
	w.update(func(s *State) { s.Connection = Connecting })
}

func (w *Watcher) handleStatus(update models.StatusUpdate) {
	if update.RobotID != w.robotID {
		return
	}
	w.update(func(s *State) {
		s.BatteryLevel = update.BatteryLevel
		s.Status = update.Status
		s.HealthStatus = update.HealthStatus
	})
}

func (w *Watcher) isMounted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mounted
}

func (w *Watcher) update(change func(*State)) {
	w.mu.Lock()
	change(&w.state)
	next := w.state
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(next)
	}
}
