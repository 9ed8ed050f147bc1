package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
	"liyu1981.xyz/robot-fleet-service/pkg/ws"
)

// ReconnectAttempts bounds the retries of one outage before the connection
// gives up and stays disconnected.
const ReconnectAttempts = 5

const writeWait = 5 * time.Second

var ErrNotConnected = errors.New("not connected")

// Listener receives the events of a shared connection. Callbacks run on the
// connection's read goroutine and must not block.
// OnReconnecting fires after a drop, before the connection is redialed.
type Listener struct {
	OnConnect      func()
	OnDisconnect   func()
	OnReconnecting func()
	OnStatus       func(update models.StatusUpdate)
}

// Shared is one socket connection used by any number of watchers. It is
// opened by the first Acquire and closed by the Release that brings the
// reference count back to zero.
type Shared struct {
	url        string
	dialer     *websocket.Dialer
	newBackOff func() backoff.BackOff
	logger     *zap.Logger

	mu        sync.Mutex
	refs      int
	session   *session
	socket    *websocket.Conn
	listeners map[int]Listener
	nextID    int
	interest  map[string]int

	writeMu sync.Mutex
}

type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func (sess *session) stopped() bool {
	select {
	case <-sess.done:
		return true
	default:
		return false
	}
}

type Option func(*Shared)

// WithBackOff replaces the reconnect schedule. The retry count is always
// capped at ReconnectAttempts.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(s *Shared) {
		s.newBackOff = newBackOff
	}
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(s *Shared) {
		s.dialer = dialer
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}

func NewShared(url string, opts ...Option) *Shared {
	s := &Shared{
		url:        url,
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		newBackOff: defaultBackOff,
		logger:     common.GetLoggerWith(common.LoggerNameStatusClient, zap.String("url", url)),
		listeners:  make(map[int]Listener),
		interest:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire takes a reference and starts connecting if this is the first one,
// or if an earlier connection gave up reconnecting.
func (s *Shared) Acquire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs++
	if s.session != nil && !s.session.stopped() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{ctx: ctx, cancel: cancel, done: make(chan struct{})}
	s.session = sess
	go s.run(sess)
}

// Release drops a reference and tears the connection down with the last one.
// It does not wait for the read goroutine; see Done.
func (s *Shared) Release() {
	s.mu.Lock()
	if s.refs == 0 {
		s.mu.Unlock()
		return
	}
	s.refs--
	if s.refs > 0 {
		s.mu.Unlock()
		return
	}

	sess, socket := s.session, s.socket
	s.session = nil
	s.socket = nil
	s.mu.Unlock()

	sess.cancel()
	if socket != nil {
		_ = socket.Close()
	}
	s.logger.Debug("Shared connection released")
}

// Done returns a channel closed when the active session stops, or nil when
// nothing is connected or connecting.
func (s *Shared) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	return s.session.done
}

func (s *Shared) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

func (s *Shared) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.socket != nil
}

// Listen registers l and reports whether the connection was already up at
// that moment; a listener registered while connected will not see that
// connect event. The returned func unregisters l.
func (s *Shared) Listen(l Listener) (stop func(), connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}, s.socket != nil
}

// retain and forget count how many mounted watchers want a robot, so the
// unsubscribe goes out only when the last of them leaves.
func (s *Shared) retain(robotID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interest[robotID]++
}

func (s *Shared) forget(robotID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interest[robotID]--
	remaining := s.interest[robotID]
	if remaining <= 0 {
		delete(s.interest, robotID)
		remaining = 0
	}
	return remaining
}

// Emit sends one frame. While disconnected it does nothing and returns
// ErrNotConnected; a failed write closes the socket, which surfaces as a
// disconnect to every listener.
func (s *Shared) Emit(event string, robotID string) error {
	s.mu.Lock()
	socket := s.socket
	s.mu.Unlock()

	if socket == nil {
		return ErrNotConnected
	}

	payload, err := ws.EncodeFrame(event, robotID)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = socket.SetWriteDeadline(time.Now().Add(writeWait))
	if err := socket.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.logger.Warn("Emit failed, dropping connection", zap.String("event", event), zap.Error(err))
		_ = socket.Close()
		return err
	}
	return nil
}

func (s *Shared) run(sess *session) {
	defer close(sess.done)

	for {
		socket, err := s.connect(sess.ctx)
		if err != nil {
			if sess.ctx.Err() == nil {
				s.logger.Warn("Giving up reconnecting", zap.Int("attempts", ReconnectAttempts), zap.Error(err))
				s.notify(sess, func(l Listener) func() { return l.OnDisconnect })
			}
			return
		}

		if !s.attach(sess, socket) {
			_ = socket.Close()
			return
		}
		s.logger.Info("Connected")

		s.readLoop(sess, socket)

		if !s.detach(sess, socket) {
			return
		}
		s.logger.Info("Disconnected")

		if sess.ctx.Err() != nil {
			return
		}
		s.notify(sess, func(l Listener) func() { return l.OnReconnecting })
	}
}

func (s *Shared) connect(ctx context.Context) (*websocket.Conn, error) {
	var socket *websocket.Conn
	attempt := 0

	op := func() error {
		attempt++
		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			s.logger.Debug("Dial failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		socket = conn
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), ReconnectAttempts), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return socket, nil
}

// attach publishes socket as the live connection and fires OnConnect. It
// fails when the session was released while dialing.
func (s *Shared) attach(sess *session, socket *websocket.Conn) bool {
	s.mu.Lock()
	if s.session != sess {
		s.mu.Unlock()
		return false
	}
	s.socket = socket
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	for _, l := range listeners {
		if l.OnConnect != nil {
			l.OnConnect()
		}
	}
	return true
}

func (s *Shared) detach(sess *session, socket *websocket.Conn) bool {
	s.mu.Lock()
	if s.session != sess {
		s.mu.Unlock()
		return false
	}
	if s.socket == socket {
		s.socket = nil
	}
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	for _, l := range listeners {
		if l.OnDisconnect != nil {
			l.OnDisconnect()
		}
	}
	return true
}

func (s *Shared) notify(sess *session, pick func(Listener) func()) {
	s.mu.Lock()
	if s.session != sess {
		s.mu.Unlock()
		return
	}
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	for _, l := range listeners {
		if fn := pick(l); fn != nil {
			fn()
		}
	}
}

func (s *Shared) snapshotLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

func (s *Shared) readLoop(sess *session, socket *websocket.Conn) {
	for {
		_, message, err := socket.ReadMessage()
		if err != nil {
			if sess.ctx.Err() == nil {
				s.logger.Debug("Read failed", zap.Error(err))
			}
			_ = socket.Close()
			return
		}

		frame, err := ws.DecodeFrame(message)
		if err != nil || frame.Event != ws.EventRobotStatus {
			s.logger.Debug("Ignoring frame", zap.ByteString("frame", message))
			continue
		}

		var update models.StatusUpdate
		if err := json.Unmarshal(frame.Data, &update); err != nil {
			s.logger.Warn("Ignoring malformed status payload", zap.Error(err))
			continue
		}

		s.mu.Lock()
		listeners := s.snapshotLocked()
		s.mu.Unlock()

		for _, l := range listeners {
			if l.OnStatus != nil {
				l.OnStatus(update)
			}
		}
	}
}
