package ws

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
	"liyu1981.xyz/robot-fleet-service/pkg/hub"
	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
)

// Server upgrades HTTP requests to sockets and joins each socket to the hub
// registry according to the subscribe/unsubscribe frames it sends.
type Server struct {
	registry   *hub.Registry
	limiter    *fleet.RateLimiterStore
	metrics    *metrics.Metrics
	sendBuffer int
	upgrader   websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*conn

	logger *zap.Logger
}

type Option func(*Server)

// WithLimiter rate limits subscribe/unsubscribe frames per connection.
func WithLimiter(limiter *fleet.RateLimiterStore) Option {
	return func(s *Server) {
		s.limiter = limiter
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithSendBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.sendBuffer = n
		}
	}
}

func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = check
	}
}

func NewServer(registry *hub.Registry, opts ...Option) *Server {
	s := &Server{
		registry:   registry,
		sendBuffer: common.DefaultWsSendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns:  make(map[string]*conn),
		logger: common.GetLoggerWith(common.LoggerNameWsServer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("Socket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	c := &conn{
		id:     id,
		server: s,
		socket: socket,
		send:   make(chan []byte, s.sendBuffer),
		done:   make(chan struct{}),
		logger: s.logger.With(zap.String("conn_id", id)),
	}

	s.mu.Lock()
	s.conns[id] = c
	s.mu.Unlock()
	s.metrics.ConnectionOpened(metrics.TransportWebsocket)

	c.logger.Info("Connection opened", zap.String("remote_addr", r.RemoteAddr))

	go c.writePump()
	go c.readPump()
}

func (s *Server) forget(c *conn) {
	s.mu.Lock()
	_, ok := s.conns[c.id]
	delete(s.conns, c.id)
	s.mu.Unlock()

	if ok {
		s.metrics.ConnectionClosed(metrics.TransportWebsocket)
	}
}

// Len is the number of open sockets.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close disconnects every open socket.
func (s *Server) Close() {
	s.mu.Lock()
	open := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		open = append(open, c)
	}
	s.mu.Unlock()

	for _, c := range open {
		c.close()
	}
	s.logger.Info("Socket server closed", zap.Int("connections", len(open)))
}
