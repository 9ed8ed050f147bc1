package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// conn is one socket client. The hub calls Send from its own goroutine; the
// frame is queued and written by writePump. A client that falls a whole
// buffer behind is disconnected.
type conn struct {
	id     string
	server *Server
	socket *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func (c *conn) ID() string {
	return c.id
}

func (c *conn) Send(update models.StatusUpdate) error {
	payload, err := EncodeFrame(EventRobotStatus, update)
	if err != nil {
		return err
	}
	return c.enqueue(payload)
}

func (c *conn) enqueue(payload []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	default:
		c.logger.Warn("Send buffer full, closing connection", zap.Int("buffer", cap(c.send)))
		c.close()
		return ErrSendBufferFull
	}
}

// close is idempotent. done is closed before subscriptions are dropped, so
// a Join racing with close is undone by handle.
func (c *conn) close() {
	c.once.Do(func() {
		close(c.done)
		removed := c.server.registry.Drop(c)
		c.server.limiter.Forget(c.id)
		c.server.forget(c)
		c.logger.Info("Connection closed", zap.Int("dropped_subscriptions", removed))
	})
}

func (c *conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *conn) readPump() {
	defer func() {
		c.close()
		_ = c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Unexpected socket close", zap.Error(err))
			}
			return
		}
		c.handle(message)
	}
}

// handle applies subscribe and unsubscribe frames. Anything else is ignored
// but charged to the connection's limiter; a client that keeps sending junk
// past its budget is disconnected.
func (c *conn) handle(message []byte) {
	if c.closed() {
		return
	}

	frame, err := DecodeFrame(message)
	if err != nil {
		c.reject("Ignoring malformed frame", zap.Error(err))
		return
	}

	switch frame.Event {
	case EventSubscribe, EventUnsubscribe:
	default:
		c.reject("Ignoring unknown event", zap.String("event", frame.Event))
		return
	}

	robotID, err := frame.RobotID()
	if err != nil {
		c.reject("Ignoring invalid frame", zap.Error(err))
		return
	}

	if frame.Event == EventSubscribe {
		if c.server.registry.Join(c, robotID) {
			if c.closed() {
				c.server.registry.Leave(c, robotID)
				return
			}
			c.logger.Debug("Subscribed", zap.String("robot_id", robotID))
		}
		return
	}
	if c.server.registry.Leave(c, robotID) {
		c.logger.Debug("Unsubscribed", zap.String("robot_id", robotID))
	}
}

func (c *conn) reject(msg string, fields ...zap.Field) {
	c.logger.Warn(msg, fields...)
	if !c.server.limiter.Allow(c.id) {
		c.logger.Warn("Too many invalid frames, closing connection")
		c.close()
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Warn("Write failed", zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.socket.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
