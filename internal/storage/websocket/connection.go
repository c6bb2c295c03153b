package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/OCAP2/animconv/pkg/streaming"
	ws "github.com/gorilla/websocket"
)

const (
	sendChSize   = 256
	ackChSize    = 16
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
	ackTimeout   = 10 * time.Second
)

// initialBackoff is a var so tests can shorten reconnect delays.
var initialBackoff = time.Second

// connection manages a WebSocket connection with a single write goroutine.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	sendCh chan []byte
	ackCh  chan streaming.AckMessage
	done   chan struct{} // closed on shutdown
	closed bool

	wsURL  string
	secret string

	// start_session message replayed after a reconnect.
	sessionMsg []byte

	logger *slog.Logger
}

// link is one dialed connection and the loops bound to it.
type link struct {
	conn *ws.Conn
	lost chan struct{}
	once sync.Once
}

func newConnection(logger *slog.Logger) *connection {
	return &connection{
		sendCh: make(chan []byte, sendChSize),
		ackCh:  make(chan streaming.AckMessage, ackChSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// dial connects to the WebSocket server and starts read/write loops.
func (c *connection) dial(rawURL, secret string) error {
	c.wsURL = rawURL
	c.secret = secret

	conn, err := c.dialOnce()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.start(conn)
	return nil
}

// dialOnce performs a single dial, passing the secret as a query param.
func (c *connection) dialOnce() (*ws.Conn, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if c.secret != "" {
		q := u.Query()
		q.Set("secret", c.secret)
		u.RawQuery = q.Encode()
	}

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (c *connection) start(conn *ws.Conn) {
	l := &link{conn: conn, lost: make(chan struct{})}
	go c.writeLoop(l)
	go c.readLoop(l)
}

// drop stops both loops of l and starts a reconnect, once per link.
func (c *connection) drop(l *link, err error) {
	l.once.Do(func() {
		close(l.lost)
		select {
		case <-c.done:
			return
		default:
		}
		c.logger.Warn("Preview connection lost", "error", err)
		go c.reconnect(l.conn)
	})
}

// writeLoop drains sendCh and writes messages to l.
// It returns on error, when l is dropped, or on shutdown.
func (c *connection) writeLoop(l *link) {
	for {
		select {
		case <-c.done:
			return
		case <-l.lost:
			return
		case data := <-c.sendCh:
			if err := l.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.drop(l, err)
				return
			}
			if err := l.conn.WriteMessage(ws.TextMessage, data); err != nil {
				c.drop(l, err)
				return
			}
		}
	}
}

// readLoop reads ack messages from the server and routes them to ackCh.
func (c *connection) readLoop(l *link) {
	for {
		_, message, err := l.conn.ReadMessage()
		if err != nil {
			c.drop(l, err)
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil {
			c.logger.Debug("Non-ack message received", "size", len(message))
			continue
		}

		if ack.Type == streaming.TypeAck {
			select {
			case c.ackCh <- ack:
			default:
				c.logger.Debug("Ack channel full, dropping", "for", ack.For)
			}
		}
	}
}

// reconnect re-establishes the connection with exponential backoff, replays
// the session message and restarts the read/write loops.
func (c *connection) reconnect(old *ws.Conn) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.conn == old {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = old.Close()

	backoff := initialBackoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		c.logger.Info("Reconnecting to preview server", "attempt", attempt)
		conn, err := c.dialOnce()
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		session := c.sessionMsg
		c.mu.Unlock()

		if session != nil {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("Failed to set deadline for session replay", "error", err)
				_ = conn.Close()
				continue
			}
			if err := conn.WriteMessage(ws.TextMessage, session); err != nil {
				c.logger.Warn("Failed to replay session after reconnect", "error", err)
				_ = conn.Close()
				continue
			}
		}

		c.logger.Info("Preview server reconnected", "attempt", attempt)
		c.start(conn)
		return
	}

	c.logger.Error("Preview reconnect failed, giving up", "maxAttempts", maxReconnect)
}

// setSession stores the message replayed on reconnect. nil clears it.
func (c *connection) setSession(data []byte) {
	c.mu.Lock()
	c.sessionMsg = data
	c.mu.Unlock()
}

// send pushes data to the write loop. Non-blocking; drops if channel full.
func (c *connection) send(data []byte) bool {
	select {
	case c.sendCh <- data:
		return true
	default:
		c.logger.Warn("Preview send channel full, dropping message", "size", len(data))
		return false
	}
}

// sendAndWait sends data and blocks until the server acknowledges with a
// matching ack message or the timeout expires.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	if !c.send(data) {
		return fmt.Errorf("send channel full, dropped %q", ackFor)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ack := <-c.ackCh:
			if ack.For == ackFor {
				return nil
			}
			// Not our ack, keep waiting.
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.done:
			return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
		}
	}
}

// close sends a WebSocket close frame and shuts down all goroutines.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		return conn.Close()
	}
	return nil
}
