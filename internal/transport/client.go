package transport

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	sendChSize   = 4096
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
)

// ClientConfig holds websocket client settings.
type ClientConfig struct {
	URL    string
	Secret string
	Logger *slog.Logger
}

// Client is a websocket transport to a Hub. Each connection gets one writer
// and one reader goroutine; the reader hands every text frame to the
// subscribers. A dropped connection is redialled with exponential backoff, and
// only once per connection no matter which loop notices first.
type Client struct {
	mu     sync.Mutex
	link   *link
	sendCh chan []byte
	done   chan struct{} // closed on shutdown
	closed bool
	subs   subscribers
	// unsent holds frames taken off sendCh whose write failed; the next
	// connection writes them first.
	unsent [][]byte

	cfg    ClientConfig
	logger *slog.Logger

	// reconnected, when set, is called after every successful redial.
	reconnected func()
}

// link is one connection and its two loops.
type link struct {
	conn  *ws.Conn
	lost  chan struct{}
	loops sync.WaitGroup
}

// NewClient creates a client; Dial connects it.
func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		sendCh: make(chan []byte, sendChSize),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger.With("transport", "websocket", "url", cfg.URL),
	}
}

// Dial connects to the hub and starts the read and write loops.
func (c *Client) Dial() error {
	conn, err := c.dialOnce()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	c.start(conn)
	c.mu.Unlock()

	c.logger.Info("Connected to hub")
	return nil
}

// start installs conn as the current link. Callers hold c.mu.
func (c *Client) start(conn *ws.Conn) {
	l := &link{conn: conn, lost: make(chan struct{})}
	l.loops.Add(2)
	c.link = l
	go c.writeLoop(l)
	go c.readLoop(l)
}

// connectionLost retires l and starts a reconnect. Calls for a link that is
// already retired, or after Close, do nothing.
func (c *Client) connectionLost(l *link, err error) {
	c.mu.Lock()
	if c.closed || c.link != l {
		c.mu.Unlock()
		return
	}
	c.link = nil
	c.mu.Unlock()

	c.logger.Warn("WebSocket connection lost", "error", err)
	close(l.lost)
	_ = l.conn.Close()
	go c.reconnect(l)
}

// OnReconnect registers fn to run after the connection has been re-established.
func (c *Client) OnReconnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnected = fn
}

// dialOnce performs a single websocket dial with the secret query param.
func (c *Client) dialOnce() (*ws.Conn, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if c.cfg.Secret != "" {
		q := u.Query()
		q.Set("secret", c.cfg.Secret)
		u.RawQuery = q.Encode()
	}

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// Publish queues data for the write loop. It never blocks.
func (c *Client) Publish(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.sendCh <- data:
		return nil
	default:
		c.logger.Warn("WebSocket send channel full, dropping message")
		return ErrBufferFull
	}
}

func (c *Client) Subscribe(fn Receiver) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.subs.add(fn)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.subs.remove(id)
	}
}

// writeLoop writes frames left over from the previous link, then drains sendCh.
func (c *Client) writeLoop(l *link) {
	defer l.loops.Done()

	c.mu.Lock()
	pending := c.unsent
	c.unsent = nil
	c.mu.Unlock()

	write := func(data []byte) bool {
		err := l.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = l.conn.WriteMessage(ws.TextMessage, data)
		}
		if err != nil {
			c.mu.Lock()
			c.unsent = append(c.unsent, data)
			c.mu.Unlock()
			c.connectionLost(l, err)
			return false
		}
		return true
	}

	for i, data := range pending {
		if !write(data) {
			c.mu.Lock()
			c.unsent = append(c.unsent, pending[i+1:]...)
			c.mu.Unlock()
			return
		}
	}

	for {
		select {
		case <-c.done:
			return
		case <-l.lost:
			return
		case data := <-c.sendCh:
			if !write(data) {
				return
			}
		}
	}
}

// readLoop reads frames and delivers them to subscribers in arrival order.
func (c *Client) readLoop(l *link) {
	defer l.loops.Done()
	for {
		kind, message, err := l.conn.ReadMessage()
		if err != nil {
			c.connectionLost(l, err)
			return
		}
		if kind != ws.TextMessage {
			continue
		}

		c.mu.Lock()
		fns := c.subs.snapshot()
		c.mu.Unlock()
		for _, fn := range fns {
			fn(message)
		}
	}
}

// firstBackoff is the delay before the first redial.
var firstBackoff = time.Second

// reconnect waits for the loops of the lost link to finish, then redials
// with exponential backoff and starts a new link.
func (c *Client) reconnect(lost *link) {
	lost.loops.Wait()

	backoff := firstBackoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		c.logger.Info("Reconnecting to hub", "attempt", attempt)
		conn, err := c.dialOnce()
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.start(conn)
		hook := c.reconnected
		c.mu.Unlock()

		c.logger.Info("WebSocket reconnected", "attempt", attempt)
		if hook != nil {
			hook()
		}
		return
	}

	c.logger.Error("WebSocket reconnect failed after max attempts", "maxAttempts", maxReconnect)
}

// Close sends a close frame and shuts down all goroutines.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	l := c.link
	c.link = nil
	c.mu.Unlock()

	if l != nil {
		conn := l.conn
		_ = conn.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		return conn.Close()
	}
	return nil
}
