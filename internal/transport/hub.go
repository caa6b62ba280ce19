package transport

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	peerSendSize = 1024
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// HubConfig holds websocket server settings.
type HubConfig struct {
	// Secret, when set, must be passed as the "secret" query parameter.
	Secret string
	Logger *slog.Logger
}

// Hub is the server end of the websocket transport. Publish broadcasts to every
// connected peer. Messages from peers go to the hub's own subscribers only and
// are never relayed to other peers; the authoritative session republishes what
// it accepts.
type Hub struct {
	mu     sync.RWMutex
	peers  map[*peer]struct{}
	subs   subscribers
	closed bool

	upgrader ws.Upgrader
	secret   string
	logger   *slog.Logger
}

type peer struct {
	conn *ws.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func (p *peer) stop() {
	p.once.Do(func() { close(p.done) })
}

// NewHub creates a hub with no peers.
func NewHub(cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		peers:  make(map[*peer]struct{}),
		secret: cfg.Secret,
		logger: logger.With("transport", "hub"),
		upgrader: ws.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and serves the peer until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.URL.Query().Get("secret")), []byte(h.secret)) != 1 {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	p := &peer{conn: conn, send: make(chan []byte, peerSendSize), done: make(chan struct{})}
	h.mu.Lock()
	h.peers[p] = struct{}{}
	count := len(h.peers)
	h.mu.Unlock()
	h.logger.Info("Peer connected", "remote", r.RemoteAddr, "peers", count)

	go h.writeLoop(p)
	h.readLoop(p)

	h.drop(p)
	h.logger.Info("Peer disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) readLoop(p *peer) {
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, message, err := p.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				h.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
		if kind != ws.TextMessage {
			continue
		}

		h.mu.RLock()
		fns := h.subs.snapshot()
		h.mu.RUnlock()
		for _, fn := range fns {
			fn(message)
		}
	}
}

func (h *Hub) writeLoop(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case <-p.done:
			_ = p.conn.WriteControl(
				ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		case data := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(ws.TextMessage, data); err != nil {
				h.logger.Warn("WebSocket write error", "error", err)
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drop forgets p and stops its writer.
func (h *Hub) drop(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.mu.Unlock()
	p.stop()
}

// Publish queues data for every peer. A peer whose buffer is full is
// disconnected rather than allowed to stall the others.
func (h *Hub) Publish(data []byte) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrClosed
	}
	var slow []*peer
	for p := range h.peers {
		select {
		case p.send <- data:
		default:
			slow = append(slow, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range slow {
		h.logger.Warn("Dropping slow peer", "remote", p.conn.RemoteAddr())
		h.drop(p)
	}
	return nil
}

func (h *Hub) Subscribe(fn Receiver) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.subs.add(fn)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.subs.remove(id)
	}
}

// Peers reports how many peers are connected.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close disconnects every peer and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.peers = make(map[*peer]struct{})
	h.mu.Unlock()

	for _, p := range peers {
		p.stop()
	}
	return nil
}
