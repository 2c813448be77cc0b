package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hub owns the live websocket clients and hands them to the game
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns
	game       *Game
	log        *zap.Logger

	maxMsgsPerSec int

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu        sync.Mutex
	ipConns       map[string]int
	totalConns    int
	maxConnsPerIP int
	maxTotalConns int
}

// NewHub creates a new Hub
func NewHub(game *Game, srv ServerConfig, log *zap.Logger) *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		unregister:    make(chan *Client, 64),
		done:          make(chan struct{}),
		game:          game,
		log:           log.Named("hub"),
		maxMsgsPerSec: srv.MaxMessagesPerSec,
		ipConns:       make(map[string]int),
		maxConnsPerIP: srv.MaxConnsPerIP,
		maxTotalConns: srv.MaxTotalConns,
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= h.maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= h.maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Register joins the client to the game. On success the client's init frame
// is already queued when Register returns.
func (h *Hub) Register(c *Client) error {
	if err := h.game.Join(c.id, c); err != nil {
		return err
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return nil
}

// Run processes unregister events until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.unregister:
			h.mu.Lock()
			cur, ok := h.clients[client.id]
			if ok && cur == client {
				delete(h.clients, client.id)
			}
			h.mu.Unlock()
			if !ok || cur != client {
				continue
			}
			// Leave first so no broadcast targets the closed queue
			h.game.Leave(client.id)
			close(client.send)

		case <-ctx.Done():
			h.mu.Lock()
			for _, c := range h.clients {
				c.conn.Close()
			}
			h.mu.Unlock()
			return
		}
	}
}

// Unregister hands a departing client to Run. After Run has returned the
// client is dropped instead of blocking.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
