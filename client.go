package main

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client represents a WebSocket connection bound to one player id
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	codec      Codec
	remoteAddr string
	log        *zap.Logger

	maxMsgsPerSec int
	msgCount      int
	msgResetAt    time.Time

	kickOnce sync.Once
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, id string, codec Codec, remoteAddr string) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufSize),
		id:            id,
		codec:         codec,
		remoteAddr:    remoteAddr,
		log:           hub.log.With(zap.String("client_id", id)),
		maxMsgsPerSec: hub.maxMsgsPerSec,
	}
}

// Deliver queues a frame for the write pump. It never blocks: a client whose
// queue is full is disconnected rather than stalling the sender.
func (c *Client) Deliver(f *Frame) bool {
	data, err := f.Encode(c.codec)
	if err != nil {
		c.log.Error("encode frame", zap.Error(err))
		return false
	}
	return c.sendRaw(data)
}

func (c *Client) sendRaw(data []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.send <- data:
		return true
	default:
		c.kick("send queue full")
		return false
	}
}

// kick closes the socket; the read pump then unregisters the client
func (c *Client) kick(reason string) {
	c.kickOnce.Do(func() {
		c.log.Warn("disconnecting client", zap.String("reason", reason))
		c.conn.Close()
	})
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Info("ws error", zap.Error(err))
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.maxMsgsPerSec > 0 && c.msgCount > c.maxMsgsPerSec {
			c.log.Warn("rate limit exceeded", zap.String("remote", c.remoteAddr))
			break
		}

		c.hub.game.HandleMessage(c.id, c.codec, message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	msgType := websocket.TextMessage
	if c.codec == CodecMsgpack {
		msgType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msgType, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
