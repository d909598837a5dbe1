// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	// writeWait is the deadline for a single websocket write.
	writeWait = 10 * time.Second

	// pingInterval keeps idle connections alive through proxies.
	pingInterval = 30 * time.Second

	// sendBuffer is the per-client outbound queue. A client that falls
	// this far behind is disconnected rather than blocking the bridge.
	sendBuffer = 16
)

// Bridge subscribes to the event channel and fans messages out to
// connected websocket clients.
type Bridge struct {
	client   *redis.Client
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewBridge creates a bridge backed by the given Valkey client.
func NewBridge(redisClient *redis.Client) *Bridge {
	return &Bridge{
		client: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The admin dashboard is served from its own origin; the
			// session cookie is the access control, not the origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Run subscribes to the event channel and forwards messages until the
// context is canceled. It should be started once, as a goroutine.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, Channel)
	defer sub.Close()

	slog.Info("realtime bridge started", "channel", Channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case msg, ok := <-ch:
			if !ok {
				b.closeAll()
				return
			}
			b.broadcast([]byte(msg.Payload))
		}
	}
}

// ServeHTTP upgrades the request to a websocket and registers the client
// for event delivery. The handler returns when the client disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	b.register(c)
	defer b.unregister(c)

	go c.writeLoop()

	// Read loop: clients never send data, but reading drains control
	// frames and detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ClientCount reports connected clients, used by the health endpoint.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Bridge) register(c *client) {
	b.mu.Lock()
	b.clients[c] = struct{}{}
	n := len(b.clients)
	b.mu.Unlock()
	slog.Debug("realtime client connected", "clients", n)
}

func (b *Bridge) unregister(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
	c.conn.Close()
}

func (b *Bridge) broadcast(payload []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		select {
		case c.send <- payload:
		default:
			// Slow client, drop the message instead of blocking.
			slog.Warn("realtime client lagging, dropping event")
		}
	}
}

func (b *Bridge) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
		c.conn.Close()
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
