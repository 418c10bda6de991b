// Package gateway exposes the analyzer over HTTP: REST endpoints for
// on-demand analysis, backtests, and pair scans, plus a WebSocket feed
// that pushes each published screener report to connected dashboards.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stock-analyzerv1/internal/store/redis"
)

// Hub manages WebSocket clients and fans published scan reports out to
// them. New clients immediately receive the latest report.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	latest  json.RawMessage
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Run subscribes to scan publications and broadcasts each one. It blocks
// until ctx is cancelled, resubscribing after transient Redis failures.
func (h *Hub) Run(ctx context.Context, store *redis.Store) {
	if latest, err := store.LatestScan(ctx); err == nil && latest != nil {
		h.setLatest(latest)
	}

	for {
		pubsub, err := store.SubscribeScans(ctx)
		if err != nil {
			log.Printf("[gateway] scan subscription failed, retrying: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
				continue
			}
		}

		ch := pubsub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				h.Broadcast([]byte(msg.Payload))
			}
		}
		pubsub.Close()
	}
}

// Broadcast stores data as the latest report and pushes it to every
// client. Slow clients drop the message rather than stall the fan-out.
func (h *Hub) Broadcast(data []byte) {
	h.setLatest(data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

func (h *Hub) setLatest(data json.RawMessage) {
	h.mu.Lock()
	h.latest = data
	h.mu.Unlock()
}

// Latest returns the most recently broadcast report, nil before the
// first scan.
func (h *Hub) Latest() json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// HandleWSRequest registers an upgraded connection and starts its pumps.
func (h *Hub) HandleWSRequest(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("[gateway] ws client connected (%d total)", count)

	if latest := h.Latest(); latest != nil {
		client.send <- latest
	}

	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
