package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"skirmish/internal/sim"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("websocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// wsClient tracks a WebSocket connection with its source IP.
type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// tickEvent is the payload pushed to every subscriber once per advanced
// tick. Bundling Notifications alongside Snapshot means a subscriber
// never has to separately poll for an ignored-command event — it
// arrives in the same message as the state it was ignored against.
type tickEvent struct {
	Event         string             `json:"event"`
	Snapshot      sim.Snapshot       `json:"snapshot"`
	Notifications []sim.Notification `json:"notifications,omitempty"`
}

// SnapshotHub fans out post-tick state to subscribed spectator/telemetry
// clients. Read-only: no client input is ever applied to the simulation
// through this path (mutating commands are HTTP-only, via the command
// queue).
type SnapshotHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	wsLimiter *WebSocketRateLimiter
}

// NewSnapshotHub creates a new hub with connection limiting.
func NewSnapshotHub() *SnapshotHub {
	return &SnapshotHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// Run starts the hub's event loop; call once from a goroutine.
func (h *SnapshotHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			h.mu.Unlock()
			UpdateWSConnections(h.ClientCount())

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				h.wsLimiter.Release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
			UpdateWSConnections(h.ClientCount())

		case message := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					h.mu.RUnlock()
					h.mu.Lock()
					if client, ok := h.clients[conn]; ok {
						h.wsLimiter.Release(client.ip)
						delete(h.clients, conn)
					}
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
			IncrementWSMessages()
		}
	}
}

// PublishTick is called once by the tick-driving loop right after each
// DrainAndAdvance — there is no separate polling ticker decoupled from
// the sim's own cadence: subscribers see exactly the ticks the sim
// actually advanced, and a tick with nobody connected costs nothing but
// the ClientCount check.
func (h *SnapshotHub) PublishTick(snap sim.Snapshot, notes []sim.Notification) {
	if h.ClientCount() == 0 {
		return
	}
	payload, err := json.Marshal(tickEvent{Event: "sim:tick", Snapshot: snap, Notifications: notes})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		// channel full, drop — backpressure, not a correctness issue
		// for a read-only telemetry feed.
	}
}

// ClientCount returns the number of connected clients.
func (h *SnapshotHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades and registers a new snapshot-feed subscriber.
func (h *SnapshotHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("websocket connection rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("websocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	client := &wsClient{conn: conn, ip: ip}
	h.register <- client

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
			// This is a read-only feed: any inbound message is ignored
			// rather than applied, matching the §6 contract that every
			// mutation goes through the HTTP command endpoints.
		}
	}()
}
