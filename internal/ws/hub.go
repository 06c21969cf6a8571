// Package ws owns the realtime side: the connection registry, the
// conversation rooms, presence, and the event dispatcher.
package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// PresenceStore mirrors online state to an external store, best effort.
// The in-memory set in the hub stays authoritative for this process and
// is rebuilt from zero on restart.
type PresenceStore interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// Metrics receives connection and delivery counts; a no-op implementation
// is fine.
type Metrics interface {
	ClientConnected()
	ClientDisconnected()
	EventDelivered(event string)
}

// Hub is the single owner of connection state. Every add and remove goes
// through it under one lock; nothing else mutates the maps.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Client            // connID -> client
	users  map[string]map[string]*Client // userID -> connID -> client
	rooms  map[string]map[string]*Client // roomID -> connID -> client
	online map[string]bool               // userID -> online flag

	presence PresenceStore
	metrics  Metrics
	log      *zap.SugaredLogger
}

func NewHub(presence PresenceStore, metrics Metrics, log *zap.SugaredLogger) *Hub {
	return &Hub{
		conns:    make(map[string]*Client),
		users:    make(map[string]map[string]*Client),
		rooms:    make(map[string]map[string]*Client),
		online:   make(map[string]bool),
		presence: presence,
		metrics:  metrics,
		log:      log,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.ClientConnected()
	}
	h.log.Infow("client connected", "conn", c.ID)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.conns, c.ID)
	for _, members := range h.rooms {
		delete(members, c.ID)
	}
	var wentOffline string
	if c.UserID != "" {
		if conns, ok := h.users[c.UserID]; ok {
			delete(conns, c.ID)
			if len(conns) == 0 {
				delete(h.users, c.UserID)
				delete(h.online, c.UserID)
				wentOffline = c.UserID
			}
		}
	}
	h.mu.Unlock()
	c.closeSend()
	if h.metrics != nil {
		h.metrics.ClientDisconnected()
	}
	h.log.Infow("client disconnected", "conn", c.ID, "user", c.UserID)

	if wentOffline != "" {
		if h.presence != nil {
			_ = h.presence.SetOffline(context.Background(), wentOffline)
		}
		h.Broadcast("userOnlineStatus", map[string]any{"userId": wentOffline, "isOnline": false})
	}
}

// BindUser attaches a user identity to the connection and flips the user
// online. Returns the online-user snapshot for the caller.
func (h *Hub) BindUser(c *Client, userID string) []string {
	h.mu.Lock()
	c.UserID = userID
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[string]*Client)
	}
	h.users[userID][c.ID] = c
	h.online[userID] = true
	snapshot := make([]string, 0, len(h.online))
	for uid := range h.online {
		snapshot = append(snapshot, uid)
	}
	h.mu.Unlock()

	if h.presence != nil {
		_ = h.presence.SetOnline(context.Background(), userID)
	}
	h.Broadcast("userOnlineStatus", map[string]any{"userId": userID, "isOnline": true})
	return snapshot
}

// UnbindUser flips the user offline on explicit logout while keeping the
// connection open.
func (h *Hub) UnbindUser(userID string) {
	h.mu.Lock()
	delete(h.online, userID)
	delete(h.users, userID)
	h.mu.Unlock()
	if h.presence != nil {
		_ = h.presence.SetOffline(context.Background(), userID)
	}
	h.Broadcast("userOnlineStatus", map[string]any{"userId": userID, "isOnline": false})
}

// JoinRoom subscribes the connection to a conversation's delivery scope.
func (h *Hub) JoinRoom(roomID string, c *Client) {
	h.mu.Lock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) LeaveRoom(roomID string, c *Client) {
	h.mu.Lock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c.ID)
	}
	h.mu.Unlock()
}

// OnlineUsers returns the ids currently marked online.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.online))
	for uid := range h.online {
		out = append(out, uid)
	}
	return out
}

// Broadcast delivers to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.conns))
	for _, c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	h.deliver(targets, event, payload)
}

// ToRoom delivers to the clients joined to one conversation's room.
func (h *Hub) ToRoom(roomID, event string, payload any) {
	h.mu.RLock()
	members := h.rooms[roomID]
	targets := make([]*Client, 0, len(members))
	for _, c := range members {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	h.deliver(targets, event, payload)
}

// ToUser delivers to every connection of one user.
func (h *Hub) ToUser(userID, event string, payload any) {
	h.mu.RLock()
	conns := h.users[userID]
	targets := make([]*Client, 0, len(conns))
	for _, c := range conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	h.deliver(targets, event, payload)
}

func (h *Hub) deliver(targets []*Client, event string, payload any) {
	for _, c := range targets {
		c.Emit(event, payload)
	}
	if h.metrics != nil && len(targets) > 0 {
		h.metrics.EventDelivered(event)
	}
}
