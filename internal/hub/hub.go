// Package hub is the notification fanout layer: it tracks live websocket
// connections and their room subscriptions and delivers outbound events.
// Both the coordinator and background sweeps publish through it, so there is
// a single delivery path for room-scoped and connection-scoped sends.
package hub

import (
	"sync"

	"go.uber.org/zap"
)

// Hub coordinates websocket connections and room broadcast groups. It keeps
// one active connection per user while allowing efficient fan-out to all
// connections subscribed to a room.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]*Connection            // connectionID -> connection
	userConns map[string]string                 // userID -> connectionID
	rooms     map[string]map[string]*Connection // roomID -> connectionID -> connection
	connRooms map[string]map[string]struct{}    // connectionID -> set of roomIDs

	log *zap.Logger
}

// New constructs an initialized Hub.
func New(log *zap.Logger) *Hub {
	return &Hub{
		conns:     make(map[string]*Connection),
		userConns: make(map[string]string),
		rooms:     make(map[string]map[string]*Connection),
		connRooms: make(map[string]map[string]struct{}),
		log:       log,
	}
}

// Attach registers a connection for its user. If a previous connection exists
// for the same user, it is removed and closed after the swap to enforce one
// active socket per user.
func (h *Hub) Attach(conn *Connection) {
	var previous *Connection

	h.mu.Lock()
	if existingID, ok := h.userConns[conn.UserID]; ok {
		if existing := h.conns[existingID]; existing != nil {
			previous = existing
			h.detachLocked(existingID)
		}
	}
	h.conns[conn.ID] = conn
	h.userConns[conn.UserID] = conn.ID
	h.connRooms[conn.ID] = make(map[string]struct{})
	h.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
}

// Detach removes a connection and all its room subscriptions.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	h.detachLocked(connID)
	h.mu.Unlock()
}

// JoinRoom subscribes the connection to the room's broadcast group, first
// detaching it from any other room it was subscribed to.
func (h *Hub) JoinRoom(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	for other := range h.connRooms[connID] {
		if other != roomID {
			h.leaveLocked(other, connID)
		}
	}

	room := h.rooms[roomID]
	if room == nil {
		room = make(map[string]*Connection)
		h.rooms[roomID] = room
	}
	room[connID] = conn

	memberships := h.connRooms[connID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		h.connRooms[connID] = memberships
	}
	memberships[roomID] = struct{}{}
}

// LeaveRoom removes the connection from the room's broadcast group.
func (h *Hub) LeaveRoom(roomID, connID string) {
	h.mu.Lock()
	h.leaveLocked(roomID, connID)
	h.mu.Unlock()
}

// CloseRoom removes every connection from the room's broadcast group. The
// connections themselves stay attached.
func (h *Hub) CloseRoom(roomID string) {
	h.mu.Lock()
	for connID := range h.rooms[roomID] {
		h.leaveLocked(roomID, connID)
	}
	h.mu.Unlock()
}

// Publish delivers the event to every connection in the room.
func (h *Hub) Publish(roomID string, evt Event) {
	h.publish(roomID, "", evt)
}

// PublishExcept delivers the event to every connection in the room except
// exceptConnID (used for heartbeats, where the sender already knows).
func (h *Hub) PublishExcept(roomID, exceptConnID string, evt Event) {
	h.publish(roomID, exceptConnID, evt)
}

func (h *Hub) publish(roomID, exceptConnID string, evt Event) {
	payload := evt.Marshal()

	h.mu.RLock()
	room := h.rooms[roomID]
	if len(room) == 0 {
		h.mu.RUnlock()
		return
	}
	delivered := 0
	for connID, conn := range room {
		if connID == exceptConnID {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	h.mu.RUnlock()

	h.log.Debug("event published",
		zap.String("room_id", roomID),
		zap.String("event", evt.Name),
		zap.Int("delivered", delivered))
}

// Send delivers the event to a single connection. A stale connection id is
// harmless: the event is simply dropped.
func (h *Hub) Send(connID string, evt Event) {
	h.mu.RLock()
	conn := h.conns[connID]
	h.mu.RUnlock()
	if conn == nil {
		return
	}
	_ = conn.Send(evt.Marshal())
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = make(map[string]*Connection)
	h.userConns = make(map[string]string)
	h.rooms = make(map[string]map[string]*Connection)
	h.connRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(1001, "hub shutdown")
	}
}

func (h *Hub) detachLocked(connID string) {
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)

	if current, ok := h.userConns[conn.UserID]; ok && current == connID {
		delete(h.userConns, conn.UserID)
	}

	for roomID := range h.connRooms[connID] {
		h.leaveLocked(roomID, connID)
	}
	delete(h.connRooms, connID)
}

func (h *Hub) leaveLocked(roomID, connID string) {
	room := h.rooms[roomID]
	if room == nil {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
	if memberships, ok := h.connRooms[connID]; ok {
		delete(memberships, roomID)
	}
}
