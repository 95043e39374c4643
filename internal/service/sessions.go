package service

import "sync"

// Session is the per-connection record the coordinator keeps while a
// connection is joined to a room. It replaces ambient per-connection state
// with an explicit registry.
type Session struct {
	ConnectionID string
	RoomID       string
	UserID       string
	Username     string
	AvatarURL    string
}

// SessionRegistry maps connection ids to their joined-room session.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]Session)}
}

// Set records the session for its connection id, replacing any previous one.
func (r *SessionRegistry) Set(s Session) {
	r.mu.Lock()
	r.sessions[s.ConnectionID] = s
	r.mu.Unlock()
}

// Get returns the session for a connection id.
func (r *SessionRegistry) Get(connectionID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connectionID]
	return s, ok
}

// Clear removes the session for a connection id; absent ids are a no-op.
func (r *SessionRegistry) Clear(connectionID string) {
	r.mu.Lock()
	delete(r.sessions, connectionID)
	r.mu.Unlock()
}

// ClearRoom removes every session joined to roomID and returns the removed
// sessions (used on room close).
func (r *SessionRegistry) ClearRoom(roomID string) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []Session
	for id, s := range r.sessions {
		if s.RoomID == roomID {
			removed = append(removed, s)
			delete(r.sessions, id)
		}
	}
	return removed
}
