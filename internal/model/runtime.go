package model

import "time"

// SystemSenderID marks chat messages generated by the server itself
// (join/leave/control/kick announcements).
const SystemSenderID = "system"

// SyncMode controls who may drive playback in a room.
type SyncMode string

const (
	SyncModeStrict  SyncMode = "strict"
	SyncModeRelaxed SyncMode = "relaxed"
)

// Valid reports whether m is a known sync mode.
func (m SyncMode) Valid() bool {
	return m == SyncModeStrict || m == SyncModeRelaxed
}

// Participant is a connected member of a room. Identity (ID, JoinedAt)
// survives reconnects; ConnectionID is replaced on every reconnect.
type Participant struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"-"`
	Username     string    `json:"username"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	HasControl   bool      `json:"has_control"`
	JoinedAt     time.Time `json:"joined_at"`
}

// ChatMessage is immutable once created. IDs are ULIDs so messages sort
// by creation time.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sent_at"`
}

// IsSystem reports whether the message was generated by the server.
func (m ChatMessage) IsSystem() bool {
	return m.SenderID == SystemSenderID
}

// PlaybackState is the authoritative playback position of a room.
type PlaybackState struct {
	Position  float64 `json:"position"`
	IsPlaying bool    `json:"is_playing"`
}
