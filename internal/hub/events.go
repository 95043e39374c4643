package hub

import (
	"encoding/json"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/model"
)

// Outbound event names.
const (
	EventRoomJoined         = "room_joined"
	EventRoomLeft           = "room_left"
	EventParticipantJoined  = "participant_joined"
	EventParticipantLeft    = "participant_left"
	EventRoomParticipants   = "room_participants"
	EventChatHistory        = "chat_history"
	EventChatMessage        = "chat_message"
	EventControlTransferred = "control_transferred"
	EventPlaybackUpdate     = "playback_update"
	EventForceSync          = "force_sync"
	EventHeartbeat          = "heartbeat"
	EventVideoChanged       = "video_changed"
	EventUserKicked         = "user_kicked"
	EventRoomClosed         = "room_closed"
	EventSyncModeChanged    = "sync_mode_changed"
	EventError              = "error"
)

// Event is the outbound envelope written to clients.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// Marshal encodes the envelope; marshal failures fall back to an error event
// so a client never receives a half-written frame.
func (e Event) Marshal() []byte {
	raw, err := json.Marshal(e)
	if err != nil {
		raw, _ = json.Marshal(Event{Name: EventError, Data: ErrorPayload{Message: "internal encoding error"}})
	}
	return raw
}

// Event payloads.

type RoomJoinedPayload struct {
	RoomID     string  `json:"room_id"`
	Name       string  `json:"name"`
	VideoURL   string  `json:"video_url"`
	VideoTitle string  `json:"video_title,omitempty"`
	SyncMode   string  `json:"sync_mode"`
	AdminID    string  `json:"admin_id"`
	Position   float64 `json:"position"`
	IsPlaying  bool    `json:"is_playing"`
}

type RoomLeftPayload struct {
	RoomID string `json:"room_id"`
}

type ParticipantNoticePayload struct {
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type ParticipantsPayload struct {
	RoomID       string              `json:"room_id"`
	Participants []model.Participant `json:"participants"`
}

type ChatHistoryPayload struct {
	RoomID   string              `json:"room_id"`
	Messages []model.ChatMessage `json:"messages"`
}

type ControlTransferredPayload struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// PlaybackPayload embeds the playback state so its fields inline into the
// JSON alongside room_id.
type PlaybackPayload struct {
	RoomID string `json:"room_id"`
	model.PlaybackState
}

type HeartbeatPayload struct {
	RoomID   string  `json:"room_id"`
	Position float64 `json:"position"`
}

type VideoChangedPayload struct {
	RoomID    string `json:"room_id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type UserKickedPayload struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

type RoomClosedPayload struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

type SyncModePayload struct {
	RoomID string `json:"room_id"`
	Mode   string `json:"mode"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
