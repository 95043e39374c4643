package model

import "time"

// Room — persisted room metadata (GORM).
type Room struct {
	ID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name           string  `gorm:"size:100;not null" json:"name"`
	InviteCode     string  `gorm:"size:12;not null;uniqueIndex" json:"invite_code"`
	IsPrivate      bool    `gorm:"not null;default:false" json:"is_private"`
	PasswordHash   string  `gorm:"size:100" json:"-"`
	AdminID        string  `gorm:"type:uuid;not null;index" json:"admin_id"`
	VideoURL       string  `gorm:"size:2048" json:"video_url"`
	VideoTitle     string  `gorm:"size:255" json:"video_title"`
	VideoThumbnail string  `gorm:"size:2048" json:"video_thumbnail,omitempty"`
	Position       float64 `gorm:"not null;default:0" json:"position"`
	IsPlaying      bool    `gorm:"not null;default:false" json:"is_playing"`
	SyncMode       string  `gorm:"size:10;not null;default:strict" json:"sync_mode"`
	IsActive       bool    `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"-"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
}

func (Room) TableName() string { return "rooms" }

// CreateRoomRequest is the request body for POST /rooms.
type CreateRoomRequest struct {
	Name      string `json:"name" binding:"required"`
	AdminID   string `json:"admin_id" binding:"required"`
	IsPrivate bool   `json:"is_private"`
	Password  string `json:"password"`
	VideoURL  string `json:"video_url"`
}

// CreateRoomResponse is the response for POST /rooms.
type CreateRoomResponse struct {
	RoomID     string `json:"room_id"`
	InviteCode string `json:"invite_code"`
	WSURL      string `json:"ws_url"`
}

// RoomParticipantsResponse is the response for GET /rooms/:id/participants.
type RoomParticipantsResponse struct {
	RoomID       string        `json:"room_id"`
	Participants []Participant `json:"participants"`
}
