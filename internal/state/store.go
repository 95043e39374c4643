// Package state holds the runtime room state: who is connected to a room
// and the recent chat history. Two interchangeable backends exist (in-process
// memory and Redis); both expose identical behavior through Store. Control
// succession and orchestration logic live above this interface, in
// internal/service, so they are written once.
package state

import (
	"context"
	"time"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/model"
)

const (
	// MessageCapacity bounds per-room chat history; oldest messages are
	// evicted first.
	MessageCapacity = 50

	// DefaultEmptyRoomGrace is how long room data survives after the last
	// participant leaves, so a brief full-room disconnect does not lose
	// chat history.
	DefaultEmptyRoomGrace = 3 * time.Hour

	// DefaultRoomDataTTL is the rolling expiry refreshed on every join,
	// a safety net against abandoned rooms accumulating forever.
	DefaultRoomDataTTL = 24 * time.Hour
)

// Store is the runtime state contract shared by both backends.
//
// All participant/message mutations on a given room appear atomic relative
// to each other. Operations on different rooms never contend.
type Store interface {
	// AddOrUpdateParticipant inserts p, or overwrites it in place when a
	// participant with the same ID is already present (reconnect). It
	// refreshes the room's rolling data expiry.
	AddOrUpdateParticipant(ctx context.Context, roomID string, p model.Participant) error

	// RemoveParticipant is idempotent; removing an absent ID is a no-op.
	// When the room becomes empty its data enters the grace window.
	RemoveParticipant(ctx context.Context, roomID, participantID string) error

	// GetParticipant returns errs.ErrParticipantNotFound when absent.
	GetParticipant(ctx context.Context, roomID, participantID string) (model.Participant, error)

	// ListParticipants returns a stable snapshot ordered by JoinedAt
	// ascending; empty slice if the room is absent.
	ListParticipants(ctx context.Context, roomID string) ([]model.Participant, error)

	// CountParticipants returns the number of participants in the room.
	CountParticipants(ctx context.Context, roomID string) (int, error)

	// SetController grants control to participantID and clears the flag on
	// everyone else, atomically. An empty or absent participantID leaves
	// the room with no controller.
	SetController(ctx context.Context, roomID, participantID string) error

	// AppendMessage adds to the tail of the room's history, evicting from
	// the head past MessageCapacity.
	AppendMessage(ctx context.Context, roomID string, msg model.ChatMessage) error

	// ListMessages returns the history oldest-first.
	ListMessages(ctx context.Context, roomID string) ([]model.ChatMessage, error)

	// ClearRoomData removes all runtime state for the room immediately
	// (used on room close).
	ClearRoomData(ctx context.Context, roomID string) error

	// ListActiveRoomIDs returns ids of rooms that still hold runtime state.
	ListActiveRoomIDs(ctx context.Context) ([]string, error)

	// CleanupEmptyRooms deletes rooms whose grace window or rolling expiry
	// has elapsed and returns how many were removed.
	CleanupEmptyRooms(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}
