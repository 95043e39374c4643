package errs

import "errors"

// Sentinel errors for mapping to HTTP codes / socket error events in handlers.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomClosed          = errors.New("room is closed")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrNotInRoom           = errors.New("caller is not a participant of this room")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidPassword     = errors.New("invalid room password")
	ErrEmptyMessage        = errors.New("message content is empty")
	ErrMessageTooLong      = errors.New("message content is too long")
	ErrEmptyVideoURL       = errors.New("video url is empty")
	ErrInvalidSyncMode     = errors.New("invalid sync mode")
	ErrSelfKick            = errors.New("cannot kick yourself")
	ErrPoolUnavailable     = errors.New("browser pool is not configured")
)
