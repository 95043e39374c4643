package constants

// HTTP route paths shared between router and docs.
const (
	PathHealth = "/health"
	PathReady  = "/ready"
	PathRooms  = "/rooms"
	PathWS     = "/ws/rooms/:user_id"
)
