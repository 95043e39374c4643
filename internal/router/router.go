package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/handler"
	"github.com/ZiadHesham225/StreamSync-sub001/pkg/constants"
)

// New builds the HTTP router.
func New(
	roomHandler *handler.RoomHandler,
	roomWS *handler.RoomWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	// REST rooms
	rooms := r.Group(constants.PathRooms)
	{
		rooms.POST("", roomHandler.CreateRoom)
		rooms.GET("/:id", roomHandler.GetRoom)
		rooms.GET("/invite/:code", roomHandler.GetRoomByInviteCode)
		rooms.GET("/:id/participants", roomHandler.GetRoomParticipants)
		rooms.GET("/:id/messages", roomHandler.GetRoomMessages)
		rooms.POST("/:id/browser", roomHandler.AcquireBrowser)
		rooms.GET("/:id/browser", roomHandler.GetBrowser)
		rooms.DELETE("/:id/browser", roomHandler.ReleaseBrowser)
	}

	// WebSocket: /ws/rooms/:user_id
	r.GET(constants.PathWS, roomWS.ServeWS)

	return r
}
