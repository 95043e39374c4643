package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/browsers"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/errs"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/model"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/service"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/state"
)

// RoomHandler handles the REST API for room metadata and the browser pool
// endpoints.
type RoomHandler struct {
	rooms     service.RoomService
	store     state.Store
	pool      browsers.Pool // nil when no allocator is configured
	wsBaseURL string
}

// NewRoomHandler creates a room handler. pool may be nil.
func NewRoomHandler(rooms service.RoomService, store state.Store, pool browsers.Pool, wsBaseURL string) *RoomHandler {
	return &RoomHandler{rooms: rooms, store: store, pool: pool, wsBaseURL: wsBaseURL}
}

// CreateRoom godoc
// POST /rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req model.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if req.IsPrivate && req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "private rooms require a password"})
		return
	}
	room, err := h.rooms.CreateRoom(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}
	c.JSON(http.StatusCreated, model.CreateRoomResponse{
		RoomID:     room.ID,
		InviteCode: room.InviteCode,
		WSURL:      h.wsURL(req.AdminID),
	})
}

// GetRoom godoc
// GET /rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoomByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// GetRoomByInviteCode godoc
// GET /rooms/invite/:code
func (h *RoomHandler) GetRoomByInviteCode(c *gin.Context) {
	room, err := h.rooms.GetRoomByInviteCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// GetRoomParticipants godoc
// GET /rooms/:id/participants
func (h *RoomHandler) GetRoomParticipants(c *gin.Context) {
	roomID := c.Param("id")
	ps, err := h.store.ListParticipants(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list participants"})
		return
	}
	c.JSON(http.StatusOK, model.RoomParticipantsResponse{RoomID: roomID, Participants: ps})
}

// GetRoomMessages godoc
// GET /rooms/:id/messages
func (h *RoomHandler) GetRoomMessages(c *gin.Context) {
	roomID := c.Param("id")
	msgs, err := h.store.ListMessages(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "messages": msgs})
}

// AcquireBrowser godoc
// POST /rooms/:id/browser
func (h *RoomHandler) AcquireBrowser(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errs.ErrPoolUnavailable.Error()})
		return
	}
	b, err := h.pool.Acquire(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, b)
}

// GetBrowser godoc
// GET /rooms/:id/browser
func (h *RoomHandler) GetBrowser(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errs.ErrPoolUnavailable.Error()})
		return
	}
	b, err := h.pool.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ReleaseBrowser godoc
// DELETE /rooms/:id/browser
func (h *RoomHandler) ReleaseBrowser(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errs.ErrPoolUnavailable.Error()})
		return
	}
	if err := h.pool.Release(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errs.ErrRoomNotFound.Error()})
	case errors.Is(err, errs.ErrPoolUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errs.ErrPoolUnavailable.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *RoomHandler) wsURL(userID string) string {
	if h.wsBaseURL == "" {
		return fmt.Sprintf("/ws/rooms/%s", userID)
	}
	return fmt.Sprintf("%s/ws/rooms/%s", h.wsBaseURL, userID)
}
