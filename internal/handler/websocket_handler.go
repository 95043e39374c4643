package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/errs"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/hub"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/service"
)

// Inbound action names.
const (
	actionJoinRoom            = "join_room"
	actionLeaveRoom           = "leave_room"
	actionSendMessage         = "send_message"
	actionChangeVideo         = "change_video"
	actionPlayVideo           = "play_video"
	actionPauseVideo          = "pause_video"
	actionSeekVideo           = "seek_video"
	actionReportPosition      = "report_position"
	actionTransferControl     = "transfer_control"
	actionKickUser            = "kick_user"
	actionUpdateSyncMode      = "update_sync_mode"
	actionRequestParticipants = "request_participants"
	actionCloseRoom           = "close_room"
)

// actionEnvelope is the inbound frame shape.
type actionEnvelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type actionPayload struct {
	RoomID       string  `json:"room_id"`
	Password     string  `json:"password"`
	Content      string  `json:"content"`
	URL          string  `json:"url"`
	Title        string  `json:"title"`
	Thumbnail    string  `json:"thumbnail"`
	Position     float64 `json:"position"`
	TargetUserID string  `json:"target_user_id"`
	Mode         string  `json:"mode"`
}

// RoomWSHandler handles WebSocket connections for /ws/rooms/:user_id.
// Authentication happens upstream; the user id in the path is trusted to be
// the authenticated identity.
type RoomWSHandler struct {
	hub         *hub.Hub
	coordinator *service.Coordinator
	upgrader    websocket.Upgrader
	maxMsgSize  int64
	sendQueue   int
	logger      *zap.Logger
}

// NewRoomWSHandler creates the room WebSocket handler.
func NewRoomWSHandler(h *hub.Hub, coordinator *service.Coordinator, readBuf, writeBuf, sendQueue int, maxMsgSize int64, logger *zap.Logger) *RoomWSHandler {
	return &RoomWSHandler{
		hub:         h,
		coordinator: coordinator,
		maxMsgSize:  maxMsgSize,
		sendQueue:   sendQueue,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
	}
}

// ServeWS upgrades the request and runs the action loop until the client
// disconnects. Path: /ws/rooms/:user_id?username=...&avatar_url=...
func (h *RoomWSHandler) ServeWS(c *gin.Context) {
	userID := c.Param("user_id")
	username := strings.TrimSpace(c.Query("username"))
	if userID == "" || username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and username required"})
		return
	}
	avatarURL := c.Query("avatar_url")

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	if h.maxMsgSize > 0 {
		ws.SetReadLimit(h.maxMsgSize)
	}

	conn := hub.NewConnection(userID, ws, h.sendQueue)
	h.hub.Attach(conn)

	caller := service.Caller{
		ConnectionID: conn.ID,
		UserID:       userID,
		Username:     username,
		AvatarURL:    avatarURL,
	}
	h.readLoop(c.Request.Context(), ws, conn, caller)
}

func (h *RoomWSHandler) readLoop(ctx context.Context, ws *websocket.Conn, conn *hub.Connection, caller service.Caller) {
	defer func() {
		// A dropped connection is an immediate leave.
		h.coordinator.Disconnect(context.WithoutCancel(ctx), conn.ID)
		h.hub.Detach(conn.ID)
		conn.Close(websocket.CloseNormalClosure, "bye")
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.String("user_id", caller.UserID), zap.Error(err))
			}
			return
		}
		if err := h.dispatch(ctx, caller, raw); err != nil {
			h.hub.Send(conn.ID, hub.Event{Name: hub.EventError, Data: hub.ErrorPayload{Message: errorMessage(err)}})
		}
	}
}

func (h *RoomWSHandler) dispatch(ctx context.Context, caller service.Caller, raw []byte) error {
	var env actionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errors.New("malformed action frame")
	}
	var p actionPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return errors.New("malformed action payload")
		}
	}

	connID := caller.ConnectionID
	switch env.Action {
	case actionJoinRoom:
		return h.coordinator.JoinRoom(ctx, caller, p.RoomID, p.Password)
	case actionLeaveRoom:
		return h.coordinator.LeaveRoom(ctx, connID)
	case actionSendMessage:
		return h.coordinator.SendMessage(ctx, connID, p.RoomID, p.Content)
	case actionChangeVideo:
		return h.coordinator.ChangeVideo(ctx, connID, p.RoomID, p.URL, p.Title, p.Thumbnail)
	case actionPlayVideo:
		return h.coordinator.Play(ctx, connID, p.RoomID)
	case actionPauseVideo:
		return h.coordinator.Pause(ctx, connID, p.RoomID)
	case actionSeekVideo:
		return h.coordinator.Seek(ctx, connID, p.RoomID, p.Position)
	case actionReportPosition:
		return h.coordinator.ReportPosition(ctx, connID, p.RoomID, p.Position)
	case actionTransferControl:
		return h.coordinator.TransferControl(ctx, caller, p.RoomID, p.TargetUserID)
	case actionKickUser:
		return h.coordinator.KickUser(ctx, caller, p.RoomID, p.TargetUserID)
	case actionUpdateSyncMode:
		return h.coordinator.UpdateSyncMode(ctx, caller, p.RoomID, p.Mode)
	case actionRequestParticipants:
		return h.coordinator.RequestParticipants(ctx, connID, p.RoomID)
	case actionCloseRoom:
		return h.coordinator.CloseRoom(ctx, caller, p.RoomID)
	default:
		return errors.New("unknown action: " + env.Action)
	}
}

// errorMessage converts action errors to the client-facing reason. Sentinel
// errors read well as-is; anything else is masked.
func errorMessage(err error) string {
	for _, known := range []error{
		errs.ErrRoomNotFound, errs.ErrRoomClosed, errs.ErrParticipantNotFound,
		errs.ErrNotInRoom, errs.ErrPermissionDenied, errs.ErrInvalidPassword,
		errs.ErrEmptyMessage, errs.ErrMessageTooLong, errs.ErrEmptyVideoURL,
		errs.ErrInvalidSyncMode, errs.ErrSelfKick,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	if msg := err.Error(); strings.HasPrefix(msg, "malformed") || strings.HasPrefix(msg, "unknown action") {
		return msg
	}
	return "action failed"
}
