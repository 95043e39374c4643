package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/errs"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/hub"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/model"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/state"
)

// maxMessageRunes bounds chat message content length.
const maxMessageRunes = 2000

// Notifier is the outbound delivery contract the coordinator publishes
// through. hub.Hub implements it; tests use a recording fake.
type Notifier interface {
	JoinRoom(roomID, connID string)
	LeaveRoom(roomID, connID string)
	CloseRoom(roomID string)
	Publish(roomID string, evt hub.Event)
	PublishExcept(roomID, exceptConnID string, evt hub.Event)
	Send(connID string, evt hub.Event)
}

// Caller identifies the authenticated connection issuing an action.
type Caller struct {
	ConnectionID string
	UserID       string
	Username     string
	AvatarURL    string
}

// Coordinator orchestrates join/leave/reconnect sequences and every room
// action, mutating runtime state through the store and fanning out
// notifications through the Notifier.
//
// Mutations on a room are serialized by a per-room lock; operations on
// different rooms never contend. Collaborator reads (room metadata,
// password checks) happen before the lock is taken wherever possible.
type Coordinator struct {
	store    state.Store
	rooms    RoomService
	control  *ControlManager
	syncer   *PositionSyncer
	sessions *SessionRegistry
	notifier Notifier
	log      *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator wires the coordination session.
func NewCoordinator(store state.Store, rooms RoomService, syncer *PositionSyncer, notifier Notifier, log *zap.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		rooms:    rooms,
		control:  NewControlManager(store),
		syncer:   syncer,
		sessions: NewSessionRegistry(),
		notifier: notifier,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockRoom serializes mutations on a single room.
func (c *Coordinator) lockRoom(roomID string) func() {
	c.mu.Lock()
	l, ok := c.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[roomID] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// JoinRoom admits the caller into a room. A join by an identity already in
// the room is a reconnect: the connection id and display metadata are
// refreshed in place, JoinedAt and HasControl are preserved, and nothing is
// broadcast to the others.
func (c *Coordinator) JoinRoom(ctx context.Context, caller Caller, roomID, password string) error {
	room, err := c.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.IsActive {
		return errs.ErrRoomClosed
	}
	isAdmin := room.AdminID == caller.UserID
	if room.IsPrivate && !isAdmin {
		if err := c.rooms.ValidateRoomPassword(ctx, roomID, password); err != nil {
			return err
		}
	}

	// A connection switching rooms leaves the old room first, so control
	// succession and departure notifications run there before the new join
	// registers. Validation above already passed, so a rejected join cannot
	// evict the caller from their current room.
	if prev, ok := c.sessions.Get(caller.ConnectionID); ok && prev.RoomID != roomID {
		if err := c.leave(ctx, prev); err != nil {
			return err
		}
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	existing, err := c.store.GetParticipant(ctx, roomID, caller.UserID)
	if err == nil {
		return c.rejoin(ctx, caller, room, existing)
	}

	count, err := c.store.CountParticipants(ctx, roomID)
	if err != nil {
		return err
	}
	p := model.Participant{
		ID:           caller.UserID,
		ConnectionID: caller.ConnectionID,
		Username:     caller.Username,
		AvatarURL:    caller.AvatarURL,
		JoinedAt:     time.Now().UTC(),
		HasControl:   count == 0,
	}
	if err := c.store.AddOrUpdateParticipant(ctx, roomID, p); err != nil {
		return err
	}
	takesControl := count == 0
	if isAdmin && count > 0 {
		// Admin override on join: control migrates to the admin.
		if err := c.store.SetController(ctx, roomID, p.ID); err != nil {
			return err
		}
		p.HasControl = true
		takesControl = true
	}

	c.notifier.JoinRoom(roomID, caller.ConnectionID)
	c.sessions.Set(Session{
		ConnectionID: caller.ConnectionID,
		RoomID:       roomID,
		UserID:       caller.UserID,
		Username:     caller.Username,
		AvatarURL:    caller.AvatarURL,
	})

	c.notifier.Send(caller.ConnectionID, hub.Event{Name: hub.EventRoomJoined, Data: roomJoinedPayload(room)})
	if err := c.sendChatHistory(ctx, caller.ConnectionID, roomID); err != nil {
		return err
	}

	c.notifier.Publish(roomID, hub.Event{Name: hub.EventParticipantJoined, Data: hub.ParticipantNoticePayload{
		RoomID:    roomID,
		UserID:    caller.UserID,
		Username:  caller.Username,
		AvatarURL: caller.AvatarURL,
	}})
	if err := c.broadcastSnapshot(ctx, roomID); err != nil {
		return err
	}
	c.appendSystemMessage(ctx, roomID, caller.Username+" joined the room")
	if takesControl {
		c.notifier.Publish(roomID, hub.Event{Name: hub.EventControlTransferred, Data: hub.ControlTransferredPayload{
			RoomID:   roomID,
			UserID:   p.ID,
			Username: p.Username,
		}})
	}

	c.log.Info("participant joined",
		zap.String("room_id", roomID),
		zap.String("user_id", caller.UserID),
		zap.Bool("has_control", p.HasControl))
	return nil
}

// rejoin refreshes the connection id and display metadata of an already
// registered participant and replays the room snapshot to the caller only.
func (c *Coordinator) rejoin(ctx context.Context, caller Caller, room *model.Room, existing model.Participant) error {
	existing.ConnectionID = caller.ConnectionID
	existing.Username = caller.Username
	existing.AvatarURL = caller.AvatarURL
	if err := c.store.AddOrUpdateParticipant(ctx, room.ID, existing); err != nil {
		return err
	}

	c.notifier.JoinRoom(room.ID, caller.ConnectionID)
	c.sessions.Set(Session{
		ConnectionID: caller.ConnectionID,
		RoomID:       room.ID,
		UserID:       caller.UserID,
		Username:     caller.Username,
		AvatarURL:    caller.AvatarURL,
	})

	c.notifier.Send(caller.ConnectionID, hub.Event{Name: hub.EventRoomJoined, Data: roomJoinedPayload(room)})
	if err := c.sendParticipants(ctx, caller.ConnectionID, room.ID); err != nil {
		return err
	}
	if err := c.sendChatHistory(ctx, caller.ConnectionID, room.ID); err != nil {
		return err
	}

	c.log.Info("participant reconnected",
		zap.String("room_id", room.ID),
		zap.String("user_id", caller.UserID))
	return nil
}

// LeaveRoom handles an explicit leave request.
func (c *Coordinator) LeaveRoom(ctx context.Context, connID string) error {
	sess, ok := c.sessions.Get(connID)
	if !ok {
		return errs.ErrNotInRoom
	}
	if err := c.leave(ctx, sess); err != nil {
		return err
	}
	c.notifier.Send(connID, hub.Event{Name: hub.EventRoomLeft, Data: hub.RoomLeftPayload{RoomID: sess.RoomID}})
	return nil
}

// Disconnect treats a dropped connection as an immediate leave: no grace
// timer before control succession or notifications. Reconnects still work
// because JoinRoom re-registers by identity.
func (c *Coordinator) Disconnect(ctx context.Context, connID string) {
	sess, ok := c.sessions.Get(connID)
	if !ok {
		return
	}
	if err := c.leave(ctx, sess); err != nil {
		c.log.Warn("disconnect cleanup failed",
			zap.String("room_id", sess.RoomID),
			zap.String("user_id", sess.UserID),
			zap.Error(err))
	}
}

func (c *Coordinator) leave(ctx context.Context, sess Session) error {
	unlock := c.lockRoom(sess.RoomID)
	defer unlock()

	c.sessions.Clear(sess.ConnectionID)
	c.notifier.LeaveRoom(sess.RoomID, sess.ConnectionID)

	p, err := c.store.GetParticipant(ctx, sess.RoomID, sess.UserID)
	if err != nil {
		// Already removed; leaving twice is a no-op.
		return nil
	}
	if p.ConnectionID != sess.ConnectionID {
		// The user reconnected on a newer connection; this is the stale
		// one going away. Membership stays intact.
		return nil
	}

	hadControl := p.HasControl
	if err := c.store.RemoveParticipant(ctx, sess.RoomID, sess.UserID); err != nil {
		return err
	}

	if hadControl {
		next, stillOccupied, err := c.control.SuccessionAfterRemoval(ctx, sess.RoomID, p.ID)
		if err != nil {
			return err
		}
		if stillOccupied {
			c.notifier.Publish(sess.RoomID, hub.Event{Name: hub.EventControlTransferred, Data: hub.ControlTransferredPayload{
				RoomID:   sess.RoomID,
				UserID:   next.ID,
				Username: next.Username,
			}})
		}
	}

	c.notifier.Publish(sess.RoomID, hub.Event{Name: hub.EventParticipantLeft, Data: hub.ParticipantNoticePayload{
		RoomID:   sess.RoomID,
		UserID:   sess.UserID,
		Username: sess.Username,
	}})
	if err := c.broadcastSnapshot(ctx, sess.RoomID); err != nil {
		return err
	}
	c.appendSystemMessage(ctx, sess.RoomID, sess.Username+" left the room")

	c.log.Info("participant left",
		zap.String("room_id", sess.RoomID),
		zap.String("user_id", sess.UserID),
		zap.Bool("had_control", hadControl))
	return nil
}

// SendMessage validates and appends a chat message, then broadcasts it.
func (c *Coordinator) SendMessage(ctx context.Context, connID, roomID, content string) error {
	sess, _, err := c.requireParticipant(ctx, connID, roomID)
	if err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return errs.ErrEmptyMessage
	}
	if len([]rune(content)) > maxMessageRunes {
		return errs.ErrMessageTooLong
	}

	unlock := c.lockRoom(sess.RoomID)
	defer unlock()

	msg := model.ChatMessage{
		ID:         ulid.Make().String(),
		SenderID:   sess.UserID,
		SenderName: sess.Username,
		AvatarURL:  sess.AvatarURL,
		Content:    content,
		SentAt:     time.Now().UTC(),
	}
	if err := c.store.AppendMessage(ctx, sess.RoomID, msg); err != nil {
		return err
	}
	c.notifier.Publish(sess.RoomID, hub.Event{Name: hub.EventChatMessage, Data: msg})
	return nil
}

// Play resumes playback from the room's last persisted position.
func (c *Coordinator) Play(ctx context.Context, connID, roomID string) error {
	return c.setPlayback(ctx, connID, roomID, nil, true)
}

// Pause stops playback at the room's last persisted position.
func (c *Coordinator) Pause(ctx context.Context, connID, roomID string) error {
	return c.setPlayback(ctx, connID, roomID, nil, false)
}

// Seek moves the room to an absolute position, preserving the playing flag.
func (c *Coordinator) Seek(ctx context.Context, connID, roomID string, position float64) error {
	return c.setPlayback(ctx, connID, roomID, &position, false)
}

func (c *Coordinator) setPlayback(ctx context.Context, connID, roomID string, position *float64, isPlaying bool) error {
	sess, p, err := c.requireParticipant(ctx, connID, roomID)
	if err != nil {
		return err
	}
	room, err := c.rooms.GetRoomByID(ctx, sess.RoomID)
	if err != nil {
		return err
	}
	if !c.mayDrivePlayback(room, sess, p) {
		return errs.ErrPermissionDenied
	}

	pos := room.Position
	playing := isPlaying
	if position != nil {
		pos = *position
		playing = room.IsPlaying
	}

	unlock := c.lockRoom(sess.RoomID)
	defer unlock()

	// External write first; a failed write aborts before any broadcast.
	if err := c.rooms.UpdatePlaybackState(ctx, sess.RoomID, pos, playing); err != nil {
		return fmt.Errorf("update playback state: %w", err)
	}
	c.notifier.Publish(sess.RoomID, hub.Event{Name: hub.EventPlaybackUpdate, Data: hub.PlaybackPayload{
		RoomID:        sess.RoomID,
		PlaybackState: model.PlaybackState{Position: pos, IsPlaying: playing},
	}})
	return nil
}

// ReportPosition is the periodic position heartbeat. Every report feeds
// position reconciliation; only the controller's report is persisted and
// rebroadcast (to everyone except the sender).
func (c *Coordinator) ReportPosition(ctx context.Context, connID, roomID string, position float64) error {
	sess, p, err := c.requireParticipant(ctx, connID, roomID)
	if err != nil {
		return err
	}
	room, err := c.rooms.GetRoomByID(ctx, sess.RoomID)
	if err != nil {
		return err
	}

	c.syncer.Report(sess.RoomID, connID, position)

	if p.HasControl {
		if err := c.rooms.UpdatePlaybackState(ctx, sess.RoomID, position, room.IsPlaying); err != nil {
			return fmt.Errorf("update playback state: %w", err)
		}
		c.notifier.PublishExcept(sess.RoomID, connID, hub.Event{Name: hub.EventHeartbeat, Data: hub.HeartbeatPayload{
			RoomID:   sess.RoomID,
			Position: position,
		}})
	}

	count, err := c.store.CountParticipants(ctx, sess.RoomID)
	if err != nil {
		return err
	}
	median, corrections, ok := c.syncer.Evaluate(sess.RoomID, count)
	if !ok {
		return nil
	}
	for _, cor := range corrections {
		c.notifier.Send(cor.ConnectionID, hub.Event{Name: hub.EventForceSync, Data: hub.PlaybackPayload{
			RoomID:        sess.RoomID,
			PlaybackState: model.PlaybackState{Position: median, IsPlaying: room.IsPlaying},
		}})
	}
	if len(corrections) > 0 {
		c.log.Debug("drift corrections sent",
			zap.String("room_id", sess.RoomID),
			zap.Float64("median", median),
			zap.Int("corrections", len(corrections)))
	}
	return nil
}

// TransferControl hands the controller token to a present participant. Only
// the room admin or the current controller may transfer; the admin does not
// have to be a registered participant to moderate.
func (c *Coordinator) TransferControl(ctx context.Context, caller Caller, roomID, targetUserID string) error {
	roomID, err := c.resolveRoomID(caller.ConnectionID, roomID)
	if err != nil {
		return err
	}
	isAdmin, err := c.rooms.IsUserAdmin(ctx, roomID, caller.UserID)
	if err != nil {
		return err
	}
	if !isAdmin {
		p, err := c.store.GetParticipant(ctx, roomID, caller.UserID)
		if err != nil || !p.HasControl {
			return errs.ErrPermissionDenied
		}
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	target, err := c.control.TransferTo(ctx, roomID, targetUserID)
	if err != nil {
		return err
	}
	c.notifier.Publish(roomID, hub.Event{Name: hub.EventControlTransferred, Data: hub.ControlTransferredPayload{
		RoomID:   roomID,
		UserID:   target.ID,
		Username: target.Username,
	}})
	if err := c.broadcastSnapshot(ctx, roomID); err != nil {
		return err
	}
	c.appendSystemMessage(ctx, roomID, target.Username+" now has control")
	return nil
}

// KickUser forcibly removes a participant. Admin only; self-kick rejected.
// The kicked connection alone receives UserKicked; the room gets a system
// message and a refreshed snapshot.
func (c *Coordinator) KickUser(ctx context.Context, caller Caller, roomID, targetUserID string) error {
	roomID, err := c.resolveRoomID(caller.ConnectionID, roomID)
	if err != nil {
		return err
	}
	isAdmin, err := c.rooms.IsUserAdmin(ctx, roomID, caller.UserID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return errs.ErrPermissionDenied
	}
	if targetUserID == caller.UserID {
		return errs.ErrSelfKick
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	target, err := c.store.GetParticipant(ctx, roomID, targetUserID)
	if err != nil {
		return err
	}
	if err := c.store.RemoveParticipant(ctx, roomID, targetUserID); err != nil {
		return err
	}

	c.notifier.Send(target.ConnectionID, hub.Event{Name: hub.EventUserKicked, Data: hub.UserKickedPayload{
		RoomID: roomID,
		Reason: "removed by admin",
	}})
	c.notifier.LeaveRoom(roomID, target.ConnectionID)
	c.sessions.Clear(target.ConnectionID)

	if target.HasControl {
		next, stillOccupied, err := c.control.SuccessionAfterRemoval(ctx, roomID, target.ID)
		if err != nil {
			return err
		}
		if stillOccupied {
			c.notifier.Publish(roomID, hub.Event{Name: hub.EventControlTransferred, Data: hub.ControlTransferredPayload{
				RoomID:   roomID,
				UserID:   next.ID,
				Username: next.Username,
			}})
		}
	}

	c.appendSystemMessage(ctx, roomID, target.Username+" was removed from the room")
	if err := c.broadcastSnapshot(ctx, roomID); err != nil {
		return err
	}

	c.log.Info("participant kicked",
		zap.String("room_id", roomID),
		zap.String("user_id", targetUserID),
		zap.String("by", caller.UserID))
	return nil
}

// ChangeVideo swaps the room's video. Controller or admin only. Playback
// resets to position 0, paused.
func (c *Coordinator) ChangeVideo(ctx context.Context, connID, roomID, url, title, thumbnail string) error {
	sess, p, err := c.requireParticipant(ctx, connID, roomID)
	if err != nil {
		return err
	}
	isAdmin, err := c.rooms.IsUserAdmin(ctx, sess.RoomID, sess.UserID)
	if err != nil {
		return err
	}
	if !isAdmin && !p.HasControl {
		return errs.ErrPermissionDenied
	}
	if strings.TrimSpace(url) == "" {
		return errs.ErrEmptyVideoURL
	}

	unlock := c.lockRoom(sess.RoomID)
	defer unlock()

	if err := c.rooms.UpdateVideoURL(ctx, sess.RoomID, url, title, thumbnail); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	c.notifier.Publish(sess.RoomID, hub.Event{Name: hub.EventVideoChanged, Data: hub.VideoChangedPayload{
		RoomID:    sess.RoomID,
		URL:       url,
		Title:     title,
		Thumbnail: thumbnail,
	}})
	return nil
}

// UpdateSyncMode toggles strict/relaxed playback permissions. Admin only.
// Switching to strict forces a full resync so every client lands on the
// authoritative position.
func (c *Coordinator) UpdateSyncMode(ctx context.Context, caller Caller, roomID, mode string) error {
	roomID, err := c.resolveRoomID(caller.ConnectionID, roomID)
	if err != nil {
		return err
	}
	syncMode := model.SyncMode(mode)
	if !syncMode.Valid() {
		return errs.ErrInvalidSyncMode
	}
	isAdmin, err := c.rooms.IsUserAdmin(ctx, roomID, caller.UserID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return errs.ErrPermissionDenied
	}
	room, err := c.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	if err := c.rooms.UpdateSyncMode(ctx, roomID, syncMode); err != nil {
		return fmt.Errorf("update sync mode: %w", err)
	}
	c.notifier.Publish(roomID, hub.Event{Name: hub.EventSyncModeChanged, Data: hub.SyncModePayload{
		RoomID: roomID,
		Mode:   mode,
	}})
	if syncMode == model.SyncModeStrict {
		c.notifier.Publish(roomID, hub.Event{Name: hub.EventForceSync, Data: hub.PlaybackPayload{
			RoomID:        roomID,
			PlaybackState: model.PlaybackState{Position: room.Position, IsPlaying: room.IsPlaying},
		}})
	}
	return nil
}

// RequestParticipants replays the current participant snapshot to the caller.
func (c *Coordinator) RequestParticipants(ctx context.Context, connID, roomID string) error {
	sess, _, err := c.requireParticipant(ctx, connID, roomID)
	if err != nil {
		return err
	}
	return c.sendParticipants(ctx, connID, sess.RoomID)
}

// CloseRoom ends the room entirely. Admin only. The room metadata is marked
// ended first; only then are clients notified and runtime state dropped.
func (c *Coordinator) CloseRoom(ctx context.Context, caller Caller, roomID string) error {
	roomID, err := c.resolveRoomID(caller.ConnectionID, roomID)
	if err != nil {
		return err
	}
	isAdmin, err := c.rooms.IsUserAdmin(ctx, roomID, caller.UserID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return errs.ErrPermissionDenied
	}

	unlock := c.lockRoom(roomID)
	defer unlock()

	if err := c.rooms.EndRoom(ctx, roomID); err != nil {
		return fmt.Errorf("end room: %w", err)
	}
	c.notifier.Publish(roomID, hub.Event{Name: hub.EventRoomClosed, Data: hub.RoomClosedPayload{
		RoomID: roomID,
		Reason: "closed by admin",
	}})
	c.sessions.ClearRoom(roomID)
	c.notifier.CloseRoom(roomID)
	c.syncer.Forget(roomID)
	if err := c.store.ClearRoomData(ctx, roomID); err != nil {
		return err
	}

	c.log.Info("room closed", zap.String("room_id", roomID), zap.String("by", caller.UserID))
	return nil
}

// RunCleanup periodically sweeps expired room data until ctx is cancelled.
// Sweep failures are logged and retried next cycle, never surfaced to
// clients.
func (c *Coordinator) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := c.store.CleanupEmptyRooms(ctx)
			if err != nil {
				c.log.Warn("room cleanup sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				c.log.Info("expired room data removed", zap.Int("rooms", removed))
			}
		}
	}
}

// resolveRoomID returns the explicit room id, falling back to the caller's
// joined room. Moderation actions may target a room the admin never joined,
// so an explicit id wins over the session.
func (c *Coordinator) resolveRoomID(connID, roomID string) (string, error) {
	if roomID != "" {
		return roomID, nil
	}
	sess, ok := c.sessions.Get(connID)
	if !ok {
		return "", errs.ErrNotInRoom
	}
	return sess.RoomID, nil
}

// requireParticipant resolves the caller's session and registered
// participant. roomID, when non-empty, must match the session's room.
func (c *Coordinator) requireParticipant(ctx context.Context, connID, roomID string) (Session, model.Participant, error) {
	sess, ok := c.sessions.Get(connID)
	if !ok {
		return Session{}, model.Participant{}, errs.ErrNotInRoom
	}
	if roomID != "" && roomID != sess.RoomID {
		return Session{}, model.Participant{}, errs.ErrNotInRoom
	}
	p, err := c.store.GetParticipant(ctx, sess.RoomID, sess.UserID)
	if err != nil {
		return Session{}, model.Participant{}, err
	}
	return sess, p, nil
}

// mayDrivePlayback applies the sync-mode permission rule: strict mode limits
// playback to the controller or the admin; relaxed mode lets any registered
// participant drive.
func (c *Coordinator) mayDrivePlayback(room *model.Room, sess Session, p model.Participant) bool {
	if room.SyncMode == string(model.SyncModeRelaxed) {
		return true
	}
	return p.HasControl || room.AdminID == sess.UserID
}

func (c *Coordinator) sendParticipants(ctx context.Context, connID, roomID string) error {
	ps, err := c.store.ListParticipants(ctx, roomID)
	if err != nil {
		return err
	}
	c.notifier.Send(connID, hub.Event{Name: hub.EventRoomParticipants, Data: hub.ParticipantsPayload{
		RoomID:       roomID,
		Participants: ps,
	}})
	return nil
}

func (c *Coordinator) sendChatHistory(ctx context.Context, connID, roomID string) error {
	msgs, err := c.store.ListMessages(ctx, roomID)
	if err != nil {
		return err
	}
	c.notifier.Send(connID, hub.Event{Name: hub.EventChatHistory, Data: hub.ChatHistoryPayload{
		RoomID:   roomID,
		Messages: msgs,
	}})
	return nil
}

func (c *Coordinator) broadcastSnapshot(ctx context.Context, roomID string) error {
	ps, err := c.store.ListParticipants(ctx, roomID)
	if err != nil {
		return err
	}
	c.notifier.Publish(roomID, hub.Event{Name: hub.EventRoomParticipants, Data: hub.ParticipantsPayload{
		RoomID:       roomID,
		Participants: ps,
	}})
	return nil
}

// appendSystemMessage records and broadcasts a server-generated chat line.
// Failures are logged, not surfaced: announcements are best-effort.
func (c *Coordinator) appendSystemMessage(ctx context.Context, roomID, text string) {
	msg := model.ChatMessage{
		ID:         ulid.Make().String(),
		SenderID:   model.SystemSenderID,
		SenderName: "StreamSync",
		Content:    text,
		SentAt:     time.Now().UTC(),
	}
	if err := c.store.AppendMessage(ctx, roomID, msg); err != nil {
		c.log.Warn("system message append failed", zap.String("room_id", roomID), zap.Error(err))
		return
	}
	c.notifier.Publish(roomID, hub.Event{Name: hub.EventChatMessage, Data: msg})
}

func roomJoinedPayload(room *model.Room) hub.RoomJoinedPayload {
	return hub.RoomJoinedPayload{
		RoomID:     room.ID,
		Name:       room.Name,
		VideoURL:   room.VideoURL,
		VideoTitle: room.VideoTitle,
		SyncMode:   room.SyncMode,
		AdminID:    room.AdminID,
		Position:   room.Position,
		IsPlaying:  room.IsPlaying,
	}
}
