package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/errs"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/model"
)

// RoomService is the persisted room metadata collaborator. The coordinator
// only sees this interface, so tests run against a fake.
type RoomService interface {
	CreateRoom(ctx context.Context, req model.CreateRoomRequest) (*model.Room, error)
	GetRoomByID(ctx context.Context, roomID string) (*model.Room, error)
	GetRoomByInviteCode(ctx context.Context, code string) (*model.Room, error)
	ValidateRoomPassword(ctx context.Context, roomID, password string) error
	IsUserAdmin(ctx context.Context, roomID, userID string) (bool, error)
	UpdatePlaybackState(ctx context.Context, roomID string, position float64, isPlaying bool) error
	UpdateVideoURL(ctx context.Context, roomID, url, title, thumbnail string) error
	UpdateSyncMode(ctx context.Context, roomID string, mode model.SyncMode) error
	EndRoom(ctx context.Context, roomID string) error
}

// GormRoomService implements RoomService on PostgreSQL via GORM.
type GormRoomService struct {
	db *gorm.DB
}

// NewGormRoomService creates the GORM-backed room metadata service.
func NewGormRoomService(db *gorm.DB) *GormRoomService {
	return &GormRoomService{db: db}
}

var _ RoomService = (*GormRoomService)(nil)

// CreateRoom persists a new room. Private rooms get a bcrypt password hash.
func (s *GormRoomService) CreateRoom(ctx context.Context, req model.CreateRoomRequest) (*model.Room, error) {
	room := &model.Room{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(req.Name),
		InviteCode: newInviteCode(),
		IsPrivate:  req.IsPrivate,
		AdminID:    req.AdminID,
		VideoURL:   req.VideoURL,
		SyncMode:   string(model.SyncModeStrict),
		IsActive:   true,
	}
	if req.IsPrivate {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		room.PasswordHash = string(hash)
	}
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return nil, err
	}
	return room, nil
}

func (s *GormRoomService) GetRoomByID(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *GormRoomService) GetRoomByInviteCode(ctx context.Context, code string) (*model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).Where("invite_code = ?", code).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *GormRoomService) ValidateRoomPassword(ctx context.Context, roomID, password string) error {
	room, err := s.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.IsPrivate {
		return nil
	}
	if bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)) != nil {
		return errs.ErrInvalidPassword
	}
	return nil
}

func (s *GormRoomService) IsUserAdmin(ctx context.Context, roomID, userID string) (bool, error) {
	room, err := s.GetRoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	return room.AdminID == userID, nil
}

func (s *GormRoomService) UpdatePlaybackState(ctx context.Context, roomID string, position float64, isPlaying bool) error {
	return s.updateActive(ctx, roomID, map[string]interface{}{
		"position":   position,
		"is_playing": isPlaying,
	})
}

// UpdateVideoURL swaps the current video and resets playback to the start,
// paused.
func (s *GormRoomService) UpdateVideoURL(ctx context.Context, roomID, url, title, thumbnail string) error {
	return s.updateActive(ctx, roomID, map[string]interface{}{
		"video_url":       url,
		"video_title":     title,
		"video_thumbnail": thumbnail,
		"position":        0.0,
		"is_playing":      false,
	})
}

func (s *GormRoomService) UpdateSyncMode(ctx context.Context, roomID string, mode model.SyncMode) error {
	if !mode.Valid() {
		return errs.ErrInvalidSyncMode
	}
	return s.updateActive(ctx, roomID, map[string]interface{}{"sync_mode": string(mode)})
}

func (s *GormRoomService) EndRoom(ctx context.Context, roomID string) error {
	now := time.Now()
	return s.updateActive(ctx, roomID, map[string]interface{}{
		"is_active":  false,
		"is_playing": false,
		"ended_at":   now,
	})
}

func (s *GormRoomService) updateActive(ctx context.Context, roomID string, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ? AND is_active = true", roomID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrRoomNotFound
	}
	return nil
}

// newInviteCode returns a short shareable code derived from a UUID.
func newInviteCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:8])
}
