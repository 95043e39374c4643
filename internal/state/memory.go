package state

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/errs"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/model"
)

// memoryRoom holds one room's runtime state plus its retention deadlines.
// Each room carries its own lock so rooms never contend with each other.
type memoryRoom struct {
	mu           sync.RWMutex
	participants map[string]model.Participant
	messages     []model.ChatMessage
	emptySince   time.Time // zero while any participant is present
	expiresAt    time.Time // rolling TTL, refreshed on every join
}

// MemoryStore is the in-process Store backend.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*memoryRoom

	emptyGrace time.Duration
	dataTTL    time.Duration
	now        func() time.Time
}

// NewMemoryStore creates an in-process store with the given retention
// windows. Zero durations fall back to the defaults.
func NewMemoryStore(emptyGrace, dataTTL time.Duration) *MemoryStore {
	if emptyGrace <= 0 {
		emptyGrace = DefaultEmptyRoomGrace
	}
	if dataTTL <= 0 {
		dataTTL = DefaultRoomDataTTL
	}
	return &MemoryStore{
		rooms:      make(map[string]*memoryRoom),
		emptyGrace: emptyGrace,
		dataTTL:    dataTTL,
		now:        time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

// room returns the state for roomID, creating it lazily when create is set.
func (s *MemoryStore) room(roomID string, create bool) *memoryRoom {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if ok || !create {
		return r
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok = s.rooms[roomID]; !ok {
		r = &memoryRoom{participants: make(map[string]model.Participant)}
		s.rooms[roomID] = r
	}
	return r
}

func (s *MemoryStore) AddOrUpdateParticipant(_ context.Context, roomID string, p model.Participant) error {
	r := s.room(roomID, true)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.ID] = p
	r.emptySince = time.Time{}
	r.expiresAt = s.now().Add(s.dataTTL)
	return nil
}

func (s *MemoryStore) RemoveParticipant(_ context.Context, roomID, participantID string) error {
	r := s.room(roomID, false)
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[participantID]; !ok {
		return nil
	}
	delete(r.participants, participantID)
	if len(r.participants) == 0 {
		r.emptySince = s.now()
	}
	return nil
}

func (s *MemoryStore) GetParticipant(_ context.Context, roomID, participantID string) (model.Participant, error) {
	r := s.room(roomID, false)
	if r == nil {
		return model.Participant{}, errs.ErrParticipantNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[participantID]
	if !ok {
		return model.Participant{}, errs.ErrParticipantNotFound
	}
	return p, nil
}

func (s *MemoryStore) ListParticipants(_ context.Context, roomID string) ([]model.Participant, error) {
	r := s.room(roomID, false)
	if r == nil {
		return nil, nil
	}
	r.mu.RLock()
	out := make([]model.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountParticipants(_ context.Context, roomID string) (int, error) {
	r := s.room(roomID, false)
	if r == nil {
		return 0, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants), nil
}

func (s *MemoryStore) SetController(_ context.Context, roomID, participantID string) error {
	r := s.room(roomID, false)
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.participants {
		p.HasControl = id == participantID
		r.participants[id] = p
	}
	return nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, roomID string, msg model.ChatMessage) error {
	r := s.room(roomID, true)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	if n := len(r.messages); n > MessageCapacity {
		r.messages = append(r.messages[:0:0], r.messages[n-MessageCapacity:]...)
	}
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, roomID string) ([]model.ChatMessage, error) {
	r := s.room(roomID, false)
	if r == nil {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out, nil
}

func (s *MemoryStore) ClearRoomData(_ context.Context, roomID string) error {
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListActiveRoomIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		out = append(out, id)
	}
	return out, nil
}

func (s *MemoryStore) CleanupEmptyRooms(_ context.Context) (int, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, r := range s.rooms {
		r.mu.RLock()
		expired := (!r.emptySince.IsZero() && now.Sub(r.emptySince) >= s.emptyGrace) ||
			(!r.expiresAt.IsZero() && now.After(r.expiresAt))
		r.mu.RUnlock()
		if expired {
			delete(s.rooms, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error { return nil }
