package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/errs"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/model"
)

const activeRoomsKey = "rooms:active"

// RedisStore is the durable Store backend. Participants live in a hash per
// room, chat history in a list per room, and retention is enforced by key
// TTLs: the rolling 24h expiry is refreshed on every join, and when a room
// empties the TTL is shortened to the grace window. The background sweep
// only prunes the active-rooms index once Redis has expired the data keys.
type RedisStore struct {
	client *redis.Client

	emptyGrace time.Duration
	dataTTL    time.Duration
}

// NewRedisStore connects to Redis using a redis:// URL and verifies the
// connection. Zero durations fall back to the defaults.
func NewRedisStore(ctx context.Context, redisURL string, emptyGrace, dataTTL time.Duration) (*RedisStore, error) {
	if emptyGrace <= 0 {
		emptyGrace = DefaultEmptyRoomGrace
	}
	if dataTTL <= 0 {
		dataTTL = DefaultRoomDataTTL
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisStore{client: c, emptyGrace: emptyGrace, dataTTL: dataTTL}, nil
}

var _ Store = (*RedisStore)(nil)

func participantsKey(roomID string) string { return "room:" + roomID + ":participants" }
func messagesKey(roomID string) string     { return "room:" + roomID + ":messages" }

func (s *RedisStore) AddOrUpdateParticipant(ctx context.Context, roomID string, p model.Participant) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("redis: marshal participant: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, participantsKey(roomID), p.ID, raw)
	pipe.SAdd(ctx, activeRoomsKey, roomID)
	pipe.Expire(ctx, participantsKey(roomID), s.dataTTL)
	pipe.Expire(ctx, messagesKey(roomID), s.dataTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) RemoveParticipant(ctx context.Context, roomID, participantID string) error {
	removed, err := s.client.HDel(ctx, participantsKey(roomID), participantID).Result()
	if err != nil || removed == 0 {
		return err
	}
	left, err := s.client.HLen(ctx, participantsKey(roomID)).Result()
	if err != nil {
		return err
	}
	if left == 0 {
		// Room is empty: shorten retention to the grace window.
		pipe := s.client.TxPipeline()
		pipe.Expire(ctx, participantsKey(roomID), s.emptyGrace)
		pipe.Expire(ctx, messagesKey(roomID), s.emptyGrace)
		_, err = pipe.Exec(ctx)
	}
	return err
}

func (s *RedisStore) GetParticipant(ctx context.Context, roomID, participantID string) (model.Participant, error) {
	raw, err := s.client.HGet(ctx, participantsKey(roomID), participantID).Result()
	if err == redis.Nil {
		return model.Participant{}, errs.ErrParticipantNotFound
	}
	if err != nil {
		return model.Participant{}, err
	}
	var p model.Participant
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.Participant{}, fmt.Errorf("redis: unmarshal participant: %w", err)
	}
	return p, nil
}

func (s *RedisStore) ListParticipants(ctx context.Context, roomID string) ([]model.Participant, error) {
	vals, err := s.client.HVals(ctx, participantsKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Participant, 0, len(vals))
	for _, raw := range vals {
		var p model.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("redis: unmarshal participant: %w", err)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (s *RedisStore) CountParticipants(ctx context.Context, roomID string) (int, error) {
	n, err := s.client.HLen(ctx, participantsKey(roomID)).Result()
	return int(n), err
}

func (s *RedisStore) SetController(ctx context.Context, roomID, participantID string) error {
	ps, err := s.ListParticipants(ctx, roomID)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	for _, p := range ps {
		want := p.ID == participantID
		if p.HasControl == want {
			continue
		}
		p.HasControl = want
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("redis: marshal participant: %w", err)
		}
		pipe.HSet(ctx, participantsKey(roomID), p.ID, raw)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) AppendMessage(ctx context.Context, roomID string, msg model.ChatMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redis: marshal message: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, messagesKey(roomID), raw)
	pipe.LTrim(ctx, messagesKey(roomID), -MessageCapacity, -1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) ListMessages(ctx context.Context, roomID string) ([]model.ChatMessage, error) {
	vals, err := s.client.LRange(ctx, messagesKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.ChatMessage, 0, len(vals))
	for _, raw := range vals {
		var m model.ChatMessage
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("redis: unmarshal message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *RedisStore) ClearRoomData(ctx context.Context, roomID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, participantsKey(roomID), messagesKey(roomID))
	pipe.SRem(ctx, activeRoomsKey, roomID)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) ListActiveRoomIDs(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, activeRoomsKey).Result()
}

func (s *RedisStore) CleanupEmptyRooms(ctx context.Context) (int, error) {
	ids, err := s.ListActiveRoomIDs(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, participantsKey(id)).Result()
		if err != nil {
			return removed, err
		}
		if exists > 0 {
			continue
		}
		// Data keys already expired; drop the leftovers and the index entry.
		pipe := s.client.TxPipeline()
		pipe.Del(ctx, messagesKey(id))
		pipe.SRem(ctx, activeRoomsKey, id)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
