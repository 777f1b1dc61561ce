package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sketchify/relay/internal/core"
	"github.com/sketchify/relay/internal/domain"
)

const connectTimeout = 3 * time.Second

// RedisStore keeps the last snapshot per room under room:<id> with
// SnapshotTTL, refreshed on every save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect attempts the one connection the process ever makes. When the ping
// fails the returned store is the no-op one and the process runs without
// durability for its whole lifetime; a flaky backend must not block startup
// or broadcasting.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) core.SnapshotStore {
	if addr == "" {
		log.Info().Str("module", "store").Msg("no redis address configured, persistence disabled")
		return NewNoop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("module", "store").Str("addr", addr).Msg("redis unreachable, persistence disabled")
		_ = client.Close()
		return NewNoop()
	}
	if ttl <= 0 {
		ttl = SnapshotTTL
	}
	log.Info().Str("module", "store").Str("addr", addr).Dur("ttl", ttl).Msg("redis connected")
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, room domain.RoomID, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, roomKey(room), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", roomKey(room), err)
	}
	return nil
}

// Load returns the last-saved snapshot, or an empty one when none exists.
func (s *RedisStore) Load(ctx context.Context, room domain.RoomID) (domain.Snapshot, error) {
	data, err := s.client.Get(ctx, roomKey(room)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", roomKey(room), err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", roomKey(room), err)
	}
	return snap, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
